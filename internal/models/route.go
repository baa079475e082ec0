package models

import "freshlogic/internal/status"

// Waypoint is one checkpoint reading along a route.
type Waypoint struct {
	Index        int     `json:"index" yaml:"index"`
	Lat          float64 `json:"lat" yaml:"lat"`
	Lon          float64 `json:"lon" yaml:"lon"`
	TemperatureC float64 `json:"temperature_c" yaml:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct" yaml:"humidity_pct"`
	DistanceKm   float64 `json:"distance_km" yaml:"distance_km"`
	ElapsedHours float64 `json:"elapsed_hours" yaml:"elapsed_hours"`
}

// NumberWaypoints returns waypoints with indexes set to their positions when
// the route carries no indexes at all (every index zero). Routes that do
// number their waypoints are returned unchanged so validation can reject
// inconsistent numbering.
func NumberWaypoints(waypoints []Waypoint) []Waypoint {
	for _, w := range waypoints {
		if w.Index != 0 {
			return waypoints
		}
	}
	out := make([]Waypoint, len(waypoints))
	for i, w := range waypoints {
		w.Index = i
		out[i] = w
	}
	return out
}

// Features is the input vector both predictive models are trained on.
type Features struct {
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_percent"`
	VPDkPa       float64 `json:"vpd_kpa"`
	TransitHours float64 `json:"transit_hours"`
	CropType     string  `json:"crop_type"`
}

// ClassLabel is the output class of the classification model.
type ClassLabel string

const (
	LabelSpoiled ClassLabel = "spoiled"
	LabelSafe    ClassLabel = "safe"
)

// InstantRiskResult is the ensemble judgment for a single waypoint.
type InstantRiskResult struct {
	RegressionScore  float64    `json:"regression_score"`
	ClassLabel       ClassLabel `json:"class_label"`
	ClassProbability float64    `json:"class_probability"`
	EnsembleRisk     float64    `json:"ensemble_risk"`
	Confidence       float64    `json:"confidence"`
}

// WaypointRisk is the per-waypoint detail row of a summary.
type WaypointRisk struct {
	Waypoint       Waypoint          `json:"waypoint"`
	VPDkPa         float64           `json:"vpd_kpa"`
	Instant        InstantRiskResult `json:"instant"`
	DeltaHours     float64           `json:"delta_hours"`
	CumulativeRisk float64           `json:"cumulative_risk"`
	InDanger       bool              `json:"in_danger"`
	DangerReasons  []string          `json:"danger_reasons,omitempty"`
}

// RouteRiskSummary is the result of analysing one route for one crop.
type RouteRiskSummary struct {
	CropType            string         `json:"crop_type"`
	CumulativeRisk      []float64      `json:"cumulative_risk"`
	OverallRisk         float64        `json:"overall_risk"`
	TemperatureVariance float64        `json:"temperature_variance"`
	DangerZoneCount     int            `json:"danger_zone_count"`
	DangerHours         float64        `json:"danger_hours"`
	DaysRemaining       float64        `json:"days_remaining"`
	Status              status.Status  `json:"status"`
	DistanceKm          float64        `json:"distance_km"`
	DurationHours       float64        `json:"duration_hours"`
	AvgTemperatureC     float64        `json:"avg_temperature_c"`
	AvgHumidityPct      float64        `json:"avg_humidity_pct"`
	Waypoints           []WaypointRisk `json:"waypoints"`
}

// ModelInfo describes the models serving predictions.
type ModelInfo struct {
	ServiceName string                 `json:"service_name"`
	Version     string                 `json:"version"`
	Models      map[string]interface{} `json:"models"`
	Features    []string               `json:"features"`
}
