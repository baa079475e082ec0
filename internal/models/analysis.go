package models

import (
	"time"

	"freshlogic/internal/status"
)

// AnalysisRequest is the body of POST /api/v1/analyze.
type AnalysisRequest struct {
	SessionID   string     `json:"session_id,omitempty"`
	CropType    string     `json:"crop_type" binding:"required"`
	Origin      string     `json:"origin,omitempty"`
	Destination string     `json:"destination,omitempty"`
	Waypoints   []Waypoint `json:"waypoints" binding:"required,min=1"`
}

// AnalysisRecord is a stored analysis, keyed by session id.
type AnalysisRecord struct {
	ID                  int64             `db:"id" json:"id"`
	SessionID           string            `db:"session_id" json:"session_id"`
	CropType            string            `db:"crop_type" json:"crop_type"`
	Origin              string            `db:"origin" json:"origin,omitempty"`
	Destination         string            `db:"destination" json:"destination,omitempty"`
	OverallRisk         float64           `db:"overall_risk" json:"overall_risk"`
	Status              status.Status     `db:"status" json:"status"`
	DaysRemaining       float64           `db:"days_remaining" json:"days_remaining"`
	DangerZoneCount     int               `db:"danger_zone_count" json:"danger_zone_count"`
	DangerHours         float64           `db:"danger_hours" json:"danger_hours"`
	TemperatureVariance float64           `db:"temperature_variance" json:"temperature_variance"`
	WaypointCount       int               `db:"waypoint_count" json:"waypoint_count"`
	SummaryJSON         string            `db:"summary_json" json:"-"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	Summary             *RouteRiskSummary `db:"-" json:"summary,omitempty"`
}

// NewAnalysisRecord flattens a summary into a record.
func NewAnalysisRecord(sessionID string, req AnalysisRequest, summary *RouteRiskSummary) *AnalysisRecord {
	return &AnalysisRecord{
		SessionID:           sessionID,
		CropType:            summary.CropType,
		Origin:              req.Origin,
		Destination:         req.Destination,
		OverallRisk:         summary.OverallRisk,
		Status:              summary.Status,
		DaysRemaining:       summary.DaysRemaining,
		DangerZoneCount:     summary.DangerZoneCount,
		DangerHours:         summary.DangerHours,
		TemperatureVariance: summary.TemperatureVariance,
		WaypointCount:       len(summary.Waypoints),
		Summary:             summary,
	}
}

// ExplainRequest is the body of POST /api/v1/sessions/:id/explain.
type ExplainRequest struct {
	Question string `json:"question"`
}
