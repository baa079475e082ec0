// Package aggregator folds per-waypoint instantaneous risks into the
// cumulative route risk, danger-zone report and shelf-life estimate.
package aggregator

import (
	"errors"
	"fmt"
	"math"

	"freshlogic/internal/crops"
	"freshlogic/internal/models"
	"freshlogic/internal/status"
)

// Danger reasons attached to in-danger waypoints.
const (
	ReasonTooWarm  = "temperature_above_band"
	ReasonTooCold  = "temperature_below_band"
	ReasonChilling = "chilling_injury"
	ReasonTooHumid = "humidity_above_band"
	ReasonTooDry   = "humidity_below_band"
)

// DefaultReferenceHours matches the horizon the reference models score over.
const DefaultReferenceHours = 24.0

// Params are the calibration constants of the fold.
type Params struct {
	// ReferenceHours is the exposure time an instantaneous risk is
	// calibrated against.
	ReferenceHours float64
	// InitialExposureHours is the nominal exposure charged to the first
	// waypoint, whose elapsed delta is always zero.
	InitialExposureHours float64
	// TemperatureToleranceC widens the optimal band before a reading
	// counts as a danger.
	TemperatureToleranceC float64
}

// DefaultParams charges the first waypoint one full reference period, so a
// single-waypoint route reports its instantaneous risk unchanged.
func DefaultParams() Params {
	return Params{
		ReferenceHours:        DefaultReferenceHours,
		InitialExposureHours:  DefaultReferenceHours,
		TemperatureToleranceC: 1.0,
	}
}

// Validate checks the parameters are usable.
func (p Params) Validate() error {
	switch {
	case !(p.ReferenceHours > 0) || math.IsInf(p.ReferenceHours, 0):
		return fmt.Errorf("reference hours must be positive, got %v", p.ReferenceHours)
	case !(p.InitialExposureHours > 0) || math.IsInf(p.InitialExposureHours, 0):
		return fmt.Errorf("initial exposure hours must be positive, got %v", p.InitialExposureHours)
	case !(p.TemperatureToleranceC >= 0) || math.IsInf(p.TemperatureToleranceC, 0):
		return fmt.Errorf("temperature tolerance must be non-negative, got %v", p.TemperatureToleranceC)
	}
	return nil
}

// Observation is one scored waypoint, in route order.
type Observation struct {
	Waypoint models.Waypoint
	VPDkPa   float64
	Instant  models.InstantRiskResult
}

// foldState is carried from one waypoint to the next.
type foldState struct {
	freshness   float64
	cumulative  float64
	prevElapsed float64
	inZone      bool
	zones       int
	dangerHours float64
	minTemp     float64
	maxTemp     float64
	sumTemp     float64
	sumRH       float64
}

// Aggregate folds observations into a summary. Observations must already be
// validated and in route order.
func Aggregate(profile crops.CropProfile, obs []Observation, params Params) (*models.RouteRiskSummary, error) {
	if len(obs) == 0 {
		return nil, errors.New("no observations to aggregate")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	st := foldState{
		freshness: 1,
		minTemp:   math.Inf(1),
		maxTemp:   math.Inf(-1),
	}
	summary := &models.RouteRiskSummary{
		CropType:       profile.Name,
		CumulativeRisk: make([]float64, 0, len(obs)),
		Waypoints:      make([]models.WaypointRisk, 0, len(obs)),
	}

	for i, o := range obs {
		wp := o.Waypoint
		delta := 0.0
		exposure := params.InitialExposureHours
		if i > 0 {
			delta = math.Max(0, wp.ElapsedHours-st.prevElapsed)
			exposure = delta
		}
		st.prevElapsed = wp.ElapsedHours

		st.freshness *= survival(o.Instant.EnsembleRisk, exposure, params.ReferenceHours)
		cum := clamp01(1 - st.freshness)
		if cum < st.cumulative {
			cum = st.cumulative
		}
		st.cumulative = cum

		reasons := DangerReasons(profile, wp.TemperatureC, wp.HumidityPct, params.TemperatureToleranceC)
		inDanger := len(reasons) > 0
		if inDanger {
			if !st.inZone {
				st.zones++
			}
			st.dangerHours += delta
		}
		st.inZone = inDanger

		st.minTemp = math.Min(st.minTemp, wp.TemperatureC)
		st.maxTemp = math.Max(st.maxTemp, wp.TemperatureC)
		st.sumTemp += wp.TemperatureC
		st.sumRH += wp.HumidityPct

		summary.CumulativeRisk = append(summary.CumulativeRisk, cum)
		summary.Waypoints = append(summary.Waypoints, models.WaypointRisk{
			Waypoint:       wp,
			VPDkPa:         o.VPDkPa,
			Instant:        o.Instant,
			DeltaHours:     delta,
			CumulativeRisk: cum,
			InDanger:       inDanger,
			DangerReasons:  reasons,
		})
	}

	last := obs[len(obs)-1].Waypoint
	n := float64(len(obs))
	summary.OverallRisk = st.cumulative
	summary.TemperatureVariance = st.maxTemp - st.minTemp
	summary.DangerZoneCount = st.zones
	summary.DangerHours = st.dangerHours
	summary.DaysRemaining = DaysRemaining(profile, st.cumulative)
	summary.Status = status.FromRisk(st.cumulative)
	summary.DistanceKm = last.DistanceKm
	summary.DurationHours = last.ElapsedHours
	summary.AvgTemperatureC = st.sumTemp / n
	summary.AvgHumidityPct = st.sumRH / n
	return summary, nil
}

// survival is the freshness retained over exposure hours at risk ir per
// reference period: (1-ir)^(exposure/reference).
func survival(ir, exposureHours, referenceHours float64) float64 {
	if exposureHours <= 0 {
		return 1
	}
	if math.IsNaN(ir) {
		ir = 1
	}
	ir = clamp01(ir)
	return math.Pow(1-ir, exposureHours/referenceHours)
}

// DaysRemaining scales the baseline shelf life by the remaining freshness.
func DaysRemaining(profile crops.CropProfile, cumulativeRisk float64) float64 {
	return math.Max(0, profile.ShelfLifeDays*(1-cumulativeRisk))
}

// DangerReasons lists why a reading is outside the crop's safe envelope.
// An empty result means the reading is safe.
func DangerReasons(profile crops.CropProfile, tempC, rhPct, toleranceC float64) []string {
	var reasons []string
	switch {
	case tempC > profile.TempHighC+toleranceC:
		reasons = append(reasons, ReasonTooWarm)
	case tempC < profile.TempLowC-toleranceC:
		reasons = append(reasons, ReasonTooCold)
	}
	if profile.ChillingInjuryC != nil && tempC < *profile.ChillingInjuryC {
		reasons = append(reasons, ReasonChilling)
	}
	switch {
	case rhPct > profile.HumidityHighPct:
		reasons = append(reasons, ReasonTooHumid)
	case rhPct < profile.HumidityLowPct:
		reasons = append(reasons, ReasonTooDry)
	}
	return reasons
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
