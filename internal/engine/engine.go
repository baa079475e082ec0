// Package engine implements route analysis: validation, per-waypoint
// prediction and aggregation into a route summary.
package engine

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"freshlogic/internal/aggregator"
	"freshlogic/internal/ensemble"
	"freshlogic/internal/environment"
	"freshlogic/internal/models"
	"freshlogic/internal/riskerr"
)

// Predictor scores one feature vector.
type Predictor interface {
	Predict(ctx context.Context, f models.Features) (models.InstantRiskResult, error)
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	crops       ensemble.CropLookup
	predictor   Predictor
	params      aggregator.Params
	parallelism int
	logger      *zap.Logger
}

// New creates an engine. A non-positive parallelism uses GOMAXPROCS.
func New(store ensemble.CropLookup, predictor Predictor, params aggregator.Params, parallelism int, logger *zap.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid aggregation params: %w", err)
	}
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		crops:       store,
		predictor:   predictor,
		params:      params,
		parallelism: parallelism,
		logger:      logger,
	}, nil
}

// AnalyzeRoute scores every waypoint for cropType and folds the scores into a
// route summary. Any waypoint failure fails the whole call.
func (e *Engine) AnalyzeRoute(ctx context.Context, cropType string, waypoints []models.Waypoint) (*models.RouteRiskSummary, error) {
	profile, ok := e.crops.Lookup(cropType)
	if !ok {
		return nil, &riskerr.UnknownCropError{Crop: cropType}
	}
	if err := ValidateWaypoints(waypoints); err != nil {
		return nil, err
	}

	obs := make([]aggregator.Observation, len(waypoints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, wp := range waypoints {
		g.Go(func() error {
			vpd := environment.ComputeVPD(wp.TemperatureC, wp.HumidityPct)
			if !environment.ValidVPD(vpd) {
				return &riskerr.InvalidWaypointSequenceError{Index: i, Field: "humidity_pct", Reason: "cannot derive vapor pressure deficit"}
			}
			res, err := e.predictor.Predict(gctx, models.Features{
				TemperatureC: wp.TemperatureC,
				HumidityPct:  wp.HumidityPct,
				VPDkPa:       vpd,
				TransitHours: wp.ElapsedHours,
				CropType:     profile.Name,
			})
			if err != nil {
				return fmt.Errorf("waypoint %d: %w", i, err)
			}
			obs[i] = aggregator.Observation{Waypoint: wp, VPDkPa: vpd, Instant: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Warn("route prediction failed",
			zap.String("crop", profile.Name),
			zap.Int("waypoints", len(waypoints)),
			zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary, err := aggregator.Aggregate(profile, obs, e.params)
	if err != nil {
		return nil, fmt.Errorf("aggregate route: %w", err)
	}
	e.logger.Debug("route analyzed",
		zap.String("crop", profile.Name),
		zap.Int("waypoints", len(waypoints)),
		zap.Float64("overall_risk", summary.OverallRisk),
		zap.String("status", string(summary.Status)))
	return summary, nil
}

// ValidateWaypoints checks the ordering and range rules of a route.
func ValidateWaypoints(waypoints []models.Waypoint) error {
	if len(waypoints) == 0 {
		return &riskerr.InvalidWaypointSequenceError{Index: -1, Reason: "route has no waypoints"}
	}
	for i, wp := range waypoints {
		if wp.Index != i {
			return &riskerr.InvalidWaypointSequenceError{Index: i, Field: "index", Reason: fmt.Sprintf("sequence index %d does not match position", wp.Index)}
		}
		for _, f := range []struct {
			name string
			v    float64
		}{
			{"lat", wp.Lat},
			{"lon", wp.Lon},
			{"temperature_c", wp.TemperatureC},
			{"humidity_pct", wp.HumidityPct},
			{"distance_km", wp.DistanceKm},
			{"elapsed_hours", wp.ElapsedHours},
		} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
				return &riskerr.InvalidWaypointSequenceError{Index: i, Field: f.name, Reason: "not a finite number"}
			}
		}
		switch {
		case wp.Lat < -90 || wp.Lat > 90:
			return &riskerr.InvalidWaypointSequenceError{Index: i, Field: "lat", Reason: "latitude out of range"}
		case wp.Lon < -180 || wp.Lon > 180:
			return &riskerr.InvalidWaypointSequenceError{Index: i, Field: "lon", Reason: "longitude out of range"}
		case wp.HumidityPct < 0 || wp.HumidityPct > 100:
			return &riskerr.InvalidWaypointSequenceError{Index: i, Field: "humidity_pct", Reason: "humidity must be within 0-100"}
		case wp.ElapsedHours < 0:
			return &riskerr.InvalidWaypointSequenceError{Index: i, Field: "elapsed_hours", Reason: "elapsed time is negative"}
		case wp.DistanceKm < 0:
			return &riskerr.InvalidWaypointSequenceError{Index: i, Field: "distance_km", Reason: "distance is negative"}
		}
		if i == 0 {
			continue
		}
		prev := waypoints[i-1]
		if wp.ElapsedHours < prev.ElapsedHours {
			return &riskerr.InvalidWaypointSequenceError{Index: i, Field: "elapsed_hours", Reason: "elapsed time decreases"}
		}
		if wp.DistanceKm < prev.DistanceKm {
			return &riskerr.InvalidWaypointSequenceError{Index: i, Field: "distance_km", Reason: "distance decreases"}
		}
	}
	return nil
}
