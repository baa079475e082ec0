// Package reference implements the frozen spoilage models as deterministic
// closed-form functions of the same physics the training data was generated
// from: Q10 temperature acceleration, chilling injury, and desiccation or
// condensation penalties.
package reference

import (
	"context"
	"fmt"
	"math"

	"freshlogic/internal/crops"
	"freshlogic/internal/ensemble"
	"freshlogic/internal/models"
)

// DefaultHorizonHours is the exposure window a single reading is scored over.
// Scores are a per-horizon rate; accumulating exposure along a route is left
// to the aggregator.
const DefaultHorizonHours = 24.0

// Version identifies the physics the reference models implement.
const Version = "q10-v2"

const (
	dryVPDkPa          = 1.5
	dryPenalty         = 1.2
	condensationRH     = 95.0
	condensationFactor = 1.3
	chillPenaltyPerC   = 3.0
	classSteepness     = 10.0
)

// Model implements both ensemble.Regressor and ensemble.Classifier.
type Model struct {
	crops        ensemble.CropLookup
	horizonHours float64
}

// New creates the reference model. A non-positive horizon falls back to
// DefaultHorizonHours.
func New(store ensemble.CropLookup, horizonHours float64) *Model {
	if horizonHours <= 0 {
		horizonHours = DefaultHorizonHours
	}
	return &Model{crops: store, horizonHours: horizonHours}
}

// Regress returns 1-exp(-consumed), the continuous spoilage probability.
func (m *Model) Regress(_ context.Context, f models.Features) (float64, error) {
	consumed, err := m.consumed(f)
	if err != nil {
		return 0, err
	}
	return 1 - math.Exp(-consumed), nil
}

// Classify returns a logistic spoiled-class probability centred on half the
// shelf life consumed.
func (m *Model) Classify(_ context.Context, f models.Features) (ensemble.Classification, error) {
	consumed, err := m.consumed(f)
	if err != nil {
		return ensemble.Classification{}, err
	}
	p := 1 / (1 + math.Exp(-classSteepness*(consumed-0.5)))
	label := models.LabelSafe
	if p >= 0.5 {
		label = models.LabelSpoiled
	}
	return ensemble.Classification{Label: label, Probability: p}, nil
}

// GetModelInfo describes the reference models.
func (m *Model) GetModelInfo(context.Context) (*models.ModelInfo, error) {
	return &models.ModelInfo{
		ServiceName: "reference",
		Version:     Version,
		Models: map[string]interface{}{
			"regression":     "1-exp(-consumed)",
			"classification": "logistic(consumed)",
			"horizon_hours":  m.horizonHours,
		},
		Features: []string{"temperature_c", "humidity_percent", "vpd_kpa", "crop_type"},
	}, nil
}

// consumed is the fraction of baseline shelf life one horizon of exposure to
// the reading uses up. TransitHours is not used: the time already spent on
// the route is charged by the aggregator's fold.
func (m *Model) consumed(f models.Features) (float64, error) {
	profile, ok := m.crops.Lookup(f.CropType)
	if !ok {
		return 0, fmt.Errorf("no profile for crop %q", f.CropType)
	}
	stress := StressFactor(profile, f.TemperatureC, f.HumidityPct, f.VPDkPa)
	days := (m.horizonHours / 24) * stress
	return days / profile.ShelfLifeDays, nil
}

// StressFactor is the decay rate relative to storage at optimal conditions.
func StressFactor(p crops.CropProfile, tempC, rhPct, vpd float64) float64 {
	thermal := 1.0
	threshold := p.TempLowC
	if p.ChillingInjuryC != nil {
		threshold = *p.ChillingInjuryC
	}
	switch {
	case tempC > p.TempHighC:
		thermal = math.Pow(p.Q10, (tempC-p.TempHighC)/10)
	case tempC < threshold:
		thermal = 1 + chillPenaltyPerC*(threshold-tempC)
	}

	moisture := 1.0
	switch {
	case vpd > dryVPDkPa:
		moisture *= dryPenalty
	case rhPct > math.Max(condensationRH, p.HumidityHighPct):
		moisture *= condensationFactor
	}
	if rhPct < p.HumidityLowPct {
		moisture *= 1 + (p.HumidityLowPct-rhPct)/100
	}
	return thermal * moisture
}
