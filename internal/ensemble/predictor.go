// Package ensemble combines the regression and classification signals into
// one instantaneous spoilage risk per waypoint.
package ensemble

import (
	"context"
	"fmt"
	"math"

	"freshlogic/internal/crops"
	"freshlogic/internal/models"
	"freshlogic/internal/riskerr"
)

// CropLookup is the read side of the crop profile store.
type CropLookup interface {
	Lookup(name string) (crops.CropProfile, bool)
}

// Predictor blends two risk signals. It holds no per-call state and is safe
// for concurrent use.
type Predictor struct {
	crops          CropLookup
	regression     RiskSignal
	classification RiskSignal
}

// NewPredictor creates a predictor over the given signals.
func NewPredictor(store CropLookup, regression, classification RiskSignal) *Predictor {
	return &Predictor{
		crops:          store,
		regression:     regression,
		classification: classification,
	}
}

// Predict returns the ensemble judgment for one feature vector.
func (p *Predictor) Predict(ctx context.Context, f models.Features) (models.InstantRiskResult, error) {
	if _, ok := p.crops.Lookup(f.CropType); !ok {
		return models.InstantRiskResult{}, &riskerr.UnknownCropError{Crop: f.CropType}
	}

	r, err := produce(ctx, p.regression, "regression", f)
	if err != nil {
		return models.InstantRiskResult{}, err
	}
	c, err := produce(ctx, p.classification, "classification", f)
	if err != nil {
		return models.InstantRiskResult{}, err
	}

	risk, confidence := Blend(r.Score, c.Score)
	return models.InstantRiskResult{
		RegressionScore:  r.Score,
		ClassLabel:       c.Label,
		ClassProbability: c.Score,
		EnsembleRisk:     risk,
		Confidence:       confidence,
	}, nil
}

func produce(ctx context.Context, s RiskSignal, name string, f models.Features) (Signal, error) {
	if s == nil {
		return Signal{}, &riskerr.ModelUnavailableError{Model: name, Err: errNoModel}
	}
	out, err := s.Produce(ctx, f)
	if err != nil {
		return Signal{}, &riskerr.ModelUnavailableError{Model: s.Name(), Err: err}
	}
	if math.IsNaN(out.Score) || math.IsInf(out.Score, 0) {
		return Signal{}, &riskerr.ModelUnavailableError{
			Model: s.Name(),
			Err:   fmt.Errorf("non-finite output %v", out.Score),
		}
	}
	out.Score = clamp01(out.Score)
	return out, nil
}

// Blend combines a regression score r and a spoiled-class probability p.
// Agreement a = 1-|r-p| is returned as confidence; the risk is the mean of
// the two weighted by a plus max(r,p) weighted by 1-a, so disagreement leans
// toward the higher estimate.
func Blend(r, p float64) (risk, confidence float64) {
	if r == p {
		return r, 1
	}
	a := 1 - math.Abs(r-p)
	risk = a*((r+p)/2) + (1-a)*math.Max(r, p)
	return clamp01(risk), clamp01(a)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
