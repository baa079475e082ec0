package ensemble

import (
	"context"
	"errors"

	"freshlogic/internal/models"
)

// Regressor is the continuous spoilage model: regress(features) -> [0,1].
type Regressor interface {
	Regress(ctx context.Context, f models.Features) (float64, error)
}

// Classification is the output of a Classifier. Probability is the
// probability of the spoiled class.
type Classification struct {
	Label       models.ClassLabel
	Probability float64
}

// Classifier is the discrete spoilage model.
type Classifier interface {
	Classify(ctx context.Context, f models.Features) (Classification, error)
}

// Signal is one model's opinion on a waypoint.
type Signal struct {
	Score float64
	Label models.ClassLabel
}

// RiskSignal is a predictive signal the ensemble can blend.
type RiskSignal interface {
	Name() string
	Produce(ctx context.Context, f models.Features) (Signal, error)
}

var errNoModel = errors.New("model not loaded")

type regressionSignal struct {
	model Regressor
}

// NewRegressionSignal adapts a Regressor to a RiskSignal.
func NewRegressionSignal(r Regressor) RiskSignal {
	return &regressionSignal{model: r}
}

func (s *regressionSignal) Name() string { return "regression" }

func (s *regressionSignal) Produce(ctx context.Context, f models.Features) (Signal, error) {
	if s.model == nil {
		return Signal{}, errNoModel
	}
	score, err := s.model.Regress(ctx, f)
	if err != nil {
		return Signal{}, err
	}
	return Signal{Score: score, Label: labelFor(score)}, nil
}

type classificationSignal struct {
	model Classifier
}

// NewClassificationSignal adapts a Classifier to a RiskSignal.
func NewClassificationSignal(c Classifier) RiskSignal {
	return &classificationSignal{model: c}
}

func (s *classificationSignal) Name() string { return "classification" }

func (s *classificationSignal) Produce(ctx context.Context, f models.Features) (Signal, error) {
	if s.model == nil {
		return Signal{}, errNoModel
	}
	c, err := s.model.Classify(ctx, f)
	if err != nil {
		return Signal{}, err
	}
	label := c.Label
	if label != models.LabelSpoiled && label != models.LabelSafe {
		label = labelFor(c.Probability)
	}
	return Signal{Score: c.Probability, Label: label}, nil
}

func labelFor(score float64) models.ClassLabel {
	if score >= 0.5 {
		return models.LabelSpoiled
	}
	return models.LabelSafe
}
