package reference

import (
	"context"
	"math"
	"testing"

	"freshlogic/internal/crops"
	"freshlogic/internal/environment"
	"freshlogic/internal/models"
)

func newModel(t *testing.T) (*Model, *crops.Store) {
	t.Helper()
	s, err := crops.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	return New(s, 0), s
}

func feat(crop string, temp, rh, hours float64) models.Features {
	return models.Features{
		TemperatureC: temp,
		HumidityPct:  rh,
		VPDkPa:       environment.ComputeVPD(temp, rh),
		TransitHours: hours,
		CropType:     crop,
	}
}

func TestStressFactorInsideBand(t *testing.T) {
	_, s := newModel(t)
	p, _ := s.Lookup("Strawberry")
	if got := StressFactor(p, 1, 92, environment.ComputeVPD(1, 92)); got != 1 {
		t.Errorf("stress inside band = %v, want 1", got)
	}
}

func TestStressFactorHeatAndChill(t *testing.T) {
	_, s := newModel(t)
	straw, _ := s.Lookup("Strawberry")
	got := StressFactor(straw, 12, 92, environment.ComputeVPD(12, 92))
	if math.Abs(got-2.3) > 1e-9 {
		t.Errorf("10°C above band = %v, want q10 2.3", got)
	}
	tomato, _ := s.Lookup("Tomato (Desi)")
	// Between the chilling threshold and the band low there is no penalty.
	if got := StressFactor(tomato, 11, 88, environment.ComputeVPD(11, 88)); got != 1 {
		t.Errorf("tomato at 11°C = %v, want 1", got)
	}
	if got := StressFactor(tomato, 8, 88, environment.ComputeVPD(8, 88)); got != 7 {
		t.Errorf("tomato at 8°C = %v, want 7", got)
	}
}

func TestStressFactorMoisture(t *testing.T) {
	_, s := newModel(t)
	onion, _ := s.Lookup("Onion")
	// Condensation above 95% RH.
	if got := StressFactor(onion, 1, 98, environment.ComputeVPD(1, 98)); math.Abs(got-1.3) > 1e-9 {
		t.Errorf("condensation stress = %v, want 1.3", got)
	}
	spinach, _ := s.Lookup("Spinach")
	// Spinach band reaches 100%, so saturation is not penalised.
	if got := StressFactor(spinach, 1, 99, environment.ComputeVPD(1, 99)); got != 1 {
		t.Errorf("spinach at 99%% = %v, want 1", got)
	}
}

func TestRegressAndClassifyMonotonicInTemperature(t *testing.T) {
	m, _ := newModel(t)
	ctx := context.Background()
	prevR, prevP := -1.0, -1.0
	for temp := 2.0; temp <= 40; temp += 2 {
		r, err := m.Regress(ctx, feat("Strawberry", temp, 92, 3))
		if err != nil {
			t.Fatal(err)
		}
		c, err := m.Classify(ctx, feat("Strawberry", temp, 92, 3))
		if err != nil {
			t.Fatal(err)
		}
		if r < prevR || c.Probability < prevP {
			t.Fatalf("risk decreased at %v°C: r=%v p=%v", temp, r, c.Probability)
		}
		if r < 0 || r > 1 || c.Probability < 0 || c.Probability > 1 {
			t.Fatalf("output out of range at %v°C", temp)
		}
		prevR, prevP = r, c.Probability
	}
}

func TestScoresAreIndependentOfElapsedTime(t *testing.T) {
	m, _ := newModel(t)
	ctx := context.Background()
	early, _ := m.Regress(ctx, feat("Mango (Alphonso)", 25, 70, 1))
	late, _ := m.Regress(ctx, feat("Mango (Alphonso)", 25, 70, 200))
	if early != late {
		t.Errorf("regression at 1h %v != at 200h %v", early, late)
	}
	ce, _ := m.Classify(ctx, feat("Mango (Alphonso)", 25, 70, 1))
	cl, _ := m.Classify(ctx, feat("Mango (Alphonso)", 25, 70, 200))
	if ce != cl {
		t.Errorf("classification at 1h %+v != at 200h %+v", ce, cl)
	}
}

func TestInBandRegressionIsOneDayOfShelfLife(t *testing.T) {
	m, _ := newModel(t)
	r, err := m.Regress(context.Background(), feat("Tomato (Desi)", 13, 88, 0))
	if err != nil {
		t.Fatal(err)
	}
	if want := 1 - math.Exp(-1.0/14); math.Abs(r-want) > 1e-12 {
		t.Errorf("regression = %v, want %v", r, want)
	}
}

func TestHorizonScalesRate(t *testing.T) {
	s, err := crops.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	day, _ := New(s, 24).Regress(context.Background(), feat("Tomato (Desi)", 13, 88, 0))
	half, _ := New(s, 12).Regress(context.Background(), feat("Tomato (Desi)", 13, 88, 0))
	if half >= day {
		t.Errorf("12h horizon risk %v not below 24h risk %v", half, day)
	}
}

func TestHotDryStrawberryIsSpoiled(t *testing.T) {
	m, _ := newModel(t)
	c, err := m.Classify(context.Background(), feat("Strawberry", 25, 40, 0))
	if err != nil {
		t.Fatal(err)
	}
	if c.Label != models.LabelSpoiled || c.Probability < 0.9 {
		t.Errorf("classification = %+v", c)
	}
	r, _ := m.Regress(context.Background(), feat("Strawberry", 25, 40, 0))
	if r <= 0.5 {
		t.Errorf("regression = %v, want > 0.5", r)
	}
}

func TestUnknownCrop(t *testing.T) {
	m, _ := newModel(t)
	if _, err := m.Regress(context.Background(), feat("Unicorn Fruit", 5, 90, 1)); err == nil {
		t.Error("expected error from Regress")
	}
	if _, err := m.Classify(context.Background(), feat("Unicorn Fruit", 5, 90, 1)); err == nil {
		t.Error("expected error from Classify")
	}
}

func TestGetModelInfo(t *testing.T) {
	m, _ := newModel(t)
	info, err := m.GetModelInfo(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.ServiceName != "reference" || info.Version != Version {
		t.Errorf("info = %+v", info)
	}
	if h := info.Models["horizon_hours"]; h != DefaultHorizonHours {
		t.Errorf("horizon_hours = %v", h)
	}
}
