package aggregator

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"freshlogic/internal/crops"
	"freshlogic/internal/models"
	"freshlogic/internal/status"
)

func strawberry() crops.CropProfile {
	return crops.CropProfile{
		Name: "Strawberry", TempLowC: 0, TempHighC: 2,
		HumidityLowPct: 90, HumidityHighPct: 95, ShelfLifeDays: 7, Q10: 2.3,
	}
}

func tomato() crops.CropProfile {
	chill := 10.0
	return crops.CropProfile{
		Name: "Tomato (Desi)", TempLowC: 12, TempHighC: 15,
		HumidityLowPct: 85, HumidityHighPct: 90, ChillingInjuryC: &chill, ShelfLifeDays: 14, Q10: 2.2,
	}
}

func obs(elapsed, temp, rh, risk float64) Observation {
	return Observation{
		Waypoint: models.Waypoint{TemperatureC: temp, HumidityPct: rh, ElapsedHours: elapsed, DistanceKm: elapsed * 50},
		Instant:  models.InstantRiskResult{EnsembleRisk: risk, Confidence: 1},
	}
}

func indexed(in []Observation) []Observation {
	for i := range in {
		in[i].Waypoint.Index = i
	}
	return in
}

func TestSingleWaypointKeepsInstantRisk(t *testing.T) {
	s, err := Aggregate(strawberry(), []Observation{obs(0, 25, 40, 0.88)}, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.OverallRisk-0.88) > 1e-12 {
		t.Errorf("overall = %v, want 0.88", s.OverallRisk)
	}
	if s.DangerZoneCount != 1 {
		t.Errorf("zones = %d, want 1", s.DangerZoneCount)
	}
	if s.DangerHours != 0 {
		t.Errorf("danger hours = %v, want 0", s.DangerHours)
	}
	if s.Status != status.Critical {
		t.Errorf("status = %s", s.Status)
	}
	if s.TemperatureVariance != 0 {
		t.Errorf("variance = %v", s.TemperatureVariance)
	}
}

func TestSingleSafeWaypointHasNoZone(t *testing.T) {
	s, err := Aggregate(strawberry(), []Observation{obs(0, 1, 92, 0.01)}, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if s.DangerZoneCount != 0 || s.Waypoints[0].InDanger {
		t.Errorf("unexpected danger: %+v", s.Waypoints[0])
	}
}

func TestFirstWaypointDoesNotVanish(t *testing.T) {
	route := indexed([]Observation{obs(0, 25, 40, 0.9), obs(1, 1, 92, 0), obs(2, 1, 92, 0)})
	s, err := Aggregate(strawberry(), route, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if s.CumulativeRisk[0] < 0.89 {
		t.Errorf("initial bad reading lost: %v", s.CumulativeRisk)
	}
}

func TestCumulativeIsMonotonicAndBounded(t *testing.T) {
	risks := []float64{0.1, 0.9, 0, 0.5, 1, 0.2, 0.3}
	var route []Observation
	for i, r := range risks {
		route = append(route, obs(float64(i)*3, 5, 90, r))
	}
	s, err := Aggregate(strawberry(), indexed(route), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range s.CumulativeRisk {
		if c < 0 || c > 1 {
			t.Fatalf("cumulative[%d] = %v out of range", i, c)
		}
		if i > 0 && c < s.CumulativeRisk[i-1] {
			t.Fatalf("cumulative decreased at %d: %v", i, s.CumulativeRisk)
		}
	}
	if s.OverallRisk != s.CumulativeRisk[len(risks)-1] {
		t.Errorf("overall %v != last cumulative", s.OverallRisk)
	}
	if s.OverallRisk != 1 || s.DaysRemaining != 0 {
		t.Errorf("certain spoilage should saturate: overall %v days %v", s.OverallRisk, s.DaysRemaining)
	}
}

func TestSurvivalCompounding(t *testing.T) {
	p := DefaultParams()
	// Two 12h legs at 0.5 per 24h compound to the same as one 24h leg.
	route := indexed([]Observation{obs(0, 1, 92, 0), obs(12, 1, 92, 0.5), obs(24, 1, 92, 0.5)})
	s, err := Aggregate(strawberry(), route, p)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.OverallRisk-0.5) > 1e-12 {
		t.Errorf("overall = %v, want 0.5", s.OverallRisk)
	}
	if math.Abs(s.DaysRemaining-3.5) > 1e-9 {
		t.Errorf("days = %v, want 3.5", s.DaysRemaining)
	}
}

func TestLongLowRiskRouteDoesNotSaturate(t *testing.T) {
	var route []Observation
	for i := 0; i < 200; i++ {
		route = append(route, obs(float64(i), 1, 92, 0.01))
	}
	s, err := Aggregate(strawberry(), indexed(route), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	// 199h at 1% per 24h plus the initial period: 1-0.99^(1+199/24).
	want := 1 - math.Pow(0.99, 1+199.0/24)
	if math.Abs(s.OverallRisk-want) > 1e-9 {
		t.Errorf("overall = %v, want %v", s.OverallRisk, want)
	}
	if s.OverallRisk > 0.1 {
		t.Errorf("low risk route saturated to %v", s.OverallRisk)
	}
}

func TestZeroDeltaAddsNothing(t *testing.T) {
	route := indexed([]Observation{obs(0, 1, 92, 0.1), obs(0, 1, 92, 0.99)})
	s, err := Aggregate(strawberry(), route, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if s.CumulativeRisk[1] != s.CumulativeRisk[0] {
		t.Errorf("zero-time waypoint changed risk: %v", s.CumulativeRisk)
	}
}

func TestDangerZones(t *testing.T) {
	route := indexed([]Observation{
		obs(0, 1, 92, 0),   // safe
		obs(1, 8, 92, 0),   // warm, zone 1 starts (+1h)
		obs(3, 9, 92, 0),   // warm (+2h)
		obs(4, 1, 92, 0),   // safe
		obs(6, 1, 80, 0),   // dry, zone 2 (+2h)
		obs(6.5, 1, 92, 0), // safe
		obs(7, -3, 92, 0),  // cold, zone 3 (+0.5h)
	})
	s, err := Aggregate(strawberry(), route, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if s.DangerZoneCount != 3 {
		t.Errorf("zones = %d, want 3", s.DangerZoneCount)
	}
	if math.Abs(s.DangerHours-5.5) > 1e-12 {
		t.Errorf("danger hours = %v, want 5.5", s.DangerHours)
	}
	var flags []bool
	for _, w := range s.Waypoints {
		flags = append(flags, w.InDanger)
	}
	want := []bool{false, true, true, false, true, false, true}
	if diff := cmp.Diff(want, flags); diff != "" {
		t.Errorf("danger flags mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{ReasonTooDry}, s.Waypoints[4].DangerReasons); diff != "" {
		t.Errorf("reasons mismatch:\n%s", diff)
	}
	if s.TemperatureVariance != 12 {
		t.Errorf("variance = %v, want 12", s.TemperatureVariance)
	}
}

func TestDangerReasons(t *testing.T) {
	tests := []struct {
		name    string
		profile crops.CropProfile
		temp    float64
		rh      float64
		tol     float64
		want    []string
	}{
		{"inside band", strawberry(), 1, 92, 1, nil},
		{"within tolerance", strawberry(), 2.9, 92, 1, nil},
		{"beyond tolerance", strawberry(), 3.1, 92, 1, []string{ReasonTooWarm}},
		{"zero tolerance", strawberry(), 2.1, 92, 0, []string{ReasonTooWarm}},
		{"cold", strawberry(), -1.5, 92, 1, []string{ReasonTooCold}},
		{"humid", strawberry(), 1, 97, 1, []string{ReasonTooHumid}},
		{"hot and dry", strawberry(), 25, 40, 1, []string{ReasonTooWarm, ReasonTooDry}},
		{"chilling inside tolerance", tomato(), 11.5, 88, 2, nil},
		{"chilling", tomato(), 9.5, 88, 3, []string{ReasonChilling}},
		{"cold and chilling", tomato(), 8, 88, 1, []string{ReasonTooCold, ReasonChilling}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DangerReasons(tt.profile, tt.temp, tt.rh, tt.tol)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DangerReasons mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSpikeStepsThenFlattens(t *testing.T) {
	route := indexed([]Observation{
		obs(0, 1, 92, 0.003),
		obs(1, 1, 92, 0.006),
		obs(1.5, 22, 92, 0.75),
		obs(2.5, 1, 92, 0.012),
		obs(3.5, 1, 92, 0.015),
	})
	s, err := Aggregate(strawberry(), route, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	c := s.CumulativeRisk
	step := c[2] - c[1]
	if step < 0.02 {
		t.Errorf("spike step %v too small: %v", step, c)
	}
	for i := 3; i < len(c); i++ {
		inc := c[i] - c[i-1]
		if inc < 0 {
			t.Fatalf("cumulative healed at %d: %v", i, c)
		}
		if inc*10 > step {
			t.Errorf("post-spike growth %v not much slower than spike %v", inc, step)
		}
	}
	if s.DangerZoneCount != 1 || s.DangerHours != 0.5 {
		t.Errorf("zones %d hours %v", s.DangerZoneCount, s.DangerHours)
	}
}

func TestRouteDescriptors(t *testing.T) {
	route := indexed([]Observation{obs(0, 2, 90, 0), obs(2, 4, 94, 0)})
	s, err := Aggregate(strawberry(), route, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if s.DistanceKm != 100 || s.DurationHours != 2 || s.AvgTemperatureC != 3 || s.AvgHumidityPct != 92 {
		t.Errorf("descriptors = %v %v %v %v", s.DistanceKm, s.DurationHours, s.AvgTemperatureC, s.AvgHumidityPct)
	}
	if s.Waypoints[1].DeltaHours != 2 {
		t.Errorf("delta = %v", s.Waypoints[1].DeltaHours)
	}
}

func TestAggregateRejectsBadInput(t *testing.T) {
	if _, err := Aggregate(strawberry(), nil, DefaultParams()); err == nil {
		t.Error("expected error for empty input")
	}
	bad := DefaultParams()
	bad.ReferenceHours = 0
	if _, err := Aggregate(strawberry(), []Observation{obs(0, 1, 92, 0)}, bad); err == nil {
		t.Error("expected error for zero reference hours")
	}
	bad = DefaultParams()
	bad.TemperatureToleranceC = math.NaN()
	if err := bad.Validate(); err == nil {
		t.Error("expected error for NaN tolerance")
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	route := indexed([]Observation{obs(0, 3, 91, 0.2), obs(2, 7, 85, 0.4), obs(5, 1, 93, 0.1)})
	a, err := Aggregate(strawberry(), route, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Aggregate(strawberry(), route, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("non-deterministic aggregation:\n%s", diff)
	}
}
