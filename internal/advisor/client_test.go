package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"freshlogic/internal/crops"
	"freshlogic/internal/models"
	"freshlogic/internal/status"
)

type scriptedModel struct {
	replies []*genai.GenerateContentResponse
	errs    []error
	prompts []string
}

func (m *scriptedModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	i := len(m.prompts)
	m.prompts = append(m.prompts, string(parts[0].(genai.Text)))
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	var resp *genai.GenerateContentResponse
	if i < len(m.replies) {
		resp = m.replies[i]
	}
	return resp, err
}

func reply(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}}}},
	}
}

func fixture() (crops.CropProfile, *models.AnalysisRecord) {
	chill := 10.0
	profile := crops.CropProfile{Name: "Tomato (Desi)", Category: "vegetable", TempLowC: 12, TempHighC: 15,
		HumidityLowPct: 85, HumidityHighPct: 90, ChillingInjuryC: &chill, ShelfLifeDays: 14}
	summary := &models.RouteRiskSummary{
		CropType: "Tomato (Desi)", OverallRisk: 0.74, Status: status.Critical,
		DistanceKm: 180, DurationHours: 5,
		Waypoints: []models.WaypointRisk{
			{Waypoint: models.Waypoint{Index: 0, TemperatureC: 13, HumidityPct: 88}},
			{Waypoint: models.Waypoint{Index: 1, TemperatureC: 6, HumidityPct: 88, ElapsedHours: 2},
				InDanger: true, DangerReasons: []string{"temperature_below_band", "chilling_injury"},
				Instant: models.InstantRiskResult{EnsembleRisk: 0.81}},
		},
	}
	rec := models.NewAnalysisRecord("sess", models.AnalysisRequest{Origin: "Nashik", Destination: "Pune"}, summary)
	return profile, rec
}

func newTestClient(m generator) *Client {
	return &Client{model: m, logger: zap.NewNop(), modelName: "test", maxRetries: 3, retryDelay: time.Millisecond}
}

func TestBuildPrompt(t *testing.T) {
	profile, rec := fixture()
	p := BuildPrompt(profile, rec, "")
	for _, want := range []string{
		"CROP: Tomato (Desi) (vegetable)",
		"CHILLING INJURY BELOW: 10.0°C",
		"Nashik -> Pune",
		"74.0% (Critical)",
		"#1 at 2.0h: 6.0°C",
		"chilling_injury",
		defaultQuestion,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "#0 at") {
		t.Error("safe checkpoint listed as danger")
	}
	if q := BuildPrompt(profile, rec, "  Can I still sell it?  "); !strings.Contains(q, "USER QUESTION: Can I still sell it?") {
		t.Errorf("question not included:\n%s", q)
	}
}

func TestExplainRetries(t *testing.T) {
	m := &scriptedModel{
		errs:    []error{errors.New("quota"), nil, nil},
		replies: []*genai.GenerateContentResponse{nil, {}, reply("  Chilling at checkpoint 1 drove the risk.  ")},
	}
	profile, rec := fixture()
	got, err := newTestClient(m).Explain(context.Background(), profile, rec, "why?")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Chilling at checkpoint 1 drove the risk." {
		t.Errorf("explanation = %q", got)
	}
	if len(m.prompts) != 3 {
		t.Errorf("attempts = %d, want 3", len(m.prompts))
	}
}

func TestExplainGivesUp(t *testing.T) {
	m := &scriptedModel{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	profile, rec := fixture()
	_, err := newTestClient(m).Explain(context.Background(), profile, rec, "")
	if err == nil || !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Errorf("err = %v", err)
	}
}

func TestExplainStopsOnCancel(t *testing.T) {
	m := &scriptedModel{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	c := newTestClient(m)
	c.retryDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	profile, rec := fixture()
	if _, err := c.Explain(ctx, profile, rec, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}, zap.NewNop()); err == nil {
		t.Error("expected error without api key")
	}
}

func TestGetModelInfo(t *testing.T) {
	info := newTestClient(&scriptedModel{}).GetModelInfo()
	if info["provider"] != "gemini" || info["model"] != "test" || info["max_retries"] != 3 {
		t.Errorf("info = %v", info)
	}
}
