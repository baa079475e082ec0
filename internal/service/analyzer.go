package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"freshlogic/internal/crops"
	"freshlogic/internal/events"
	"freshlogic/internal/geo"
	"freshlogic/internal/metrics"
	"freshlogic/internal/models"
	"freshlogic/internal/repository"
	"freshlogic/internal/riskerr"
	"freshlogic/internal/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAdvisorDisabled = errors.New("explanatory advisor is not configured")
)

const publishTimeout = 5 * time.Second

// RouteEngine scores a route for a crop.
type RouteEngine interface {
	AnalyzeRoute(ctx context.Context, cropType string, waypoints []models.Waypoint) (*models.RouteRiskSummary, error)
}

// CropCatalog is the read side of the crop profile store.
type CropCatalog interface {
	Lookup(name string) (crops.CropProfile, bool)
	All() []crops.CropProfile
}

// Explainer produces a natural-language explanation of an analysis.
type Explainer interface {
	Explain(ctx context.Context, profile crops.CropProfile, rec *models.AnalysisRecord, question string) (string, error)
}

// ModelInfoSource describes the predictive models behind the engine.
type ModelInfoSource interface {
	GetModelInfo(ctx context.Context) (*models.ModelInfo, error)
}

type advisorDescriber interface {
	GetModelInfo() map[string]interface{}
}

// Deps are the collaborators of an Analyzer. Advisor may be nil; Publisher
// defaults to events.NopPublisher.
type Deps struct {
	Engine    RouteEngine
	Crops     CropCatalog
	Sessions  *session.Cache[*models.AnalysisRecord]
	Repo      repository.AnalysisRepository
	Publisher events.Publisher
	Advisor   Explainer
	Models    ModelInfoSource
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Analyzer handles route analysis business logic
type Analyzer struct {
	engine    RouteEngine
	crops     CropCatalog
	sessions  *session.Cache[*models.AnalysisRecord]
	repo      repository.AnalysisRepository
	publisher events.Publisher
	advisor   Explainer
	models    ModelInfoSource
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewAnalyzer creates a new analyzer service
func NewAnalyzer(d Deps) *Analyzer {
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewMetrics()
	}
	if d.Sessions == nil {
		d.Sessions = session.New[*models.AnalysisRecord](session.DefaultTTL, d.Metrics)
	}
	return &Analyzer{
		engine:    d.Engine,
		crops:     d.Crops,
		sessions:  d.Sessions,
		repo:      d.Repo,
		publisher: d.Publisher,
		advisor:   d.Advisor,
		models:    d.Models,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
}

// Analyze scores a route, caches the result under a session id, stores it
// and publishes a summary event. Storage and publishing failures are logged
// and do not fail the analysis.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisRecord, error) {
	start := time.Now()
	waypoints := geo.FillDistances(models.NumberWaypoints(req.Waypoints))

	summary, err := a.engine.AnalyzeRoute(ctx, req.CropType, waypoints)
	if err != nil {
		a.metrics.ObserveFailure(err)
		a.logger.Info("Route analysis rejected",
			zap.String("crop", req.CropType),
			zap.String("kind", string(riskerr.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	rec := models.NewAnalysisRecord(a.sessions.Resolve(req.SessionID), req, summary)
	rec.CreatedAt = time.Now().UTC()

	if a.repo != nil {
		if err := a.repo.Save(ctx, rec); err != nil {
			a.logger.Error("Failed to store analysis", zap.String("session_id", rec.SessionID), zap.Error(err))
		}
	}
	// rec is shared with concurrent readers from here on and must not change.
	a.sessions.Put(rec.SessionID, rec)

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := a.publisher.Publish(pubCtx, events.NewSummaryEvent(rec)); err != nil {
		a.metrics.PublishError()
		a.logger.Warn("Failed to publish summary event", zap.String("session_id", rec.SessionID), zap.Error(err))
	}

	a.metrics.ObserveAnalysis(summary.Status, summary.OverallRisk, len(summary.Waypoints), time.Since(start))
	a.logger.Info("Route analyzed",
		zap.String("session_id", rec.SessionID),
		zap.String("crop", summary.CropType),
		zap.Int("waypoints", len(summary.Waypoints)),
		zap.Float64("overall_risk", summary.OverallRisk),
		zap.String("status", string(summary.Status)),
		zap.Int("danger_zones", summary.DangerZoneCount))
	return rec, nil
}

// Session returns the latest analysis of a session, from the cache or the
// repository.
func (a *Analyzer) Session(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	if rec, ok := a.sessions.Get(id); ok && rec != nil {
		return rec, nil
	}
	if a.repo == nil {
		return nil, ErrSessionNotFound
	}
	rec, err := a.repo.GetBySession(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// History lists recent analyses, newest first.
func (a *Analyzer) History(ctx context.Context, limit int) ([]*models.AnalysisRecord, error) {
	if a.repo == nil {
		return []*models.AnalysisRecord{}, nil
	}
	return a.repo.List(ctx, limit)
}

// Explain asks the advisor about a session's latest analysis.
func (a *Analyzer) Explain(ctx context.Context, sessionID, question string) (string, error) {
	if a.advisor == nil {
		return "", ErrAdvisorDisabled
	}
	rec, err := a.Session(ctx, sessionID)
	if err != nil {
		return "", err
	}
	profile, ok := a.crops.Lookup(rec.CropType)
	if !ok {
		return "", &riskerr.UnknownCropError{Crop: rec.CropType}
	}
	text, err := a.advisor.Explain(ctx, profile, rec, question)
	if err != nil {
		return "", fmt.Errorf("explain session %s: %w", sessionID, err)
	}
	return text, nil
}

// Crops lists every supported crop profile.
func (a *Analyzer) Crops() []crops.CropProfile {
	return a.crops.All()
}

// Crop returns one crop profile by name.
func (a *Analyzer) Crop(name string) (crops.CropProfile, error) {
	p, ok := a.crops.Lookup(name)
	if !ok {
		return crops.CropProfile{}, &riskerr.UnknownCropError{Crop: name}
	}
	return p, nil
}

// AdvisorEnabled reports whether Explain can be used.
func (a *Analyzer) AdvisorEnabled() bool {
	return a.advisor != nil
}

// ModelInfo describes the models in use. It returns nil when none were
// registered.
func (a *Analyzer) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	if a.models == nil {
		return nil, nil
	}
	return a.models.GetModelInfo(ctx)
}

// AdvisorInfo describes the advisor, or returns nil when it is disabled.
func (a *Analyzer) AdvisorInfo() map[string]interface{} {
	if d, ok := a.advisor.(advisorDescriber); ok {
		return d.GetModelInfo()
	}
	if a.advisor != nil {
		return map[string]interface{}{}
	}
	return nil
}
