package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"freshlogic/internal/models"
)

// ErrNotFound is returned when no analysis matches the lookup.
var ErrNotFound = errors.New("analysis not found")

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// AnalysisRepository stores completed route analyses.
type AnalysisRepository interface {
	Save(ctx context.Context, rec *models.AnalysisRecord) error
	GetBySession(ctx context.Context, sessionID string) (*models.AnalysisRecord, error)
	List(ctx context.Context, limit int) ([]*models.AnalysisRecord, error)
}

type analysisRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAnalysisRepository works on both SQLite and PostgreSQL connections.
func NewAnalysisRepository(db *sqlx.DB, logger *zap.Logger) AnalysisRepository {
	return &analysisRepository{db: db, logger: logger}
}

const analysisColumns = `id, session_id, crop_type, origin, destination, overall_risk, status,
	days_remaining, danger_zone_count, danger_hours, temperature_variance, waypoint_count,
	summary_json, created_at`

// Save inserts rec and sets its ID, CreatedAt and SummaryJSON.
func (r *analysisRepository) Save(ctx context.Context, rec *models.AnalysisRecord) error {
	if !rec.Status.Valid() {
		return fmt.Errorf("refusing to save analysis with status %q", rec.Status)
	}
	if rec.Summary != nil {
		data, err := json.Marshal(rec.Summary)
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		rec.SummaryJSON = string(data)
	}
	if rec.SummaryJSON == "" {
		rec.SummaryJSON = "{}"
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO analyses (
			session_id, crop_type, origin, destination, overall_risk, status,
			days_remaining, danger_zone_count, danger_hours, temperature_variance,
			waypoint_count, summary_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		rec.SessionID,
		rec.CropType,
		rec.Origin,
		rec.Destination,
		rec.OverallRisk,
		string(rec.Status),
		rec.DaysRemaining,
		rec.DangerZoneCount,
		rec.DangerHours,
		rec.TemperatureVariance,
		rec.WaypointCount,
		rec.SummaryJSON,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	r.logger.Debug("Analysis saved",
		zap.Int64("id", rec.ID),
		zap.String("session_id", rec.SessionID))
	return nil
}

// GetBySession returns the most recent analysis of a session.
func (r *analysisRepository) GetBySession(ctx context.Context, sessionID string) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	query := r.db.Rebind(`SELECT ` + analysisColumns + ` FROM analyses
		WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err := r.db.GetContext(ctx, &rec, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	if err := decodeSummary(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns the latest analyses, newest first. Summaries are not decoded.
func (r *analysisRepository) List(ctx context.Context, limit int) ([]*models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := r.db.Rebind(`SELECT ` + analysisColumns + ` FROM analyses
		ORDER BY created_at DESC, id DESC LIMIT ?`)
	var records []*models.AnalysisRecord
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return records, nil
}

func decodeSummary(rec *models.AnalysisRecord) error {
	if rec.SummaryJSON == "" || rec.SummaryJSON == "{}" {
		return nil
	}
	var summary models.RouteRiskSummary
	if err := json.Unmarshal([]byte(rec.SummaryJSON), &summary); err != nil {
		return fmt.Errorf("failed to decode stored summary: %w", err)
	}
	rec.Summary = &summary
	return nil
}
