// Package events publishes completed route analyses to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"freshlogic/internal/models"
	"freshlogic/internal/status"
)

// SummaryEvent is the message value written for each analysis.
type SummaryEvent struct {
	SessionID       string        `json:"session_id"`
	CropType        string        `json:"crop_type"`
	Origin          string        `json:"origin,omitempty"`
	Destination     string        `json:"destination,omitempty"`
	OverallRisk     float64       `json:"overall_risk"`
	Status          status.Status `json:"status"`
	DaysRemaining   float64       `json:"days_remaining"`
	DangerZoneCount int           `json:"danger_zone_count"`
	DangerHours     float64       `json:"danger_hours"`
	WaypointCount   int           `json:"waypoint_count"`
	AnalyzedAt      time.Time     `json:"analyzed_at"`
}

// NewSummaryEvent builds the event for a stored record.
func NewSummaryEvent(rec *models.AnalysisRecord) SummaryEvent {
	return SummaryEvent{
		SessionID:       rec.SessionID,
		CropType:        rec.CropType,
		Origin:          rec.Origin,
		Destination:     rec.Destination,
		OverallRisk:     rec.OverallRisk,
		Status:          rec.Status,
		DaysRemaining:   rec.DaysRemaining,
		DangerZoneCount: rec.DangerZoneCount,
		DangerHours:     rec.DangerHours,
		WaypointCount:   rec.WaypointCount,
		AnalyzedAt:      rec.CreatedAt,
	}
}

// Publisher emits summary events.
type Publisher interface {
	Publish(ctx context.Context, ev SummaryEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, SummaryEvent) error { return nil }
func (NopPublisher) Close() error                                { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by session id, so all analyses of one
// session land on the same partition.
type KafkaPublisher struct {
	w      messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	logger.Info("kafka publisher wired", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return &KafkaPublisher{w: w, topic: topic, logger: logger}
}

// Publish writes one event.
func (p *KafkaPublisher) Publish(ctx context.Context, ev SummaryEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.SessionID),
		Value: value,
		Time:  ev.AnalyzedAt,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
