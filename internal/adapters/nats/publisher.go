package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

// Stream and subjects carrying analysis outcomes.
const (
	StreamAnalyses    = "NDVI_ANALYSES"
	SubjectCompleted  = "ndvi.analysis.completed"
	SubjectFailed     = "ndvi.analysis.failed"
	SubjectAllOutcome = "ndvi.analysis.>"
)

// AnalysisEvent is the JSON payload published for every analysis outcome.
type AnalysisEvent struct {
	Type        string              `json:"type"` // completed | failed
	AnalysisID  string              `json:"analysis_id,omitempty"`
	Coordinates domain.SelectedArea `json:"coordinates"`
	StartDate   string              `json:"start_date"`
	EndDate     string              `json:"end_date"`
	MeanNDVI    *float64            `json:"mean_ndvi,omitempty"`
	AreaHa      float64             `json:"area_ha,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	At          time.Time           `json:"at"`
}

// CompletedEvent builds the event for a recorded analysis.
func CompletedEvent(a *domain.Analysis) AnalysisEvent {
	mean := a.MeanNDVI
	return AnalysisEvent{
		Type:        "completed",
		AnalysisID:  a.ID,
		Coordinates: a.Coordinates,
		StartDate:   a.StartDate,
		EndDate:     a.EndDate,
		MeanNDVI:    &mean,
		AreaHa:      a.AreaHa,
		At:          a.CreatedAt,
	}
}

// FailedEvent builds the event for a request the provider could not serve.
func FailedEvent(req *domain.AnalysisRequest, reason string, at time.Time) AnalysisEvent {
	return AnalysisEvent{
		Type:        "failed",
		Coordinates: req.Coordinates,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Reason:      reason,
		At:          at,
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamAnalyses,
		Subjects:  []string{SubjectAllOutcome},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishAnalysisCompleted(ctx context.Context, a *domain.Analysis) error {
	return p.publish(ctx, SubjectCompleted, CompletedEvent(a))
}

func (p *Publisher) PublishAnalysisFailed(ctx context.Context, req *domain.AnalysisRequest, reason string) error {
	return p.publish(ctx, SubjectFailed, FailedEvent(req, reason, time.Now().UTC()))
}

func (p *Publisher) publish(ctx context.Context, subject string, ev AnalysisEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks and relays.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
