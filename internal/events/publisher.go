// Package events publishes case lifecycle events to NATS. The mail
// notifier and other downstream consumers subscribe out of process.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/safecase-systems/safecase/internal/config"
	"github.com/safecase-systems/safecase/internal/logging"
	"github.com/safecase-systems/safecase/internal/models"
)

// Subjects for case lifecycle events.
const (
	SubjectIncidentReported = "safecase.incident.reported"
	SubjectCaseCreated      = "safecase.case.created"
	SubjectCaseUpdated      = "safecase.case.updated"
)

// CaseEvent is the payload published on case subjects.
type CaseEvent struct {
	EventID    string    `json:"event_id"`
	CaseID     int64     `json:"case_id"`
	IncidentID int64     `json:"incident_id"`
	StatusID   int64     `json:"status_id"`
	AssignedTo *int64    `json:"assigned_to,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// IncidentEvent is the payload published when an incident is reported.
type IncidentEvent struct {
	EventID    string    `json:"event_id"`
	IncidentID int64     `json:"incident_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher publishes events to NATS. A nil Publisher is valid and
// publishes nothing, so callers need no enabled checks.
type Publisher struct {
	conn   *nats.Conn
	logger *logging.Logger
}

// Connect establishes the NATS connection. Returns nil when events are
// disabled in configuration.
func Connect(cfg config.NATSConfig, logger *logging.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logging.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{conn: conn, logger: logger}, nil
}

// IncidentReported publishes a new incident report event.
func (p *Publisher) IncidentReported(ctx context.Context, inc *models.Incident) {
	p.publish(ctx, SubjectIncidentReported, IncidentEvent{
		EventID:    uuid.New().String(),
		IncidentID: inc.ID,
		Title:      inc.Title,
		OccurredAt: time.Now(),
	})
}

// CaseCreated publishes a case creation event.
func (p *Publisher) CaseCreated(ctx context.Context, c *models.Case) {
	p.publish(ctx, SubjectCaseCreated, caseEvent(c))
}

// CaseUpdated publishes a case mutation event (status change,
// reassignment, resolution notes).
func (p *Publisher) CaseUpdated(ctx context.Context, c *models.Case) {
	p.publish(ctx, SubjectCaseUpdated, caseEvent(c))
}

func caseEvent(c *models.Case) CaseEvent {
	return CaseEvent{
		EventID:    uuid.New().String(),
		CaseID:     c.ID,
		IncidentID: c.IncidentID,
		StatusID:   c.StatusID,
		AssignedTo: c.AssignedTo,
		OccurredAt: time.Now(),
	}
}

// publish marshals and sends the event. Publish failures are logged, not
// surfaced: event delivery must never fail the originating request.
func (p *Publisher) publish(ctx context.Context, subject string, payload any) {
	if p == nil || p.conn == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event", "subject", subject, logging.FieldError, err.Error())
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event", "subject", subject, logging.FieldError, err.Error())
	}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
