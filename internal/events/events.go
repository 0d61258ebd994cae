package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// StatusEvent notifies interested consumers that a submission changed state.
type StatusEvent struct {
	SubmissionID  uint      `json:"submission_id"`
	Status        string    `json:"status"`
	OCRGeneration int       `json:"ocr_generation"`
	FailureReason string    `json:"failure_reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher emits submission status events. Publishing is best effort: the
// pipeline never fails a run because an event could not be delivered.
type Publisher interface {
	PublishStatus(ctx context.Context, event StatusEvent) error
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

// PublishStatus implements Publisher.
func (NoopPublisher) PublishStatus(context.Context, StatusEvent) error { return nil }

// NATSPublisher emits status events on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher constructs a publisher bound to the given subject.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSPublisher {
	if subject == "" {
		subject = "writeright.submissions.status"
	}
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "events").Logger(),
	}
}

// PublishStatus implements Publisher.
func (p *NATSPublisher) PublishStatus(_ context.Context, event StatusEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("failed to publish status event")
		return err
	}

	return nil
}
