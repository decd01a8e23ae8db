package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/regdesk/portalserver/internal/mq"
)

const auditChannel = "user-events"

// Audit event names.
const (
	EventUserRegistered = "user.registered"
	EventUserUpdated    = "user.updated"
	EventUserDeleted    = "user.deleted"
)

// AuditEvent is the payload published for user lifecycle changes.
type AuditEvent struct {
	Event      string    `json:"event"`
	UserID     int       `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditPublisher emits user lifecycle events to the configured broker.
// A nil publisher is valid and drops everything.
type AuditPublisher struct {
	mq *mq.MQ
}

func NewAuditPublisher(broker *mq.MQ) *AuditPublisher {
	if broker == nil {
		return nil
	}
	return &AuditPublisher{mq: broker}
}

// Publish sends the event fire-and-forget. Broker failures are logged
// and never surfaced to the request that triggered them.
func (p *AuditPublisher) Publish(ctx context.Context, event string, userID int, email string) {
	if p == nil {
		return
	}

	payload := AuditEvent{
		Event:      event,
		UserID:     userID,
		Email:      email,
		OccurredAt: time.Now(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("audit: marshal %s: %v", event, err)
		return
	}

	if _, err := p.mq.Publish(ctx, auditChannel, data, map[string]string{"event": event}); err != nil {
		log.Printf("audit: publish %s: %v", event, err)
	}
}

// AuditConsumer tails the user event channel and writes each event to
// the log. It backs the auditlog command.
type AuditConsumer struct {
	mq   *mq.MQ
	logf func(format string, args ...any)
}

func NewAuditConsumer(broker *mq.MQ) *AuditConsumer {
	return &AuditConsumer{mq: broker, logf: log.Printf}
}

// Run blocks consuming events until the subscription ends.
func (c *AuditConsumer) Run(ctx context.Context) error {
	return c.mq.Subscribe(ctx, auditChannel, c.handle)
}

func (c *AuditConsumer) handle(ctx context.Context, msg mq.Message) error {
	var event AuditEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logf("audit: decode message %s: %v", msg.ID, err)
		return nil
	}
	c.logf("audit: %s user=%d email=%s at=%s",
		event.Event, event.UserID, event.Email, event.OccurredAt.Format(time.RFC3339))
	return nil
}
