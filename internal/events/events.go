// Package events is the injected observability collaborator: core services
// emit structured domain events through a Publisher instead of interleaving
// ad-hoc log calls with business logic.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event names emitted by the core services.
const (
	ProfileCreated   = "profile.created"
	GiftCodeRedeemed = "giftcode.redeemed"
	PlanSelected     = "plan.selected"
)

// Event is a structured domain event.
type Event struct {
	Name   string                 `json:"name"`
	UserID string                 `json:"user_id"`
	At     time.Time              `json:"at"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// Publisher publishes domain events. Implementations must be safe for
// concurrent use. Publish failures are the publisher's problem to report;
// business flows never fail because an event could not be delivered.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher writes events to the structured log. It is the default
// publisher when no message queue is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a Publisher backed by the given zap logger.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event at info level.
func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.logger.Info("domain event",
		zap.String("event", event.Name),
		zap.String("user_id", event.UserID),
		zap.Time("at", event.At),
		zap.Any("fields", event.Fields),
	)
	return nil
}
