package service

import (
	"context"
	"encoding/json"
	"time"

	"excentrica/internal/logger"
	"excentrica/internal/messaging"
	"excentrica/internal/models"
	"excentrica/internal/repository"
)

type Services struct {
	Registrations *RegistrationService
	Approvals     *ApprovalService
	Sorteos       *DrawingService
	Activity      *ActivityService
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for deadlines and timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func NewServices(repos *repository.Repositories, publisher messaging.Publisher, index ActivityIndex, opts ...Option) *Services {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Services{
		Registrations: NewRegistrationService(repos, publisher, o.now),
		Approvals:     NewApprovalService(repos, publisher, o.now),
		Sorteos:       NewDrawingService(repos, publisher, o.now),
		Activity:      NewActivityService(repos.ActivityLogs, index),
	}
}

// eventPublisher sends domain events and activity entries after a commit.
// Failures are logged and never returned to the caller.
type eventPublisher struct {
	publisher messaging.Publisher
	now       func() time.Time
}

func (p *eventPublisher) publish(ctx context.Context, subject string, payload interface{}) {
	if err := p.publisher.Publish(subject, payload); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event", "error", err, "event_type", subject)
	}
}

func (p *eventPublisher) activity(ctx context.Context, actorID int64, action, entityType string, entityID int64, details interface{}) {
	entry := models.ActivityLoggedEvent{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  p.now(),
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			logger.WithContext(ctx).Error("Failed to encode activity details", "error", err, "action", action)
		} else {
			entry.Details = raw
		}
	}
	p.publish(ctx, models.EventActivityLogged, entry)
}
