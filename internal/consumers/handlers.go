package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"excentrica/internal/logger"
	"excentrica/internal/models"
	"excentrica/internal/service"

	"github.com/nats-io/stan.go"
)

// errMalformed marks messages that can never be processed; they are acked and dropped
var errMalformed = errors.New("malformed message")

// MessageHandler обрабатывает тело одного сообщения
type MessageHandler func(ctx context.Context, data []byte) error

type Handlers struct {
	activity *service.ActivityService
}

func NewHandlers(activity *service.ActivityService) *Handlers {
	return &Handlers{activity: activity}
}

// Ack adapts a MessageHandler to stan. Failed messages stay unacked and are redelivered after AckWait.
func (h *Handlers) Ack(subject string, fn MessageHandler) stan.MsgHandler {
	return func(m *stan.Msg) {
		ctx := logger.ContextWithRequestID(context.Background(), fmt.Sprintf("%s-%d", subject, m.Sequence))
		log := logger.WithContext(ctx)

		if err := fn(ctx, m.Data); err != nil {
			if !errors.Is(err, errMalformed) {
				log.Error("Failed to process message, awaiting redelivery", "subject", subject, "error", err)
				return
			}
			log.Error("Dropping malformed message", "subject", subject, "error", err)
		}

		if err := m.Ack(); err != nil {
			log.Error("Failed to ack message", "subject", subject, "error", err)
		}
	}
}

func decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

// HandleActivityLogged сохраняет запись журнала и индексирует ее
func (h *Handlers) HandleActivityLogged(ctx context.Context, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: invalid json", errMalformed)
	}
	return h.activity.Record(ctx, data)
}

func (h *Handlers) HandleRegistrationCreated(ctx context.Context, data []byte) error {
	var event models.RegistrationCreatedEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	logger.WithContext(ctx).Info("Registration created",
		"registration_id", event.RegistrationID, "event_id", event.EventID,
		"user_id", event.UserID, "registration_code", event.RegistrationCode)
	return nil
}

func (h *Handlers) HandleRegistrationCancelled(ctx context.Context, data []byte) error {
	var event models.RegistrationCancelledEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	logger.WithContext(ctx).Info("Registration cancelled",
		"registration_id", event.RegistrationID, "event_id", event.EventID, "user_id", event.UserID)
	return nil
}

func (h *Handlers) HandleRegistrationStatusChanged(ctx context.Context, data []byte) error {
	var event models.RegistrationStatusChangedEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	logger.WithContext(ctx).Info("Registration status changed",
		"registration_id", event.RegistrationID, "from", event.From, "to", event.To, "actor_id", event.ActorID)
	return nil
}

func (h *Handlers) HandleSorteoDrawn(ctx context.Context, data []byte) error {
	var event models.SorteoDrawnEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	logger.WithContext(ctx).Info("Sorteo drawn",
		"sorteo_id", event.SorteoID, "winner_ids", event.WinnerIDs, "pool_size", event.PoolSize, "actor_id", event.ActorID)
	return nil
}

func (h *Handlers) HandleParticipantJoined(ctx context.Context, data []byte) error {
	var event models.SorteoParticipantJoinedEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	logger.WithContext(ctx).Info("Sorteo participant joined",
		"sorteo_id", event.SorteoID, "participant_id", event.ParticipantID)
	return nil
}

func (h *Handlers) HandleSorteoStatusChanged(ctx context.Context, data []byte) error {
	var event models.SorteoStatusChangedEvent
	if err := decode(data, &event); err != nil {
		return err
	}

	logger.WithContext(ctx).Info("Sorteo status changed",
		"sorteo_id", event.SorteoID, "from", event.From, "to", event.To, "actor_id", event.ActorID)
	return nil
}
