package consumers

import (
	"context"
	"fmt"

	"excentrica/internal/config"
	"excentrica/internal/database"
	"excentrica/internal/logger"
	"excentrica/internal/messaging"
	"excentrica/internal/models"
	"excentrica/internal/repository"
	"excentrica/internal/search"
	"excentrica/internal/service"

	"github.com/nats-io/stan.go"
)

const queueGroup = "consumers"

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return nil, fmt.Errorf("consumers require STORE_DRIVER=%s", config.StoreDriverPostgres)
	}
	if !cfg.NATS.Enabled {
		return nil, fmt.Errorf("consumers require NATS_ENABLED=true")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, err
	}

	repos := repository.NewRepositories(db)

	var index service.ActivityIndex
	if cfg.Elasticsearch.Enabled {
		esIndex, err := search.NewActivityIndex(cfg.Elasticsearch)
		if err != nil {
			natsClient.Close()
			db.Close()
			return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
		}
		index = esIndex
	}

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		handlers: NewHandlers(service.NewActivityService(repos.ActivityLogs, index)),
	}, nil
}

// Subscriptions maps every consumed subject to its handler
func (h *Handlers) Subscriptions() map[string]MessageHandler {
	return map[string]MessageHandler{
		models.EventActivityLogged:            h.HandleActivityLogged,
		models.EventRegistrationCreated:       h.HandleRegistrationCreated,
		models.EventRegistrationCancelled:     h.HandleRegistrationCancelled,
		models.EventRegistrationStatusChanged: h.HandleRegistrationStatusChanged,
		models.EventSorteoDrawn:               h.HandleSorteoDrawn,
		models.EventSorteoParticipantJoined:   h.HandleParticipantJoined,
		models.EventSorteoStatusChanged:       h.HandleSorteoStatusChanged,
	}
}

func (cs *ConsumerService) Start() error {
	log := logger.Get()
	log.Info("Starting NATS consumers...")

	for subject, handler := range cs.handlers.Subscriptions() {
		sub, err := cs.nats.SubscribeQueue(subject, queueGroup, cs.handlers.Ack(subject, handler))
		if err != nil {
			return err
		}
		cs.subs = append(cs.subs, sub)
	}

	log.Info("All consumers started successfully", "subscriptions", len(cs.subs))
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	log := logger.WithContext(ctx)
	log.Info("Shutting down consumer service...")

	// Close, not Unsubscribe, so durable positions survive the restart
	for _, sub := range cs.subs {
		if err := sub.Close(); err != nil {
			log.Error("Error closing subscription", "error", err)
		}
	}

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
