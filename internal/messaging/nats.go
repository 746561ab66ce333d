package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/stan.go"
)

// Publisher sends a JSON-encoded message to a subject
type Publisher interface {
	Publish(subject string, data interface{}) error
}

type NATSClient struct {
	conn stan.Conn
}

type Config struct {
	Enabled   bool   `env:"ENABLED,default=false"`
	URL       string `env:"URL,default=nats://localhost:4222"`
	ClusterID string `env:"CLUSTER_ID,default=excentrica"`
	ClientID  string `env:"CLIENT_ID,default=excentrica-api"`
}

func NewNATSClient(cfg Config) (*NATSClient, error) {
	// Client ids must be unique per connection in NATS Streaming
	uniqueClientID := fmt.Sprintf("%s-%s", cfg.ClientID, uuid.New().String()[:8])

	conn, err := stan.Connect(cfg.ClusterID, uniqueClientID,
		stan.NatsURL(cfg.URL),
		stan.SetConnectionLostHandler(func(_ stan.Conn, reason error) {
			slog.Error("NATS Streaming connection lost", "error", reason)
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS Streaming: %w", err)
	}

	slog.Info("Connected to NATS Streaming",
		"url", cfg.URL, "cluster", cfg.ClusterID, "client", uniqueClientID)

	return &NATSClient{conn: conn}, nil
}

func (nc *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := nc.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}

	slog.Debug("Published message", "subject", subject)
	return nil
}

func (nc *NATSClient) SubscribeQueue(subject, queue string, handler stan.MsgHandler) (stan.Subscription, error) {
	sub, err := nc.conn.QueueSubscribe(subject, queue, handler,
		stan.DurableName(subject+"-"+queue+"-durable"),
		stan.SetManualAckMode(),
		stan.AckWait(30*time.Second),
		stan.MaxInflight(16))
	if err != nil {
		return nil, fmt.Errorf("failed to queue subscribe to subject %s: %w", subject, err)
	}

	slog.Info("Subscribed to subject", "subject", subject, "queue", queue)
	return sub, nil
}

func (nc *NATSClient) Close() error {
	if nc.conn != nil {
		return nc.conn.Close()
	}
	return nil
}

// LocalBus delivers messages in-process when NATS is disabled.
// Subjects without a handler are dropped.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string]func(data []byte) error
	wg       sync.WaitGroup
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: map[string]func(data []byte) error{}}
}

// Handle registers the handler for a subject, replacing any previous one
func (b *LocalBus) Handle(subject string, handler func(data []byte) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[subject] = handler
}

func (b *LocalBus) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	b.mu.RLock()
	handler, ok := b.handlers[subject]
	b.mu.RUnlock()
	if !ok {
		slog.Debug("No local handler, message dropped", "subject", subject)
		return nil
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := handler(payload); err != nil {
			slog.Error("Local handler failed", "subject", subject, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every in-flight delivery has finished
func (b *LocalBus) Wait() {
	b.wg.Wait()
}
