package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// Config - подключение к Valkey/Redis
type Config struct {
	Enabled        bool          `env:"ENABLED,default=false"`
	Addr           string        `env:"ADDR,default=localhost:6379"`
	Password       string        `env:"PASSWORD"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL,default=24h"`
	DialTimeout    time.Duration `env:"DIAL_TIMEOUT,default=5s"`
}

const idempotencyPrefix = "idem:"

type ValkeyClient struct {
	client rueidis.Client
	ttl    time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:       []string{cfg.Addr},
		Password:          cfg.Password,
		DisableCache:      true,
		ConnWriteTimeout:  2 * time.Second,
		ForceSingleClient: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{client: client, ttl: cfg.IdempotencyTTL}, nil
}

// GetResponse returns the response stored under an idempotency key
func (v *ValkeyClient) GetResponse(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := v.client.Do(ctx, v.client.B().Get().Key(idempotencyPrefix+key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, true, nil
}

// PutResponse stores a response once; an existing value under the key is kept
func (v *ValkeyClient) PutResponse(ctx context.Context, key string, data []byte) error {
	cmd := v.client.B().Set().Key(idempotencyPrefix + key).Value(rueidis.BinaryString(data)).Nx().Ex(v.ttl).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil && !rueidis.IsRedisNil(err) {
		return fmt.Errorf("cache store error: %w", err)
	}
	return nil
}

func (v *ValkeyClient) Ping(ctx context.Context) error {
	return v.client.Do(ctx, v.client.B().Ping().Build()).Error()
}

func (v *ValkeyClient) Close() error {
	v.client.Close()
	return nil
}
