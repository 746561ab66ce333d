package consumers

import (
	"context"
	"testing"

	"excentrica/internal/config"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsumerService_RequiresBackends(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		message string
	}{
		{
			name:    "memory store",
			env:     map[string]string{"STORE_DRIVER": "memory", "NATS_ENABLED": "true"},
			message: "STORE_DRIVER=postgres",
		},
		{
			name:    "nats disabled",
			env:     map[string]string{"STORE_DRIVER": "postgres", "NATS_ENABLED": "false"},
			message: "NATS_ENABLED=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.env["AUTH_JWT_SECRET"] = "consumer-secret"
			cfg, err := config.LoadFrom(context.Background(), envconfig.MapLookuper(tt.env))
			require.NoError(t, err)

			svc, err := NewConsumerService(cfg)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
