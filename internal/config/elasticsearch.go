package config

import "time"

// ElasticsearchConfig содержит конфигурацию для подключения к Elasticsearch
type ElasticsearchConfig struct {
	Enabled    bool          `env:"ENABLED,default=false"`
	URL        string        `env:"URL,default=http://localhost:9200"`
	Index      string        `env:"INDEX,default=activity"`
	Username   string        `env:"USERNAME"`
	Password   string        `env:"PASSWORD"`
	MaxRetries int           `env:"MAX_RETRIES,default=3"`
	Timeout    time.Duration `env:"TIMEOUT,default=30s"`
}
