package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DB struct {
	*sqlx.DB
}

type Config struct {
	Host               string `env:"HOST,default=localhost"`
	Port               int    `env:"PORT,default=5432"`
	User               string `env:"USER,default=excentrica"`
	Password           string `env:"PASSWORD,default=excentrica"`
	DBName             string `env:"NAME,default=excentrica"`
	SSLMode            string `env:"SSLMODE,default=disable"`
	MaxOpenConns       int    `env:"MAX_OPEN_CONNS,default=50"`
	MaxIdleConns       int    `env:"MAX_IDLE_CONNS,default=10"`
	ConnMaxLifetimeMin int    `env:"CONN_MAX_LIFETIME_MIN,default=5"`
	ConnMaxIdleTimeMin int    `env:"CONN_MAX_IDLE_TIME_MIN,default=1"`
}

func (cfg Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

func Connect(cfg Config) (*DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMin) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMin) * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Connected to database",
		"host", cfg.Host, "port", cfg.Port, "dbname", cfg.DBName,
		"max_open_conns", cfg.MaxOpenConns, "max_idle_conns", cfg.MaxIdleConns,
		"max_lifetime_min", cfg.ConnMaxLifetimeMin, "max_idle_time_min", cfg.ConnMaxIdleTimeMin)

	return &DB{db}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
