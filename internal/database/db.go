package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/kmalyshev/pricetrack/internal/config"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id            TEXT PRIMARY KEY,
		owner_id      TEXT NOT NULL,
		url           TEXT NOT NULL,
		name          TEXT NOT NULL,
		current_price DOUBLE PRECISION NOT NULL,
		currency      TEXT NOT NULL DEFAULT 'USD',
		image_url     TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (owner_id, url)
	)`,
	`CREATE TABLE IF NOT EXISTS price_history (
		id         BIGSERIAL PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		price      DOUBLE PRECISION NOT NULL,
		currency   TEXT NOT NULL DEFAULT 'USD',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_product
		ON price_history (product_id, created_at)`,
}

// Connect opens the pool, verifies connectivity and bootstraps the schema.
func Connect(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	log.WithFields(logrus.Fields{"host": cfg.DBHost, "db": cfg.DBName}).Info("connected to postgres")
	return pool, nil
}
