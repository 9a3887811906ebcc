// Package storage mirrors extracted listings into PostgreSQL.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmylchreest/truckscout/internal/listing"
	"github.com/jmylchreest/truckscout/internal/logger"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ads (
	id          BIGINT PRIMARY KEY,
	href        TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	price       BIGINT NOT NULL DEFAULT 0,
	mileage     BIGINT NOT NULL DEFAULT 0,
	color       TEXT NOT NULL DEFAULT '',
	power       BIGINT NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	images      TEXT[] NOT NULL DEFAULT '{}',
	scraped_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertSQL = `
INSERT INTO ads (id, href, title, price, mileage, color, power, description, phone, images)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE
SET
	href = EXCLUDED.href,
	title = EXCLUDED.title,
	price = EXCLUDED.price,
	mileage = EXCLUDED.mileage,
	color = EXCLUDED.color,
	power = EXCLUDED.power,
	description = EXCLUDED.description,
	phone = EXCLUDED.phone,
	images = EXCLUDED.images,
	updated_at = NOW()`

// Postgres upserts listings keyed by id.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and creates the ads table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	// a run writes sequentially
	cfg.MaxConns = 2
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// SaveAds upserts ads in a single transaction and returns how many rows
// were written.
func (p *Postgres) SaveAds(ctx context.Context, ads []listing.Record) (int, error) {
	if len(ads) == 0 {
		return 0, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, ad := range ads {
		images := ad.Images
		if images == nil {
			images = []string{}
		}
		batch.Queue(upsertSQL,
			ad.ID, ad.Href, ad.Title, ad.Price, ad.Mileage,
			ad.Color, ad.Power, ad.Description, ad.Phone, images)
	}

	br := tx.SendBatch(ctx, batch)
	written := 0
	for _, ad := range ads {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, fmt.Errorf("upsert ad %d: %w", ad.ID, err)
		}
		written++
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	logger.DebugContext(ctx, "ads stored in postgres", "count", written)
	return written, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
