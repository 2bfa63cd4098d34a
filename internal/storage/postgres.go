package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"campaign-launcher/internal/config"
	"campaign-launcher/internal/launchlog"
)

// Store mirrors the launch log into Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS campaign_launches (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	campaign_id TEXT NOT NULL,
	adset_id    TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.PgxPool().Exec(ctx, schema); err != nil {
		return fmt.Errorf("create campaign_launches: %w", err)
	}
	return nil
}

// Record inserts one successful launch.
func (s *Store) Record(ctx context.Context, e launchlog.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.PgxPool().Exec(ctx,
		`INSERT INTO campaign_launches (name, campaign_id, adset_id, created_at) VALUES ($1, $2, $3, $4)`,
		e.Name, e.CampaignID, e.AdSetID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert launch: %w", err)
	}
	return nil
}

// RecentLaunches returns the newest launches first.
func (s *Store) RecentLaunches(ctx context.Context, limit int) ([]launchlog.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.PgxPool().Query(ctx, `
		SELECT name, campaign_id, adset_id, created_at
		FROM campaign_launches
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query launches: %w", err)
	}
	defer rows.Close()

	var out []launchlog.Entry
	for rows.Next() {
		var e launchlog.Entry
		if err := rows.Scan(&e.Name, &e.CampaignID, &e.AdSetID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) PgxPool() *pgxpool.Pool {
	if s.pool == nil {
		panic(errors.New("pgx pool is nil"))
	}
	return s.pool
}
