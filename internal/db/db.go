// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking. Postgres is optional: it only backs the
// baseline table when BASELINE_SOURCE=postgres.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/config"
)

// Schema creates the baselines table. Applied on every new connection.
const Schema = `CREATE TABLE IF NOT EXISTS baselines (
	league   TEXT NOT NULL,
	season   TEXT NOT NULL,
	position TEXT NOT NULL,
	metric   TEXT NOT NULL,
	mean     DOUBLE PRECISION,
	std      DOUBLE PRECISION,
	n        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (league, season, position, metric)
)`

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statements lists every prepared statement by name.
func Statements() map[string]string {
	return map[string]string{
		"health_check": "SELECT 1",

		baseline.StmtRows: "SELECT league, season, position, metric, mean, std, n FROM baselines ORDER BY league, season, position, metric",
		baseline.StmtUpsert: `INSERT INTO baselines (league, season, position, metric, mean, std, n)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (league, season, position, metric)
			DO UPDATE SET mean = EXCLUDED.mean, std = EXCLUDED.std, n = EXCLUDED.n`,
	}
}

// registerPreparedStatements ensures the schema exists and registers all
// statements the API and CLI use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	if _, err := conn.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for name, sql := range Statements() {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
