// Package postgres mirrors the abilities document into PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/abilitygen/internal/config"
)

// ApplicationName is reported to the server for every connection.
const ApplicationName = "abilitygen"

// ErrSchemaMissing reports that the abilities table has not been migrated.
var ErrSchemaMissing = errors.New("abilities table missing, run migrations first")

// Pool is the connection pool held for the length of one publish run.
type Pool struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPool connects to the database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a Pool whose server answered a ping within
// cfg.ConnectTimeout, or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := withTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &Pool{pool: pool, timeout: cfg.ConnectTimeout}, nil
}

// Ready checks that the server answers and that the abilities table exists.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns nil, ErrSchemaMissing when migrations have not been
// applied, or the query error.
func (p *Pool) Ready(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	var table *string
	if err := p.pool.QueryRow(ctx, `SELECT to_regclass('abilities')::text`).Scan(&table); err != nil {
		return fmt.Errorf("checking abilities table: %w", err)
	}
	if table == nil {
		return ErrSchemaMissing
	}
	return nil
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
