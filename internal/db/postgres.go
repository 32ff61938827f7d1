package db

import (
	"context"
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	newPoolFn  = pgxpool.New
	pingPoolFn = func(ctx context.Context, pool *pgxpool.Pool) error { return pool.Ping(ctx) }
)

func ConnectPostgres(cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := newPoolFn(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := pingPoolFn(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Pinger is satisfied by *pgxpool.Pool and pgxmock pools.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthy reports whether the database answers within two seconds. A nil
// pinger counts as unavailable.
func Healthy(ctx context.Context, p Pinger) error {
	if p == nil {
		return ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(ctx)
}
