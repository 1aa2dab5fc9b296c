package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/sqldb"
)

// BreakerObserver receives circuit breaker transitions.
type BreakerObserver func(name string, from, to resilience.State)

// Open builds the backend selected by cfg.Store.Backend and wraps it with
// retry and circuit breaking.
func Open(ctx context.Context, cfg *config.Config, onBreaker BreakerObserver) (Store, error) {
	var (
		backend Store
		err     error
	)
	switch cfg.Store.Backend {
	case config.BackendMemory:
		backend = NewMemory()
	case config.BackendPostgres:
		backend, err = openSQL(ctx, func() (*sqldb.Client, error) { return sqldb.OpenPostgres(cfg.Postgres) })
	case config.BackendSQLite:
		backend, err = openSQL(ctx, func() (*sqldb.Client, error) { return sqldb.OpenSQLite(cfg.SQLite) })
	case config.BackendRedis:
		var client *pkgredis.Client
		client, err = pkgredis.NewClient(cfg.Redis)
		if err == nil {
			backend = NewRedis(client, cfg.Redis.KeyPrefix)
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}

	var breaker *resilience.CircuitBreaker
	if cfg.Store.Breaker.Enabled {
		cbCfg := resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Store.Breaker.FailureThreshold,
			ResetTimeout:     cfg.Store.Breaker.ResetTimeout,
			IsFailure:        BreakerIsFailure,
		}
		if onBreaker != nil {
			cbCfg.OnStateChange = onBreaker
		}
		breaker = resilience.NewCircuitBreaker("store-"+cfg.Store.Backend, cbCfg)
	}
	retry := resilience.RetryConfig{
		MaxAttempts:  cfg.Store.Retry.MaxAttempts,
		InitialDelay: cfg.Store.Retry.InitialDelay,
		MaxDelay:     cfg.Store.Retry.MaxDelay,
	}
	slog.Info("store opened",
		"backend", cfg.Store.Backend,
		"breaker", cfg.Store.Breaker.Enabled,
		"retry_attempts", retry.MaxAttempts,
	)
	return NewResilient(backend, retry, breaker), nil
}

func openSQL(ctx context.Context, open func() (*sqldb.Client, error)) (Store, error) {
	client, err := open()
	if err != nil {
		return nil, err
	}
	s, err := NewSQL(ctx, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}
