// Package app assembles the store, tokenizer, accumulators and ingest
// service from configuration. Both the daemon and the CLI start here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/service"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/vocabulary"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/resilience"
)

// App holds the wired components.
type App struct {
	Store   store.Store
	Service *service.Service
	Metrics *metrics.Metrics

	breakerClosed atomic.Bool
}

// New opens the configured store and loads both vocabularies from it.
// notifier may be nil.
func New(ctx context.Context, cfg *config.Config, m *metrics.Metrics, notifier service.Notifier) (*App, error) {
	if m == nil {
		m = metrics.New(nil)
	}
	a := &App{Metrics: m}
	a.breakerClosed.Store(true)

	st, err := store.Open(ctx, cfg, a.observeBreaker)
	if err != nil {
		return nil, err
	}

	tok, err := tokenizer.New(cfg.Tokenizer.Pattern)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("building tokenizer: %w", err)
	}
	var counter vocabulary.TermCounter = vocabulary.SubstringCount
	if cfg.Tokenizer.TermCounting == config.TermCountingToken {
		counter = vocabulary.TokenCount(tok)
	}
	onFlush := service.FlushRecorder(m)

	count, err := vocabulary.NewCountAccumulator(ctx, st, tok, vocabulary.Options{
		Collection: cfg.Store.CountCollection,
		OnFlush:    onFlush,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("loading count vocabulary: %w", err)
	}
	weight, err := vocabulary.NewWeightAccumulator(ctx, st, tok, vocabulary.Options{
		Collection:  cfg.Store.WeightCollection,
		OnFlush:     onFlush,
		TermCounter: counter,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("loading weight vocabulary: %w", err)
	}

	slog.Info("vocabularies loaded",
		"count_words", count.Len(),
		"count_state", count.State(),
		"weight_words", weight.Len(),
		"weight_state", weight.State(),
		"documents", weight.Documents(),
		"term_counting", cfg.Tokenizer.TermCounting,
	)

	a.Store = st
	a.Service = service.New(count, weight, notifier, m)
	return a, nil
}

func (a *App) observeBreaker(name string, from, to resilience.State) {
	a.breakerClosed.Store(to == resilience.StateClosed)
	a.Metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
	slog.Warn("store circuit breaker changed state", "name", name, "from", from, "to", to)
}

// StoreDegraded reports whether the store circuit breaker is not closed.
func (a *App) StoreDegraded() bool {
	return !a.breakerClosed.Load()
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
