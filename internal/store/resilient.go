package store

import (
	"context"
	"errors"

	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/resilience"
)

// Resilient guards a Store with a circuit breaker and retries the calls
// that are safe to repeat. Get and Update (a field merge) are idempotent;
// Insert is not, so it is attempted once.
type Resilient struct {
	inner   Store
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewResilient wraps inner. A nil breaker disables circuit breaking.
func NewResilient(inner Store, retry resilience.RetryConfig, breaker *resilience.CircuitBreaker) *Resilient {
	retry.Retryable = isTransient
	return &Resilient{inner: inner, retry: retry, breaker: breaker}
}

// isTransient reports whether err may clear up on its own.
func isTransient(err error) bool {
	return errors.Is(err, apperrors.ErrStoreUnavailable) && !errors.Is(err, resilience.ErrCircuitOpen)
}

func (r *Resilient) guard(collection, op string, fn func() error) error {
	if r.breaker == nil {
		return fn()
	}
	err := r.breaker.Execute(fn)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return apperrors.NewStoreError(collection, op, apperrors.ErrStoreUnavailable, err)
	}
	return err
}

func (r *Resilient) Get(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	var records []Record
	err := resilience.Retry(ctx, "store.get", r.retry, func() error {
		return r.guard(collection, "get", func() error {
			var err error
			records, err = r.inner.Get(ctx, collection, filter)
			return err
		})
	})
	return records, err
}

func (r *Resilient) Insert(ctx context.Context, collection string, records ...Record) error {
	return r.guard(collection, "insert", func() error {
		return r.inner.Insert(ctx, collection, records...)
	})
}

func (r *Resilient) Update(ctx context.Context, collection string, fields Record) error {
	return resilience.Retry(ctx, "store.update", r.retry, func() error {
		return r.guard(collection, "update", func() error {
			return r.inner.Update(ctx, collection, fields)
		})
	})
}

func (r *Resilient) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

func (r *Resilient) Close() error {
	return r.inner.Close()
}

// BreakerIsFailure counts only store unavailability against the breaker.
func BreakerIsFailure(err error) bool {
	return errors.Is(err, apperrors.ErrStoreUnavailable)
}
