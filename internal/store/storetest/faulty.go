// Package storetest provides store doubles for tests.
package storetest

import (
	"context"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
)

// Call records one operation seen by a Faulty store.
type Call struct {
	Op         string
	Collection string
	Records    []store.Record
}

// Faulty wraps a store.Store, records every call and fails the operations
// switched on through Fail.
type Faulty struct {
	inner store.Store

	mu       sync.Mutex
	failures map[string]error
	remain   map[string]int
	calls    []Call
}

func NewFaulty(inner store.Store) *Faulty {
	if inner == nil {
		inner = store.NewMemory()
	}
	return &Faulty{
		inner:    inner,
		failures: make(map[string]error),
		remain:   make(map[string]int),
	}
}

// Fail makes op ("get", "insert", "update" or "ping") return err. A nil err
// defaults to store unavailability.
func (f *Faulty) Fail(op string, err error) {
	f.FailTimes(op, err, -1)
}

// FailTimes fails op the next n times; a negative n fails until Heal.
func (f *Faulty) FailTimes(op string, err error, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		err = apperrors.ErrStoreUnavailable
	}
	f.failures[op] = err
	f.remain[op] = n
}

// Heal clears every injected failure.
func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.failures)
	clear(f.remain)
}

// Calls returns the recorded calls for op, or all calls when op is empty.
func (f *Faulty) Calls(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *Faulty) record(op, collection string, records []store.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copies := make([]store.Record, len(records))
	for i, r := range records {
		copies[i] = store.Clone(r)
	}
	f.calls = append(f.calls, Call{Op: op, Collection: collection, Records: copies})

	err, ok := f.failures[op]
	if !ok {
		return nil
	}
	switch n := f.remain[op]; {
	case n == 0:
		return nil
	case n > 0:
		f.remain[op] = n - 1
	}
	return apperrors.NewStoreError(collection, op, err, nil)
}

func (f *Faulty) Get(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	if err := f.record("get", collection, nil); err != nil {
		return nil, err
	}
	return f.inner.Get(ctx, collection, filter)
}

func (f *Faulty) Insert(ctx context.Context, collection string, records ...store.Record) error {
	if err := f.record("insert", collection, records); err != nil {
		return err
	}
	return f.inner.Insert(ctx, collection, records...)
}

func (f *Faulty) Update(ctx context.Context, collection string, fields store.Record) error {
	if err := f.record("update", collection, []store.Record{fields}); err != nil {
		return err
	}
	return f.inner.Update(ctx, collection, fields)
}

func (f *Faulty) Ping(ctx context.Context) error {
	if err := f.record("ping", "", nil); err != nil {
		return err
	}
	return f.inner.Ping(ctx)
}

func (f *Faulty) Close() error {
	return f.inner.Close()
}
