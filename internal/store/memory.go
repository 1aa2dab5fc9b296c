package store

import (
	"context"
	"strconv"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
)

type memRecord struct {
	id   int64
	data Record
}

// Memory keeps collections in process memory. Records are deep-copied on
// the way in and out so callers never alias stored state.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]memRecord
	nextID      int64
	closed      bool
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]memRecord)}
}

func (m *Memory) Get(_ context.Context, collection string, filter Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, apperrors.NewStoreError(collection, "get", apperrors.ErrStoreUnavailable, errClosed)
	}
	var out []Record
	for _, rec := range m.collections[collection] {
		r := Clone(rec.data)
		r[IDField] = strconv.FormatInt(rec.id, 10)
		if Matches(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, collection string, records ...Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return apperrors.NewStoreError(collection, "insert", apperrors.ErrStoreUnavailable, errClosed)
	}
	for _, r := range records {
		m.nextID++
		data := Merge(Record{}, r)
		m.collections[collection] = append(m.collections[collection], memRecord{id: m.nextID, data: data})
	}
	return nil
}

func (m *Memory) Update(_ context.Context, collection string, fields Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return apperrors.NewStoreError(collection, "update", apperrors.ErrStoreUnavailable, errClosed)
	}
	records := m.collections[collection]
	if len(records) == 0 {
		return apperrors.NewStoreError(collection, "update", apperrors.ErrRecordNotFound, nil)
	}
	Merge(records[0].data, fields)
	return nil
}

func (m *Memory) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return errClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
