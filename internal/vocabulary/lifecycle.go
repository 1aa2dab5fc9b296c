// Package vocabulary maintains incremental vocabularies over a stream of
// documents. CountAccumulator assigns stable integer ids to words as they
// first appear; WeightAccumulator folds a running tf-idf-like score into
// a per-word weight. Both load their checkpoint from a store.Store when
// constructed and flush after every update that changes them.
//
// Accumulators are not safe for concurrent use. A vocabulary has exactly
// one writer.
package vocabulary

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
)

// State tracks whether an accumulator's vocabulary exists in the store.
type State int

const (
	// Uninitialized: nothing was loaded and nothing has been built yet.
	Uninitialized State = iota
	// PendingFirstFlush: state was built this run but no insert has
	// succeeded.
	PendingFirstFlush
	// Persisted: a checkpoint record exists; later flushes are updates.
	Persisted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case PendingFirstFlush:
		return "pending_first_flush"
	case Persisted:
		return "persisted"
	default:
		return "unknown"
	}
}

// FlushOp is the store operation a flush performs.
type FlushOp string

const (
	FlushNone   FlushOp = "none"
	FlushInsert FlushOp = "insert"
	FlushUpdate FlushOp = "update"
)

// flushOp picks the store operation for a flush from the lifecycle state
// alone.
func flushOp(s State) FlushOp {
	switch s {
	case PendingFirstFlush:
		return FlushInsert
	case Persisted:
		return FlushUpdate
	default:
		return FlushNone
	}
}

// Tokenizer returns the distinct words across a set of documents in a
// stable order.
type Tokenizer interface {
	Vocabulary(docs []string) ([]string, error)
}

// FlushFunc observes every flush attempt. err is nil on success.
type FlushFunc func(collection string, op FlushOp, err error)

// loadCheckpoint returns the canonical record of collection, or nil when
// the collection holds none.
func loadCheckpoint(ctx context.Context, st store.Store, collection string) (store.Record, error) {
	records, err := st.Get(ctx, collection, store.Filter{})
	if errors.Is(err, apperrors.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", collection, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[0]
	delete(rec, store.IDField)
	return rec, nil
}

// normalize turns a single document into a one-element batch.
func normalize(docs []string) ([]string, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents", apperrors.ErrInvalidInput)
	}
	return docs, nil
}

func decodeError(collection, format string, args ...any) error {
	return apperrors.NewStoreError(collection, "load", apperrors.ErrStoreOperation, fmt.Errorf(format, args...))
}
