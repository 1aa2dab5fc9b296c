package vocabulary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/logger"
)

// DefaultCountCollection holds the word to id record.
const DefaultCountCollection = "countVectorRepresentation"

// Options configures an accumulator.
type Options struct {
	// Collection overrides the default collection name.
	Collection string
	// OnFlush, when set, observes every flush attempt.
	OnFlush FlushFunc
	// TermCounter overrides SubstringCount. WeightAccumulator only.
	TermCounter TermCounter
}

// CountUpdate describes the outcome of one CountAccumulator update.
type CountUpdate struct {
	// NewWords maps every word first seen by this update to its id.
	NewWords map[string]int
	Op       FlushOp
	Flushed  bool
}

// CountAccumulator assigns every distinct word a unique integer id the
// first time it appears. Ids are never changed or reused.
type CountAccumulator struct {
	store      store.Store
	tokenizer  Tokenizer
	collection string
	onFlush    FlushFunc
	logger     *slog.Logger

	vocabulary map[string]int
	maxID      int
	state      State
}

// NewCountAccumulator loads the checkpoint of the count collection, if
// any. A missing record means an empty vocabulary; any other store
// failure is returned.
func NewCountAccumulator(ctx context.Context, st store.Store, tok Tokenizer, opts Options) (*CountAccumulator, error) {
	collection := opts.Collection
	if collection == "" {
		collection = DefaultCountCollection
	}
	a := &CountAccumulator{
		store:      st,
		tokenizer:  tok,
		collection: collection,
		onFlush:    opts.OnFlush,
		logger:     logger.WithCollection("count-accumulator", collection),
		vocabulary: make(map[string]int),
		maxID:      -1,
		state:      Uninitialized,
	}
	rec, err := loadCheckpoint(ctx, st, collection)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		if err := a.hydrate(rec); err != nil {
			return nil, err
		}
		a.state = Persisted
	}
	a.logger.Info("count vocabulary loaded", "words", len(a.vocabulary), "state", a.state)
	return a, nil
}

func (a *CountAccumulator) hydrate(rec store.Record) error {
	seen := make(map[int]string, len(rec))
	for word, v := range rec {
		id, ok := store.ToInt(v)
		if !ok || id < 0 {
			return decodeError(a.collection, "word %q has non-integer id %v", word, v)
		}
		if other, dup := seen[id]; dup {
			return decodeError(a.collection, "id %d assigned to both %q and %q", id, other, word)
		}
		seen[id] = word
		a.vocabulary[word] = id
		a.maxID = max(a.maxID, id)
	}
	return nil
}

// Update adds the words of a single document.
func (a *CountAccumulator) Update(ctx context.Context, doc string) (*CountUpdate, error) {
	return a.UpdateBatch(ctx, []string{doc})
}

// UpdateBatch adds the distinct words across docs. Unseen words get ids
// continuing from the current maximum in tokenizer order; on an empty
// vocabulary that is exactly the tokenizer's own numbering. The
// vocabulary is only flushed when it grew, or when its first insert has
// not succeeded yet.
func (a *CountAccumulator) UpdateBatch(ctx context.Context, docs []string) (*CountUpdate, error) {
	docs, err := normalize(docs)
	if err != nil {
		return nil, err
	}
	words, err := a.tokenizer.Vocabulary(docs)
	if err != nil {
		return nil, fmt.Errorf("tokenizing %d document(s): %w", len(docs), err)
	}

	newWords := make(map[string]int)
	next := a.maxID + 1
	for _, w := range words {
		if _, known := a.vocabulary[w]; known {
			continue
		}
		if _, dup := newWords[w]; dup {
			continue
		}
		newWords[w] = next
		next++
	}

	if len(newWords) == 0 && a.state != PendingFirstFlush {
		return &CountUpdate{NewWords: newWords, Op: FlushNone}, nil
	}

	for w, id := range newWords {
		a.vocabulary[w] = id
	}
	a.maxID = next - 1
	if a.state == Uninitialized {
		a.state = PendingFirstFlush
	}

	op := flushOp(a.state)
	var payload store.Record
	if op == FlushInsert {
		payload = intRecord(a.vocabulary, nil)
	} else {
		payload = intRecord(newWords, nil)
	}
	err = flush(ctx, a.store, a.collection, op, payload, a.onFlush, a.logger)
	if err == nil && op == FlushInsert {
		a.state = Persisted
	}
	return &CountUpdate{NewWords: newWords, Op: op, Flushed: err == nil}, err
}

// ID returns the id of word.
func (a *CountAccumulator) ID(word string) (int, bool) {
	id, ok := a.vocabulary[word]
	return id, ok
}

func (a *CountAccumulator) Len() int { return len(a.vocabulary) }

func (a *CountAccumulator) State() State { return a.state }

func (a *CountAccumulator) Collection() string { return a.collection }

// Vocabulary returns a copy of the word to id mapping.
func (a *CountAccumulator) Vocabulary() map[string]int {
	out := make(map[string]int, len(a.vocabulary))
	for w, id := range a.vocabulary {
		out[w] = id
	}
	return out
}

// intRecord copies m, restricted to keys when keys is non-nil, into a
// store record.
func intRecord(m map[string]int, keys []string) store.Record {
	if keys == nil {
		out := make(store.Record, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	out := make(store.Record, len(keys))
	for _, k := range keys {
		out[k] = m[k]
	}
	return out
}

// flush writes payload with op and reports the attempt.
func flush(ctx context.Context, st store.Store, collection string, op FlushOp, payload store.Record, onFlush FlushFunc, log *slog.Logger) error {
	var err error
	switch op {
	case FlushInsert:
		err = st.Insert(ctx, collection, payload)
	case FlushUpdate:
		err = st.Update(ctx, collection, payload)
	default:
		return nil
	}
	if onFlush != nil {
		onFlush(collection, op, err)
	}
	if err != nil {
		log.Warn("vocabulary flush failed", "op", op, "fields", len(payload), "error", err)
		return fmt.Errorf("flushing %s (%s): %w", collection, op, err)
	}
	log.Debug("vocabulary flushed", "op", op, "fields", len(payload))
	return nil
}
