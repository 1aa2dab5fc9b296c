package vocabulary

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store/storetest"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
)

var tok = tokenizer.MustNew("")

func newCount(t *testing.T, st store.Store) *CountAccumulator {
	t.Helper()
	a, err := NewCountAccumulator(context.Background(), st, tok, Options{})
	require.NoError(t, err)
	return a
}

func TestCountScenario(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFaulty(nil)
	a := newCount(t, st)
	assert.Equal(t, Uninitialized, a.State())

	res, err := a.Update(ctx, "the cat sat")
	require.NoError(t, err)
	assert.Equal(t, FlushInsert, res.Op)
	assert.True(t, res.Flushed)
	assert.Equal(t, map[string]int{"the": 0, "cat": 1, "sat": 2}, a.Vocabulary())
	assert.Equal(t, Persisted, a.State())

	inserts := st.Calls("insert")
	require.Len(t, inserts, 1)
	assert.Equal(t, DefaultCountCollection, inserts[0].Collection)
	assert.Equal(t, store.Record{"the": 0, "cat": 1, "sat": 2}, inserts[0].Records[0])

	res, err = a.Update(ctx, "the dog ran")
	require.NoError(t, err)
	assert.Equal(t, FlushUpdate, res.Op)
	assert.Equal(t, map[string]int{"dog": 3, "ran": 4}, res.NewWords)
	id, ok := a.ID("the")
	require.True(t, ok)
	assert.Equal(t, 0, id)

	updates := st.Calls("update")
	require.Len(t, updates, 1)
	assert.Equal(t, store.Record{"dog": 3, "ran": 4}, updates[0].Records[0])
}

func TestCountNoNewWordsSkipsFlush(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFaulty(nil)
	a := newCount(t, st)

	_, err := a.Update(ctx, "the cat sat")
	require.NoError(t, err)
	res, err := a.UpdateBatch(ctx, []string{"sat the", "CAT"})
	require.NoError(t, err)
	assert.Equal(t, FlushNone, res.Op)
	assert.Empty(t, res.NewWords)
	assert.Len(t, st.Calls("insert"), 1)
	assert.Empty(t, st.Calls("update"))
}

func TestCountIDsUniqueAndStable(t *testing.T) {
	ctx := context.Background()
	a := newCount(t, store.NewMemory())
	docs := []string{
		"alpha beta gamma",
		"beta delta",
		"epsilon alpha zeta eta",
		"theta",
		"gamma iota kappa lambda alpha",
		"mu nu xi omicron pi",
	}

	seen := map[string]int{}
	for i, doc := range docs {
		_, err := a.Update(ctx, doc)
		require.NoError(t, err, "doc %d", i)

		vocab := a.Vocabulary()
		for w, id := range seen {
			assert.Equal(t, id, vocab[w], "id of %q changed", w)
		}
		ids := map[int]string{}
		for w, id := range vocab {
			if other, dup := ids[id]; dup {
				t.Fatalf("id %d shared by %q and %q", id, other, w)
			}
			ids[id] = w
		}
		seen = vocab
	}
	assert.Equal(t, 16, a.Len())
}

func TestCountRepeatedWordKeepsID(t *testing.T) {
	ctx := context.Background()
	a := newCount(t, store.NewMemory())

	_, err := a.Update(ctx, "the cat")
	require.NoError(t, err)
	first, err := a.Update(ctx, "eel")
	require.NoError(t, err)
	second, err := a.Update(ctx, "the eel swims")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"eel": 2}, first.NewWords)
	assert.Equal(t, map[string]int{"swims": 3}, second.NewWords)
	id, _ := a.ID("eel")
	assert.Equal(t, 2, id)
}

func TestCountBatchOrder(t *testing.T) {
	ctx := context.Background()
	a := newCount(t, store.NewMemory())

	res, err := a.UpdateBatch(ctx, []string{"b1 a1", "c1 a1 d1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"b1": 0, "a1": 1, "c1": 2, "d1": 3}, res.NewWords)
}

func TestCountRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			st := openBackend(t, backend)
			a := newCount(t, st)
			for _, doc := range []string{"the cat sat", "the dog ran", "a cat and a dog"} {
				_, err := a.Update(ctx, doc)
				require.NoError(t, err)
			}

			b := newCount(t, st)
			assert.Equal(t, Persisted, b.State())
			assert.Equal(t, a.Vocabulary(), b.Vocabulary())
			_, ok := b.ID(store.IDField)
			assert.False(t, ok)

			res, err := b.Update(ctx, "the owl")
			require.NoError(t, err)
			assert.Equal(t, FlushUpdate, res.Op)
			assert.Equal(t, map[string]int{"owl": a.Len()}, res.NewWords)
		})
	}
}

func TestCountFailedInsertRetriesFullVocabulary(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFaulty(nil)
	a := newCount(t, st)

	st.FailTimes("insert", nil, 1)
	res, err := a.Update(ctx, "the cat")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.False(t, res.Flushed)
	assert.Equal(t, PendingFirstFlush, a.State())
	assert.Equal(t, 2, a.Len())

	res, err = a.Update(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, FlushInsert, res.Op)
	assert.Equal(t, Persisted, a.State())

	inserts := st.Calls("insert")
	require.Len(t, inserts, 2)
	assert.Equal(t, store.Record{"the": 0, "cat": 1}, inserts[1].Records[0])
}

func TestCountFailedUpdateKeepsMemoryAhead(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFaulty(nil)
	a := newCount(t, st)
	_, err := a.Update(ctx, "the cat")
	require.NoError(t, err)

	st.Fail("update", nil)
	res, err := a.Update(ctx, "the dog")
	require.Error(t, err)
	assert.Equal(t, FlushUpdate, res.Op)
	assert.False(t, res.Flushed)
	_, ok := a.ID("dog")
	assert.True(t, ok)

	st.Heal()
	reloaded := newCount(t, st)
	_, ok = reloaded.ID("dog")
	assert.False(t, ok, "a failed flush is not durable")
}

func TestCountTokenizationFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFaulty(nil)
	a := newCount(t, st)

	_, err := a.Update(ctx, "! ? .")
	assert.ErrorIs(t, err, apperrors.ErrTokenization)
	assert.ErrorIs(t, err, apperrors.ErrEmptyVocabulary)

	_, err = a.Update(ctx, "bad \xff utf8")
	assert.ErrorIs(t, err, apperrors.ErrTokenization)

	_, err = a.UpdateBatch(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Equal(t, 0, a.Len())
	assert.Equal(t, Uninitialized, a.State())
	assert.Empty(t, st.Calls("insert"))
}

func TestCountLoadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("store down", func(t *testing.T) {
		st := storetest.NewFaulty(nil)
		st.Fail("get", nil)
		_, err := NewCountAccumulator(ctx, st, tok, Options{})
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})

	t.Run("not found is empty", func(t *testing.T) {
		st := storetest.NewFaulty(nil)
		st.Fail("get", apperrors.ErrRecordNotFound)
		a, err := NewCountAccumulator(ctx, st, tok, Options{})
		require.NoError(t, err)
		assert.Equal(t, Uninitialized, a.State())
	})

	t.Run("corrupt record", func(t *testing.T) {
		st := store.NewMemory()
		require.NoError(t, st.Insert(ctx, DefaultCountCollection, store.Record{"cat": "one"}))
		_, err := NewCountAccumulator(ctx, st, tok, Options{})
		assert.ErrorIs(t, err, apperrors.ErrStoreOperation)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		st := store.NewMemory()
		require.NoError(t, st.Insert(ctx, DefaultCountCollection, store.Record{"cat": 1, "dog": 1}))
		_, err := NewCountAccumulator(ctx, st, tok, Options{})
		assert.ErrorIs(t, err, apperrors.ErrStoreOperation)
	})
}

func TestCountFlushHook(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFaulty(nil)
	var got []string
	a, err := NewCountAccumulator(ctx, st, tok, Options{
		Collection: "words",
		OnFlush: func(collection string, op FlushOp, err error) {
			got = append(got, fmt.Sprintf("%s/%s/%v", collection, op, err == nil))
		},
	})
	require.NoError(t, err)

	_, err = a.Update(ctx, "the cat")
	require.NoError(t, err)
	st.Fail("update", nil)
	_, _ = a.Update(ctx, "the dog")
	_, _ = a.Update(ctx, "the cat")

	assert.Equal(t, []string{"words/insert/true", "words/update/false"}, got)
}
