package vocabulary

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/logger"
)

// DefaultWeightCollection holds the weighting checkpoint record.
const DefaultWeightCollection = "tfidfVectorRepresentation"

// Fields of the weighting checkpoint record.
const (
	FieldRepresentation    = "representation"
	FieldDocuments         = "number_global_document"
	FieldWordDocumentCount = "word_document_count"
)

// WeightUpdate describes the outcome of one WeightAccumulator update.
type WeightUpdate struct {
	// Scores holds the score added to each word of the input.
	Scores map[string]float64
	Op     FlushOp
	// Flushed is false when the store rejected the flush.
	Flushed bool
	// Documents is the global document counter after the update.
	Documents int
}

// WeightAccumulator keeps a running tf-idf-like weight per word.
//
// For each word w of an input the accumulator computes
//
//	idf(w)   = documents / (table[w] + 1)
//	score(w) = tf(w) * ln(idf(w)) + 1
//
// and adds score(w) to the weight of w. table[w] is a cumulative sum of
// per-document term counts, not a count of documents containing w.
type WeightAccumulator struct {
	store      store.Store
	tokenizer  Tokenizer
	collection string
	onFlush    FlushFunc
	countTerm  TermCounter
	logger     *slog.Logger

	representation    map[string]float64
	documentFrequency map[string]int
	documents         int
	state             State
}

// NewWeightAccumulator loads the weighting checkpoint, if any.
func NewWeightAccumulator(ctx context.Context, st store.Store, tok Tokenizer, opts Options) (*WeightAccumulator, error) {
	collection := opts.Collection
	if collection == "" {
		collection = DefaultWeightCollection
	}
	countTerm := opts.TermCounter
	if countTerm == nil {
		countTerm = SubstringCount
	}
	a := &WeightAccumulator{
		store:             st,
		tokenizer:         tok,
		collection:        collection,
		onFlush:           opts.OnFlush,
		countTerm:         countTerm,
		logger:            logger.WithCollection("weight-accumulator", collection),
		representation:    make(map[string]float64),
		documentFrequency: make(map[string]int),
		state:             Uninitialized,
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
	a.logger.Info("weight vocabulary loaded",
		"words", len(a.representation),
		"documents", a.documents,
		"state", a.state,
	)
	return a, nil
}

func (a *WeightAccumulator) hydrate(rec store.Record) error {
	if v, ok := rec[FieldRepresentation]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			return decodeError(a.collection, "%s is %T, not an object", FieldRepresentation, v)
		}
		for word, raw := range m {
			if word == store.IDField {
				continue
			}
			w, ok := store.ToFloat(raw)
			if !ok {
				return decodeError(a.collection, "weight of %q is %v", word, raw)
			}
			a.representation[word] = w
		}
	}
	if v, ok := rec[FieldWordDocumentCount]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			return decodeError(a.collection, "%s is %T, not an object", FieldWordDocumentCount, v)
		}
		for word, raw := range m {
			n, ok := store.ToInt(raw)
			if !ok {
				return decodeError(a.collection, "count of %q is %v", word, raw)
			}
			a.documentFrequency[word] = n
		}
	}
	if v, ok := rec[FieldDocuments]; ok {
		n, ok := store.ToInt(v)
		if !ok || n < 0 {
			return decodeError(a.collection, "%s is %v", FieldDocuments, v)
		}
		a.documents = n
	}
	return nil
}

// Update scores a single document. The document counter grows by one.
func (a *WeightAccumulator) Update(ctx context.Context, doc string) (*WeightUpdate, error) {
	docs := []string{doc}
	return a.update(ctx, docs, documentIncrement(docs, false))
}

// UpdateBatch scores docs as one input. The document counter grows by one
// however many documents the batch holds.
func (a *WeightAccumulator) UpdateBatch(ctx context.Context, docs []string) (*WeightUpdate, error) {
	return a.update(ctx, docs, documentIncrement(docs, true))
}

// documentIncrement is how much one call advances the document counter: the
// number of wrapped documents for a single document, one for a batch.
func documentIncrement(docs []string, batch bool) int {
	if batch {
		return 1
	}
	return len(docs)
}

func (a *WeightAccumulator) update(ctx context.Context, docs []string, increment int) (*WeightUpdate, error) {
	docs, err := normalize(docs)
	if err != nil {
		return nil, err
	}
	docVocab, err := a.tokenizer.Vocabulary(docs)
	if err != nil {
		return nil, fmt.Errorf("tokenizing %d document(s): %w", len(docs), err)
	}

	a.documents += increment
	delete(a.representation, store.IDField)

	tf := a.termFrequency(docs, docVocab)
	idf := a.inverseTermFrequency(docVocab)
	scores := make(map[string]float64, len(docVocab))
	for _, w := range docVocab {
		score := float64(tf[w])*math.Log(idf[w]) + 1
		scores[w] = score
		a.representation[w] += score
	}

	if a.state == Uninitialized {
		a.state = PendingFirstFlush
	}
	op := flushOp(a.state)
	err = flush(ctx, a.store, a.collection, op, a.payload(op, docVocab), a.onFlush, a.logger)
	if err == nil && op == FlushInsert {
		a.state = Persisted
	}
	return &WeightUpdate{
		Scores:    scores,
		Op:        op,
		Flushed:   err == nil,
		Documents: a.documents,
	}, err
}

// termFrequency counts every word of docVocab in every document and folds
// the counts into the table. An absent table entry is seeded with 1
// regardless of its count. The returned tf holds the counts of the last
// document.
func (a *WeightAccumulator) termFrequency(docs, docVocab []string) map[string]int {
	tf := make(map[string]int, len(docVocab))
	for _, doc := range docs {
		for _, w := range docVocab {
			n := a.countTerm(doc, w)
			tf[w] = n
			if _, ok := a.documentFrequency[w]; !ok {
				a.documentFrequency[w] = 1
			} else {
				a.documentFrequency[w] += n
			}
		}
	}
	return tf
}

func (a *WeightAccumulator) inverseTermFrequency(docVocab []string) map[string]float64 {
	idf := make(map[string]float64, len(docVocab))
	for _, w := range docVocab {
		idf[w] = float64(a.documents) / float64(a.documentFrequency[w]+1)
	}
	return idf
}

// payload builds the flush record: the full state for an insert, the
// words of docVocab plus the counter for an update.
func (a *WeightAccumulator) payload(op FlushOp, docVocab []string) store.Record {
	var keys []string
	if op == FlushUpdate {
		keys = docVocab
	}
	rep := make(map[string]any, len(a.representation))
	if keys == nil {
		for w, v := range a.representation {
			rep[w] = v
		}
	} else {
		for _, w := range keys {
			rep[w] = a.representation[w]
		}
	}
	return store.Record{
		FieldRepresentation:    rep,
		FieldDocuments:         a.documents,
		FieldWordDocumentCount: map[string]any(intRecord(a.documentFrequency, keys)),
	}
}

// Weight returns the accumulated weight of word.
func (a *WeightAccumulator) Weight(word string) (float64, bool) {
	w, ok := a.representation[word]
	return w, ok
}

// DocumentFrequency returns the cumulative term count of word.
func (a *WeightAccumulator) DocumentFrequency(word string) int {
	return a.documentFrequency[word]
}

// Documents returns the global document counter.
func (a *WeightAccumulator) Documents() int { return a.documents }

func (a *WeightAccumulator) Len() int { return len(a.representation) }

func (a *WeightAccumulator) State() State { return a.state }

func (a *WeightAccumulator) Collection() string { return a.collection }

// Representation returns a copy of the word to weight mapping.
func (a *WeightAccumulator) Representation() map[string]float64 {
	out := make(map[string]float64, len(a.representation))
	for w, v := range a.representation {
		out[w] = v
	}
	return out
}
