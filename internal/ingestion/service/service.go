// Package service is the single writer of both vocabularies. Every ingest
// path (HTTP, Kafka, directory watcher, CLI) goes through Service, which
// serializes updates, records metrics and publishes vocabulary growth.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/vocabulary"
	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/tracing"
)

// Vocabulary modes.
const (
	ModeCount  = "count"
	ModeWeight = "weight"
)

// Notifier receives vocabulary growth events.
type Notifier interface {
	Notify(ctx context.Context, event ingestion.VocabularyEvent) error
}

// Service owns a CountAccumulator and a WeightAccumulator.
type Service struct {
	mu       sync.Mutex
	count    *vocabulary.CountAccumulator
	weight   *vocabulary.WeightAccumulator
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New wires the accumulators. notifier and m may be nil.
func New(count *vocabulary.CountAccumulator, weight *vocabulary.WeightAccumulator, notifier Notifier, m *metrics.Metrics) *Service {
	s := &Service{
		count:    count,
		weight:   weight,
		notifier: notifier,
		metrics:  m,
		logger:   slog.Default().With("component", "ingest-service"),
	}
	s.updateGauges()
	return s
}

// FlushRecorder counts flush attempts in m.
func FlushRecorder(m *metrics.Metrics) vocabulary.FlushFunc {
	return func(collection string, op vocabulary.FlushOp, err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.FlushesTotal.WithLabelValues(collection, string(op), status).Inc()
	}
}

// Ingest validates req and feeds it to both vocabularies. Invalid input and
// tokenization failures are returned before anything changes. A failed
// checkpoint flush is logged and reported in the response with
// StatusPartial; the in-memory vocabularies keep the update.
func (s *Service) Ingest(ctx context.Context, source string, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	log := logger.FromContext(ctx).With("component", "ingest-service", "source", source)
	if err := validator.ValidateIngestRequest(req); err != nil {
		s.recordEvent(source, "rejected")
		return nil, err
	}
	docs, batch := req.Docs()

	ctx, span := tracing.StartSpan(ctx, "ingest", logger.RequestIDFromContext(ctx))
	span.SetAttr("source", source)
	span.SetAttr("documents", len(docs))
	defer func() {
		span.End()
		span.Log(ctx, log, slog.LevelDebug)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &ingestion.IngestResponse{Status: ingestion.StatusOK}

	cu, err := s.updateCount(ctx, docs, batch)
	if cu == nil {
		s.recordEvent(source, "rejected")
		log.Info("document rejected", "documents", len(docs), "error", err)
		return nil, err
	}
	resp.NewWords = cu.NewWords
	resp.Count = modeResult(string(cu.Op), cu.Flushed, err)
	if err != nil {
		resp.Status = ingestion.StatusPartial
		log.Warn("count vocabulary checkpoint failed, continuing",
			"collection", s.count.Collection(),
			"op", cu.Op,
			"error", err,
		)
	}

	wu, err := s.updateWeight(ctx, docs, batch)
	switch {
	case wu == nil:
		resp.Status = ingestion.StatusPartial
		resp.Weight = modeResult(string(vocabulary.FlushNone), false, err)
		log.Error("weight vocabulary rejected a document the count vocabulary accepted", "error", err)
	default:
		resp.Scores = wu.Scores
		resp.Documents = wu.Documents
		resp.Weight = modeResult(string(wu.Op), wu.Flushed, err)
		if err != nil {
			resp.Status = ingestion.StatusPartial
			log.Warn("weight vocabulary checkpoint failed, continuing",
				"collection", s.weight.Collection(),
				"op", wu.Op,
				"error", err,
			)
		}
	}

	s.updateGauges()
	s.recordEvent(source, resp.Status)
	if len(cu.NewWords) > 0 {
		s.notify(ctx, log, cu)
	}
	log.Debug("documents ingested",
		"documents", len(docs),
		"batch", batch,
		"new_words", len(cu.NewWords),
		"status", resp.Status,
	)
	return resp, nil
}

func (s *Service) updateCount(ctx context.Context, docs []string, batch bool) (*vocabulary.CountUpdate, error) {
	ctx, span := tracing.StartSpan(ctx, "count.update", "")
	defer span.End()
	start := time.Now()

	var (
		res *vocabulary.CountUpdate
		err error
	)
	if batch {
		res, err = s.count.UpdateBatch(ctx, docs)
	} else {
		res, err = s.count.Update(ctx, docs[0])
	}
	s.observe(ModeCount, start, len(docs), res != nil, err)
	if res != nil {
		span.SetAttr("new_words", len(res.NewWords))
		span.SetAttr("op", string(res.Op))
		if s.metrics != nil {
			s.metrics.NewWordsTotal.Add(float64(len(res.NewWords)))
		}
	}
	return res, err
}

func (s *Service) updateWeight(ctx context.Context, docs []string, batch bool) (*vocabulary.WeightUpdate, error) {
	ctx, span := tracing.StartSpan(ctx, "weight.update", "")
	defer span.End()
	start := time.Now()

	var (
		res *vocabulary.WeightUpdate
		err error
	)
	if batch {
		res, err = s.weight.UpdateBatch(ctx, docs)
	} else {
		res, err = s.weight.Update(ctx, docs[0])
	}
	s.observe(ModeWeight, start, len(docs), res != nil, err)
	if res != nil {
		span.SetAttr("words", len(res.Scores))
		span.SetAttr("op", string(res.Op))
	}
	return res, err
}

func (s *Service) notify(ctx context.Context, log *slog.Logger, cu *vocabulary.CountUpdate) {
	if s.notifier == nil {
		return
	}
	event := ingestion.VocabularyEvent{
		Collection:     s.count.Collection(),
		NewWords:       cu.NewWords,
		VocabularySize: s.count.Len(),
		Documents:      s.weight.Documents(),
		Flushed:        cu.Flushed,
		At:             time.Now().UTC(),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		log.Warn("vocabulary event not published", "new_words", len(cu.NewWords), "error", err)
	}
}

func modeResult(op string, flushed bool, err error) ingestion.ModeResult {
	r := ingestion.ModeResult{Op: op, Flushed: flushed}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func (s *Service) observe(mode string, start time.Time, docs int, applied bool, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case !applied:
		outcome = "rejected"
	case err != nil:
		outcome = "flush_failed"
	}
	s.metrics.UpdateDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	s.metrics.DocumentsTotal.WithLabelValues(mode, outcome).Add(float64(docs))
}

func (s *Service) recordEvent(source, status string) {
	if s.metrics != nil {
		s.metrics.IngestEventsTotal.WithLabelValues(source, status).Inc()
	}
}

func (s *Service) updateGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.VocabularySize.WithLabelValues(ModeCount).Set(float64(s.count.Len()))
	s.metrics.VocabularySize.WithLabelValues(ModeWeight).Set(float64(s.weight.Len()))
	s.metrics.GlobalDocuments.Set(float64(s.weight.Documents()))
}

// Stats summarises both vocabularies.
func (s *Service) Stats() ingestion.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ingestion.Stats{
		CountCollection:  s.count.Collection(),
		CountWords:       s.count.Len(),
		CountState:       s.count.State().String(),
		WeightCollection: s.weight.Collection(),
		WeightWords:      s.weight.Len(),
		WeightState:      s.weight.State().String(),
		Documents:        s.weight.Documents(),
	}
}

// Words lists a vocabulary: count mode by ascending id, weight mode by
// descending weight. limit <= 0 lists every word.
func (s *Service) Words(mode string, limit int) ([]ingestion.WordEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []ingestion.WordEntry
	switch mode {
	case ModeCount:
		for w, id := range s.count.Vocabulary() {
			entries = append(entries, ingestion.WordEntry{Word: w, ID: &id})
		}
		sort.Slice(entries, func(i, j int) bool { return *entries[i].ID < *entries[j].ID })
	case ModeWeight:
		for w, weight := range s.weight.Representation() {
			entries = append(entries, ingestion.WordEntry{
				Word:              w,
				Weight:            weight,
				DocumentFrequency: s.weight.DocumentFrequency(w),
			})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Weight != entries[j].Weight {
				return entries[i].Weight > entries[j].Weight
			}
			return entries[i].Word < entries[j].Word
		})
	default:
		return nil, fmt.Errorf("%w: unknown mode %q (want %s or %s)", apperrors.ErrInvalidInput, mode, ModeCount, ModeWeight)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// IsRejection reports whether err means the request itself was unusable
// rather than the store failing.
func IsRejection(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidInput) || errors.Is(err, apperrors.ErrTokenization)
}
