// Package publisher announces vocabulary growth on Kafka so downstream
// consumers can extend their own feature spaces without polling the store.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/kafka"
)

// EventWriter is the part of kafka.Producer the publisher needs.
type EventWriter interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Publisher writes VocabularyEvents keyed by collection, so events of one
// vocabulary stay ordered within a partition.
type Publisher struct {
	writer EventWriter
	logger *slog.Logger
}

// New creates a Publisher over the given writer.
func New(writer EventWriter) *Publisher {
	return &Publisher{
		writer: writer,
		logger: slog.Default().With("component", "vocabulary-publisher"),
	}
}

// Notify publishes event.
func (p *Publisher) Notify(ctx context.Context, event ingestion.VocabularyEvent) error {
	if len(event.NewWords) == 0 {
		return nil
	}
	err := p.writer.Publish(ctx, kafka.Event{Key: event.Collection, Value: event})
	if err != nil {
		return fmt.Errorf("publishing vocabulary event for %s: %w", event.Collection, err)
	}
	p.logger.Debug("vocabulary event published",
		"collection", event.Collection,
		"new_words", len(event.NewWords),
		"vocabulary_size", event.VocabularySize,
	)
	return nil
}
