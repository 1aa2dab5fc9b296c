// Package consumer feeds documents from the Kafka ingest topic into the
// vocabularies.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/kafka"
)

// DocumentConsumer wraps a Kafka consumer to drive ingestion.
type DocumentConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a DocumentConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *DocumentConsumer {
	return &DocumentConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "document-consumer"),
	}
}

// Start consumes until ctx is cancelled.
func (dc *DocumentConsumer) Start(ctx context.Context) error {
	dc.logger.Info("document consumer starting")
	return dc.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler that ingests every IngestEvent.
//
// Undecodable or unusable events are logged and committed so they cannot
// block the partition. Store failures are absorbed by the ingester, so the
// message is committed as well: replaying it would count the document
// twice. Only unexpected ingester errors leave the message uncommitted.
func HandleMessage(ing ingestion.Ingester) kafka.MessageHandler {
	logger := slog.Default().With("component", "document-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		resp, err := ing.Ingest(ctx, ingestion.SourceKafka, event.Request())
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidInput) || errors.Is(err, apperrors.ErrTokenization) {
				logger.Warn("skipping unusable ingest event",
					"id", event.ID,
					"key", string(key),
					"error", err,
				)
				return nil
			}
			return fmt.Errorf("ingesting event %s: %w", event.ID, err)
		}
		logger.Debug("ingest event processed",
			"id", event.ID,
			"new_words", len(resp.NewWords),
			"documents", resp.Documents,
			"status", resp.Status,
		)
		return nil
	}
}
