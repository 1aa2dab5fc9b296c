// Package ingestion defines the request, response and event types shared
// by every path that feeds documents into the vocabularies: the HTTP API,
// the Kafka consumer, the directory watcher and the CLI.
package ingestion

import (
	"context"
	"time"
)

// Sources of an ingest request.
const (
	SourceHTTP  = "http"
	SourceKafka = "kafka"
	SourceWatch = "watch"
	SourceCLI   = "cli"
)

// Response statuses.
const (
	StatusOK = "ok"
	// StatusPartial means the vocabularies changed in memory but at least
	// one checkpoint flush failed.
	StatusPartial = "partial"
)

// IngestRequest carries either one document or a batch. A batch is scored
// as a single input by the weighting vocabulary.
type IngestRequest struct {
	Document  string   `json:"document,omitempty"`
	Documents []string `json:"documents,omitempty"`
}

// Docs returns the documents of r and whether they form a batch.
func (r *IngestRequest) Docs() ([]string, bool) {
	if len(r.Documents) > 0 {
		return r.Documents, true
	}
	return []string{r.Document}, false
}

// ModeResult reports what one accumulator did with a request.
type ModeResult struct {
	Op      string `json:"op"`
	Flushed bool   `json:"flushed"`
	Error   string `json:"error,omitempty"`
}

// IngestResponse is returned once both vocabularies processed a request.
type IngestResponse struct {
	Status    string             `json:"status"`
	NewWords  map[string]int     `json:"new_words,omitempty"`
	Scores    map[string]float64 `json:"scores,omitempty"`
	Documents int                `json:"documents"`
	Count     ModeResult         `json:"count"`
	Weight    ModeResult         `json:"weight"`
}

// IngestEvent is the Kafka message payload on the document ingest topic.
type IngestEvent struct {
	ID         string    `json:"id,omitempty"`
	Document   string    `json:"document,omitempty"`
	Documents  []string  `json:"documents,omitempty"`
	IngestedAt time.Time `json:"ingested_at,omitempty"`
}

// Request converts the event to an IngestRequest.
func (e IngestEvent) Request() *IngestRequest {
	return &IngestRequest{Document: e.Document, Documents: e.Documents}
}

// VocabularyEvent announces words that were assigned ids.
type VocabularyEvent struct {
	Collection     string         `json:"collection"`
	NewWords       map[string]int `json:"new_words"`
	VocabularySize int            `json:"vocabulary_size"`
	Documents      int            `json:"documents"`
	Flushed        bool           `json:"flushed"`
	At             time.Time      `json:"at"`
}

// Stats summarises both vocabularies.
type Stats struct {
	CountCollection  string `json:"count_collection"`
	CountWords       int    `json:"count_words"`
	CountState       string `json:"count_state"`
	WeightCollection string `json:"weight_collection"`
	WeightWords      int    `json:"weight_words"`
	WeightState      string `json:"weight_state"`
	Documents        int    `json:"documents"`
}

// WordEntry is one row of a vocabulary listing. Count mode fills ID,
// weight mode fills Weight and DocumentFrequency.
type WordEntry struct {
	Word              string  `json:"word"`
	ID                *int    `json:"id,omitempty"`
	Weight            float64 `json:"weight,omitempty"`
	DocumentFrequency int     `json:"document_frequency,omitempty"`
}

// Ingester feeds one request into the vocabularies.
type Ingester interface {
	Ingest(ctx context.Context, source string, req *IngestRequest) (*IngestResponse, error)
}
