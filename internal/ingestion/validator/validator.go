// Package validator checks ingest requests before they reach the
// vocabularies and reports per-field failures.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
)

const (
	maxDocumentLength = 1048576
	maxBatchSize      = 1000
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateIngestRequest requires exactly one of document and documents,
// no blank documents and bounded sizes.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	hasDoc := req.Document != ""
	hasBatch := len(req.Documents) > 0
	switch {
	case hasDoc && hasBatch:
		errs["document"] = "set either document or documents, not both"
	case !hasDoc && !hasBatch:
		errs["document"] = "document or documents is required"
	case hasDoc:
		if msg := checkDocument(req.Document); msg != "" {
			errs["document"] = msg
		}
	default:
		if len(req.Documents) > maxBatchSize {
			errs["documents"] = fmt.Sprintf("at most %d documents per batch", maxBatchSize)
			break
		}
		for i, doc := range req.Documents {
			if msg := checkDocument(doc); msg != "" {
				errs[fmt.Sprintf("documents[%d]", i)] = msg
			}
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func checkDocument(doc string) string {
	if strings.TrimSpace(doc) == "" {
		return "must not be blank"
	}
	if len(doc) > maxDocumentLength {
		return fmt.Sprintf("must be at most %d bytes", maxDocumentLength)
	}
	return ""
}
