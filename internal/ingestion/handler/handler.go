// Package handler serves the vocabulary HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/service"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/logger"
)

const defaultWordsLimit = 100

type Handler struct {
	svc          *service.Service
	maxBodyBytes int64
	logger       *slog.Logger
}

func New(svc *service.Service, maxBodyBytes int64) *Handler {
	return &Handler{
		svc:          svc,
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "ingestion-handler"),
	}
}

// Ingest handles POST /api/v1/documents.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	var req ingestion.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.svc.Ingest(ctx, ingestion.SourceHTTP, &req)
	if err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		statusCode := apperrors.HTTPStatusCode(err)
		if service.IsRejection(err) {
			log.Info("document rejected", "error", err)
			h.writeError(w, statusCode, err.Error())
			return
		}
		log.Error("ingestion failed", "error", err, "status_code", statusCode)
		h.writeError(w, statusCode, "ingestion failed")
		return
	}
	log.Info("documents ingested",
		"new_words", len(resp.NewWords),
		"documents", resp.Documents,
		"status", resp.Status,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/v1/vocabulary/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Stats())
}

// Words handles GET /api/v1/vocabulary/words?mode=count|weight&limit=N.
func (h *Handler) Words(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = service.ModeCount
	}
	limit := defaultWordsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	words, err := h.svc.Words(mode, limit)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"mode":  mode,
		"words": words,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
