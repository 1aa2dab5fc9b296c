// Package router wires the vocabulary API routes and applies the middleware
// chain (RequestID → CORS → Metrics → Timeout).
package router

import (
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/middleware"
)

// Route paths.
const (
	PathDocuments = "/api/v1/documents"
	PathStats     = "/api/v1/vocabulary/stats"
	PathWords     = "/api/v1/vocabulary/words"
	PathLive      = "/health/live"
	PathReady     = "/health/ready"
)

// New builds the API handler.
//
// Route table:
//
//	POST   /api/v1/documents          → ingest one document or a batch
//	GET    /api/v1/vocabulary/stats   → vocabulary sizes, states, documents
//	GET    /api/v1/vocabulary/words   → list words (mode, limit)
//	GET    /health/live               → liveness
//	GET    /health/ready              → readiness (store ping)
//
// Middleware chain (outermost first):
//
//	RequestID → CORS → Metrics → Timeout → handler
//
// writeGuard, when set, wraps the document write route only. m may be nil
// to skip request metrics.
func New(h *handler.Handler, checker *health.Checker, m *metrics.Metrics, cfg config.ServerConfig, writeGuard func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+PathLive, checker.LiveHandler())
	mux.HandleFunc("GET "+PathReady, checker.ReadyHandler())

	var ingest http.Handler = http.HandlerFunc(h.Ingest)
	if writeGuard != nil {
		ingest = writeGuard(ingest)
	}
	mux.Handle("POST "+PathDocuments, ingest)
	mux.HandleFunc("GET "+PathStats, h.Stats)
	mux.HandleFunc("GET "+PathWords, h.Words)

	var chain http.Handler = mux
	chain = pkgmw.Timeout(cfg.RequestTimeout)(chain)
	if m != nil {
		chain = pkgmw.Metrics(m, PathDocuments, PathStats, PathWords, PathLive, PathReady)(chain)
	}
	chain = pkgmw.CORS(pkgmw.DefaultCORSConfig(cfg.CORSOrigins...))(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}
