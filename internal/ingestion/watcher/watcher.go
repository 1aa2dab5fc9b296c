// Package watcher ingests text files dropped into a directory. Each file
// becomes one document once it has stopped changing.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
)

// Watcher turns settled file writes in one directory into ingest requests.
type Watcher struct {
	dir        string
	extensions map[string]bool
	settle     time.Duration
	ingester   ingestion.Ingester
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	started chan struct{}
}

// New creates a Watcher for dir. Only files whose extension is listed are
// ingested; an empty list accepts every file.
func New(dir string, extensions []string, settle time.Duration, ing ingestion.Ingester) *Watcher {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return &Watcher{
		dir:        dir,
		extensions: exts,
		settle:     settle,
		ingester:   ing,
		logger:     slog.Default().With("component", "dir-watcher", "dir", dir),
		pending:    make(map[string]*time.Timer),
		ready:      make(chan string),
		started:    make(chan struct{}),
	}
}

// Started is closed once the directory is being watched.
func (w *Watcher) Started() <-chan struct{} {
	return w.started
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory %s is not a directory", w.dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching directory", "settle", w.settle)
	close(w.started)
	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("directory watcher stopping")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(ctx, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", "error", err)

		case path := <-w.ready:
			w.ingestFile(ctx, path)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !w.accepts(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(ctx, event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(event.Name)
	}
}

func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(base))]
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("reading settled file", "path", path, "error", err)
		return
	}
	resp, err := w.ingester.Ingest(ctx, ingestion.SourceWatch, &ingestion.IngestRequest{Document: string(data)})
	if err != nil {
		w.logger.Warn("file not ingested", "path", path, "error", err)
		return
	}
	w.logger.Info("file ingested",
		"path", path,
		"new_words", len(resp.NewWords),
		"status", resp.Status,
	)
}
