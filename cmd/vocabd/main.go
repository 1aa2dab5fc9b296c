// Command vocabd runs the live vocabulary service.
//
// It loads both vocabularies from the configured store, serves the HTTP API
// (POST /api/v1/documents, GET /api/v1/vocabulary/{stats,words}), and
// optionally consumes documents from Kafka and from a watched directory.
// Vocabulary growth is published to Kafka when brokers are configured.
//
// Usage:
//
//	go run ./cmd/vocabd [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/app"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/auth"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/consumer"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/router"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/service"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/watcher"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting vocabulary service",
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"kafka", cfg.Kafka.Enabled(),
		"watch_dir", cfg.Watch.Dir,
	)

	if err := run(cfg); err != nil {
		slog.Error("vocabulary service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("vocabulary service stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, m)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	var notifier service.Notifier
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.VocabularyUpdates)
		defer producer.Close()
		notifier = publisher.New(producer)
		slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.VocabularyUpdates)
	}

	a, err := app.New(ctx, cfg, m, notifier)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("store close error", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("store", health.PingCheck(a.Store, a.StoreDegraded))

	validator, err := apikey.NewValidator(cfg.Auth)
	if err != nil {
		return err
	}
	var limiter *ratelimit.Limiter
	if cfg.Auth.RateLimit > 0 || validator.Enabled() {
		limiter = ratelimit.New(cfg.Auth.RateWindow)
	}
	slog.Info("write guard configured",
		"api_keys", len(cfg.Auth.APIKeys),
		"rate_limit", cfg.Auth.RateLimit,
		"rate_window", cfg.Auth.RateWindow,
	)

	h := handler.New(a.Service, cfg.Server.MaxBodyBytes)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.New(h, checker, m, cfg.Server, auth.Guard(validator, limiter, cfg.Auth.RateLimit)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("vocabulary service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		return nil
	})

	if limiter != nil {
		g.Go(func() error {
			limiter.Run(gctx, 5*time.Minute)
			return nil
		})
	}

	if cfg.Kafka.Enabled() {
		kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(a.Service))
		dc := consumer.New(kc)
		g.Go(func() error {
			return dc.Start(gctx)
		})
	}

	if cfg.Watch.Dir != "" {
		w := watcher.New(cfg.Watch.Dir, cfg.Watch.Extensions, cfg.Watch.Settle, a.Service)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	return g.Wait()
}
