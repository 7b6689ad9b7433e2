// Command web serves the chip history and derived signals as a read-only
// JSON API, with health and Prometheus metrics endpoints. The history is
// built once at startup and rebuilt on demand via POST /api/rescan.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"chipcli/internal/config"
	"chipcli/internal/infrastructure"
	"chipcli/internal/services"
	transport "chipcli/internal/transport/http"
	"chipcli/pkg/contracts/domain"
)

// historyStore holds the current history snapshot behind a mutex so the
// rescan endpoint can swap it atomically.
type historyStore struct {
	mu      sync.RWMutex
	history *domain.ChipHistory
}

// History implements transport.HistoryProvider.
func (s *historyStore) History() *domain.ChipHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history
}

func (s *historyStore) set(h *domain.ChipHistory) {
	s.mu.Lock()
	s.history = h
	s.mu.Unlock()
}

func main() {
	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Server: config.ServerConfig{Port: 8080, ReadTimeoutSec: 15, WriteTimeoutSec: 30, IdleTimeoutSec: 60},
			Logging: config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   "both",
				FilePath: paths.GetLogPath("web.log"),
			},
			Scan: config.ScanConfig{Workers: 4},
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(nil, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to register metrics", slog.String("error", err.Error()))
		os.Exit(1)
	}

	scanner := services.NewScanService(paths.DataDir, cfg.Scan.Workers, logger, metrics)
	signals := services.NewSignalService(logger)
	store := &historyStore{}

	ctx := infrastructure.EnsureTraceID(context.Background())
	history, summary, err := scanner.BuildHistory(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Initial history build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	store.set(history)
	logger.InfoContext(ctx, "Initial history ready",
		slog.Int("records", len(history.Entries)),
		slog.Int("parse_failures", len(summary.Failures)))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(traceMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/history", transport.NewHistoryHandler(store, logger).Routes())
		r.Mount("/signals", transport.NewSignalsHandler(store, signals, logger).Routes())
		r.Post("/rescan", func(w http.ResponseWriter, req *http.Request) {
			history, summary, err := scanner.BuildHistory(req.Context())
			if err != nil {
				logger.ErrorContext(req.Context(), "Rescan failed", slog.String("error", err.Error()))
				render.Status(req, http.StatusInternalServerError)
				render.JSON(w, req, map[string]string{"error": err.Error()})
				return
			}
			store.set(history)
			render.JSON(w, req, summary)
		})
	})
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]any{
			"status":  "ok",
			"records": len(store.History().Entries),
		})
	})
	if providers.PrometheusHTTP != nil {
		r.Handle("/metrics", providers.PrometheusHTTP)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped")
}

// traceMiddleware threads the chi request ID into the logging context as
// the trace ID.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = infrastructure.WithTraceID(ctx, reqID)
		} else {
			ctx = infrastructure.EnsureTraceID(ctx)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
