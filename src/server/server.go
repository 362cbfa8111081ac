package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/executors"
	"tradeexecutor/src/handler"
	"tradeexecutor/src/model"
	"tradeexecutor/src/repository"
	"tradeexecutor/src/risk"
)

// Deps are the live components the operational endpoints expose.
type Deps struct {
	Scheduler *executors.Scheduler
	Gate      *risk.Gate
	Ledger    *repository.LedgerRepository
	Defaults  model.SignalDefaults
}

// StartServer serves the operational API until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, port string, deps Deps) {
	// Router with middleware
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/healthcheck error")
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/signals", handler.SubmitSignalHandler(deps.Scheduler, deps.Defaults))
	r.Get("/risk", handler.RiskStateHandler(deps.Gate))
	r.Get("/executions", handler.ListExecutionsHandler(deps.Ledger))
	r.Get("/executions/{id}", handler.GetExecutionHandler(deps.Ledger))
	r.Post("/executions/{id}/reconcile", handler.ReconcileExecutionHandler(deps.Ledger))

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
