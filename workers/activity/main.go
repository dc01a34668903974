package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/worker"

	"temporal-worker-onboarding/bootstrap"
	"temporal-worker-onboarding/config"
	"temporal-worker-onboarding/logger"
	"temporal-worker-onboarding/metrics"
)

func main() {
	cfg, err := config.Load(os.Getenv("ONBOARDING_CONFIG"))
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}
	logr := logger.New(cfg.LogLevel)

	c, err := bootstrap.Dial(cfg, logr)
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	// A standalone activity worker needs shared handoff storage so the API
	// process can complete the adapter sessions it opens and seal the
	// secrets this worker reads.
	if cfg.Adapters.RedisURL == "" {
		logr.Warn("standalone activity worker without redis; adapter sessions and form secrets cannot be shared with the API")
	}
	h, err := bootstrap.OpenHandoff(context.Background(), cfg, logr)
	if err != nil {
		log.Fatalf("Unable to open handoff store: %v", err)
	}
	defer h.Close()

	// Remote call and outcome metrics are recorded here, so this process
	// serves its own scrape endpoint.
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("metrics endpoint stopped", "addr", cfg.Server.MetricsAddr, "error", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = metricsServer.Shutdown(ctx)
	}()

	adapters := bootstrap.NewAdapters(cfg, h.Store, c)
	a := bootstrap.NewActivities(cfg, adapters, h.Vault, metrics.New(), logr)
	w := bootstrap.NewActivityWorker(c, a)

	logr.Info("Starting activity worker...", "metricsAddr", cfg.Server.MetricsAddr)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Unable to start worker: %v", err)
	}
}
