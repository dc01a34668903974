package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"temporal-worker-onboarding/api"
	"temporal-worker-onboarding/bootstrap"
	"temporal-worker-onboarding/config"
	"temporal-worker-onboarding/logger"
	"temporal-worker-onboarding/metrics"
)

// main serves the host API and the metrics endpoint, and runs the activity
// worker in-process unless disabled.
func main() {
	cfg, err := config.Load(os.Getenv("ONBOARDING_CONFIG"))
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}
	logr := logger.New(cfg.LogLevel)
	if err := run(cfg, logr); err != nil {
		logr.Error("onboarding server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logr *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap.Dial(cfg, logr)
	if err != nil {
		return err
	}
	defer c.Close()

	h, err := bootstrap.OpenHandoff(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer h.Close()

	m := metrics.New()
	adapters := bootstrap.NewAdapters(cfg, h.Store, c)

	opts := []api.Option{
		api.WithLogger(logr),
		api.WithMetrics(m),
		api.WithSecrets(h.Vault),
		api.WithSigning(adapters.Signing),
	}
	if adapters.Verification != nil {
		opts = append(opts, api.WithVerification(adapters.Verification))
	}
	handler := api.New(api.NewTemporalEngine(c), opts...)

	apiServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.Server.RunActivityWorker {
		w := bootstrap.NewActivityWorker(c, bootstrap.NewActivities(cfg, adapters, h.Vault, m, logr))
		if err := w.Start(); err != nil {
			return fmt.Errorf("start activity worker: %w", err)
		}
		defer w.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(apiServer) })
	g.Go(func() error { return serve(metricsServer) })

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(apiServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	logr.Info("onboarding server started",
		"addr", cfg.Server.Addr,
		"metricsAddr", cfg.Server.MetricsAddr,
		"activityWorker", cfg.Server.RunActivityWorker,
	)
	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
