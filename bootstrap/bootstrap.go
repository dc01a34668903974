// Package bootstrap wires the shared process dependencies used by the
// worker and server binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"temporal-worker-onboarding/activities"
	"temporal-worker-onboarding/config"
	"temporal-worker-onboarding/esign"
	"temporal-worker-onboarding/gateway"
	"temporal-worker-onboarding/handoff"
	"temporal-worker-onboarding/logger"
	"temporal-worker-onboarding/metrics"
	"temporal-worker-onboarding/shared"
	"temporal-worker-onboarding/verification"
)

// Dial connects to the Temporal frontend named by cfg.
func Dial(cfg config.Config, log *slog.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger.Temporal(log),
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", cfg.Temporal.HostPort, err)
	}
	return c, nil
}

// Handoff is the state shared between the API and the activity worker:
// pending adapter sessions and sealed form secrets.
type Handoff struct {
	Store handoff.Store
	Vault handoff.Vault
	Close func()
}

// OpenHandoff returns Redis-backed storage when a URL is configured and
// in-process storage otherwise. In-process storage only works when the
// activity worker and the API share a process.
func OpenHandoff(ctx context.Context, cfg config.Config, log *slog.Logger) (Handoff, error) {
	if cfg.Adapters.RedisURL == "" {
		log.Warn("no redis url configured, adapter sessions and form secrets are held in memory")
		return Handoff{Store: handoff.NewMemoryStore(), Vault: handoff.NewMemoryVault(), Close: func() {}}, nil
	}
	s, err := handoff.Dial(ctx, cfg.Adapters.RedisURL, cfg.Adapters.HandoffTTL)
	if err != nil {
		return Handoff{}, err
	}
	return Handoff{Store: s, Vault: s.Vault(), Close: func() { _ = s.Close() }}, nil
}

// Adapters holds the device-facing halves of both adapters.
type Adapters struct {
	Verification *verification.Bridge
	Signing      *esign.Bridge
}

// NewAdapters builds both bridges. Verification is nil when disabled.
func NewAdapters(cfg config.Config, store handoff.Store, c client.Client) Adapters {
	a := Adapters{Signing: esign.NewBridge(store, c, cfg.Adapters.SigningEmbedBase)}
	if cfg.Adapters.VerificationEnabled {
		a.Verification = verification.NewBridge(store, c)
	}
	return a
}

// NewActivities builds the activity struct registered with the worker.
func NewActivities(cfg config.Config, adapters Adapters, secrets handoff.Vault, m *metrics.Metrics, log *slog.Logger) *activities.Activities {
	a := &activities.Activities{
		Gateway: gateway.New(cfg.Backend.BaseURL,
			gateway.WithLogger(log),
			gateway.WithTimeouts(cfg.Backend.CallTimeout, cfg.Backend.UploadTimeout),
		),
		Signer:          adapters.Signing,
		Secrets:         secrets,
		Metrics:         m,
		HostCallbackURL: cfg.HostCallbackURL,
	}
	if adapters.Verification != nil {
		a.Verifier = adapters.Verification
	} else {
		a.Verifier = verification.Unavailable{}
	}
	return a
}

// NewActivityWorker registers a on the activity task queue.
func NewActivityWorker(c client.Client, a *activities.Activities) worker.Worker {
	w := worker.New(c, shared.ActivityTaskQueue, worker.Options{})
	w.RegisterActivity(a)
	return w
}
