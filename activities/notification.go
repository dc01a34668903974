package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"temporal-worker-onboarding/shared"
)

// NotifyHost reports the session's terminal event to the host.
// Idempotency: the host receives the session key and should treat repeated
// deliveries of the same event as one.
func (a *Activities) NotifyHost(ctx context.Context, n shared.HostNotification) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Notifying host",
		"sessionKey", n.SessionKey,
		"event", n.Event,
		"showError", n.ShowError,
	)

	if a.HostCallbackURL == "" {
		logger.Info("No host callback configured, skipping", "sessionKey", n.SessionKey)
	} else if err := a.Gateway.NotifyHost(ctx, a.HostCallbackURL, n); err != nil {
		return fmt.Errorf("notify host: %w", err)
	}
	// Counted once per session: a failed attempt is retried and returns
	// above.
	a.Metrics.IncrementOutcome(string(n.Event))
	return nil
}
