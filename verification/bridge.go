package verification

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"temporal-worker-onboarding/handoff"
	"temporal-worker-onboarding/shared"
)

const adapterName = "verification"

// Completer is satisfied by client.Client.
type Completer interface {
	CompleteActivity(ctx context.Context, taskToken []byte, result interface{}, err error) error
}

// Bridge parks the launching activity until the device reports the
// provider's result through Complete.
type Bridge struct {
	store     handoff.Store
	completer Completer
	now       func() time.Time
}

func NewBridge(store handoff.Store, completer Completer) *Bridge {
	return &Bridge{store: store, completer: completer, now: time.Now}
}

// Launch records the session URL and returns activity.ErrResultPending.
func (b *Bridge) Launch(ctx context.Context, taskToken []byte, l shared.VerificationLaunch) (shared.VerificationOutcome, error) {
	if l.Session.URL == "" {
		return shared.VerificationOutcome{}, fmt.Errorf("verification session %q has no url", l.Session.ID)
	}
	p := handoff.Pending{TaskToken: taskToken, URL: l.Session.URL, CreatedAt: b.now()}
	if err := b.store.Put(ctx, handoff.Key(l.SessionKey, adapterName), p); err != nil {
		return shared.VerificationOutcome{}, err
	}
	return shared.VerificationOutcome{}, activity.ErrResultPending
}

// PendingURL returns the session URL the device should open.
func (b *Bridge) PendingURL(ctx context.Context, sessionKey string) (string, error) {
	p, err := b.store.Peek(ctx, handoff.Key(sessionKey, adapterName))
	if err != nil {
		return "", err
	}
	return p.URL, nil
}

// Complete resolves the pending launch. A second call for the same session
// returns handoff.ErrNotFound.
func (b *Bridge) Complete(ctx context.Context, sessionKey, status, reason string) (shared.VerificationOutcome, error) {
	p, err := b.store.Take(ctx, handoff.Key(sessionKey, adapterName))
	if err != nil {
		return shared.VerificationOutcome{}, err
	}
	outcome := Reduce(status, reason)
	if err := b.completer.CompleteActivity(ctx, p.TaskToken, outcome, nil); err != nil {
		return shared.VerificationOutcome{}, fmt.Errorf("complete verification launch: %w", err)
	}
	return outcome, nil
}
