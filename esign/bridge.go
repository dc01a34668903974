package esign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"temporal-worker-onboarding/handoff"
	"temporal-worker-onboarding/shared"
)

const adapterName = "signing"

// Presenter hosts a signing session until it produces a terminal outcome.
type Presenter interface {
	Present(ctx context.Context, taskToken []byte, l shared.SigningLaunch) (shared.SigningOutcome, error)
}

// Completer is satisfied by client.Client.
type Completer interface {
	CompleteActivity(ctx context.Context, taskToken []byte, result interface{}, err error) error
}

// ErrIgnored is returned by Deliver for messages that are not terminal.
var ErrIgnored = errors.New("signing message is not terminal")

// Bridge parks the presenting activity until the signing page posts a
// terminal message. Each session completes exactly once.
type Bridge struct {
	store     handoff.Store
	completer Completer
	embedBase string
	now       func() time.Time
}

func NewBridge(store handoff.Store, completer Completer, embedBase string) *Bridge {
	return &Bridge{store: store, completer: completer, embedBase: embedBase, now: time.Now}
}

func (b *Bridge) Present(ctx context.Context, taskToken []byte, l shared.SigningLaunch) (shared.SigningOutcome, error) {
	if l.Signing.SignatureID == "" || l.Signing.Token == "" {
		return "", ErrMalformedSignURL
	}
	p := handoff.Pending{
		TaskToken: taskToken,
		URL:       EmbedURL(b.embedBase, l.Signing),
		CreatedAt: b.now(),
	}
	if err := b.store.Put(ctx, handoff.Key(l.SessionKey, adapterName), p); err != nil {
		return "", err
	}
	return "", activity.ErrResultPending
}

// PendingURL returns the embed URL of the open session.
func (b *Bridge) PendingURL(ctx context.Context, sessionKey string) (string, error) {
	p, err := b.store.Peek(ctx, handoff.Key(sessionKey, adapterName))
	if err != nil {
		return "", err
	}
	return p.URL, nil
}

// Deliver forwards a page message. Non-terminal messages return ErrIgnored
// and leave the session open.
func (b *Bridge) Deliver(ctx context.Context, sessionKey, message string) (shared.SigningOutcome, error) {
	outcome, terminal := Reduce(message)
	if !terminal {
		return "", ErrIgnored
	}
	p, err := b.store.Take(ctx, handoff.Key(sessionKey, adapterName))
	if err != nil {
		return "", err
	}
	if err := b.completer.CompleteActivity(ctx, p.TaskToken, outcome, nil); err != nil {
		return "", fmt.Errorf("complete signing session: %w", err)
	}
	return outcome, nil
}
