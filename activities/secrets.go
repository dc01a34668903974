package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"temporal-worker-onboarding/handoff"
	"temporal-worker-onboarding/shared"
)

// reveal reads a sealed value that later steps still need.
func (a *Activities) reveal(ctx context.Context, ref, what string) ([]byte, error) {
	return a.unseal(ctx, ref, what, a.Secrets.Reveal)
}

// redeem reads a sealed value and deletes it, so a replayed or repeated
// attempt cannot send it twice.
func (a *Activities) redeem(ctx context.Context, ref, what string) ([]byte, error) {
	return a.unseal(ctx, ref, what, a.Secrets.Redeem)
}

func (a *Activities) unseal(ctx context.Context, ref, what string, read func(context.Context, string) ([]byte, error)) ([]byte, error) {
	if a.Secrets == nil {
		return nil, misconfigured("secret storage is not configured", nil)
	}
	if ref == "" {
		return nil, rejected(fmt.Sprintf("the %s is missing, please enter it again", what))
	}
	value, err := read(ctx, ref)
	if errors.Is(err, handoff.ErrSecretGone) {
		return nil, rejected(fmt.Sprintf("the %s has expired, please enter it again", what))
	}
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(fmt.Sprintf("the %s could not be read", what), shared.ErrTypeRemote, err)
	}
	return value, nil
}

// PurgeSecrets drops every sealed value the session referenced. The
// workflow runs it once on the way out; entries it misses still expire.
func (a *Activities) PurgeSecrets(ctx context.Context, refs []string) error {
	if a.Secrets == nil || len(refs) == 0 {
		return nil
	}
	if err := a.Secrets.Discard(ctx, refs...); err != nil {
		return fmt.Errorf("purge secrets: %w", err)
	}
	activity.GetLogger(ctx).Info("Secrets purged", "count", len(refs))
	return nil
}
