// Package verification adapts the identity verification provider. A launch
// hands the provider session URL to the worker's device and resolves to one
// of done, canceled or error.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"temporal-worker-onboarding/shared"
)

// Status values reported by the provider SDK.
const (
	StatusDone     = "STATUS_DONE"
	StatusCanceled = "STATUS_CANCELED"
	StatusError    = "STATUS_ERROR"
)

// ErrUnavailable is returned by every launch when no provider is configured.
var ErrUnavailable = errors.New("identity verification is not available")

// Launcher starts a verification session. taskToken identifies the
// calling activity so asynchronous launchers can complete it later.
type Launcher interface {
	Launch(ctx context.Context, taskToken []byte, l shared.VerificationLaunch) (shared.VerificationOutcome, error)
}

// Unavailable stands in for a provider that could not be loaded.
type Unavailable struct{}

func (Unavailable) Launch(context.Context, []byte, shared.VerificationLaunch) (shared.VerificationOutcome, error) {
	return shared.VerificationOutcome{}, ErrUnavailable
}

// Reduce maps a provider status to an outcome. Both the SDK spelling
// (STATUS_DONE) and the short form (done) are accepted; anything else is
// an error outcome.
func Reduce(status, reason string) shared.VerificationOutcome {
	s := strings.ToUpper(strings.TrimSpace(status))
	s = strings.TrimPrefix(s, "STATUS_")
	switch s {
	case "DONE":
		return shared.VerificationOutcome{Status: shared.VerificationDone}
	case "CANCELED", "CANCELLED":
		return shared.VerificationOutcome{Status: shared.VerificationCanceled}
	case "ERROR":
		if reason == "" {
			reason = "verification failed"
		}
		return shared.VerificationOutcome{Status: shared.VerificationErrored, Reason: reason}
	}
	return shared.VerificationOutcome{
		Status: shared.VerificationErrored,
		Reason: fmt.Sprintf("unrecognised verification status %q", status),
	}
}
