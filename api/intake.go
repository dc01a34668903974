package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"temporal-worker-onboarding/flow"
	"temporal-worker-onboarding/handoff"
	"temporal-worker-onboarding/shared"
)

// Intake seals the secret fields of worker forms before they become
// signal payloads, so workflow history only ever holds references.
type Intake struct {
	vault handoff.Vault
}

func NewIntake(v handoff.Vault) *Intake {
	return &Intake{vault: v}
}

// Profile normalizes and seals the SSN. Blank SSN parts produce a form
// without a reference, which the session reports as a missing field.
func (in *Intake) Profile(ctx context.Context, input shared.ProfileInput) (shared.ProfileForm, error) {
	form := shared.ProfileForm{ProfileDetails: input.ProfileDetails}
	if strings.TrimSpace(strings.Join(input.SSNParts, "")) == "" {
		return form, nil
	}
	ssn, err := flow.NormalizeSSN(input.SSNParts...)
	if err != nil {
		return shared.ProfileForm{}, err
	}
	form.SSNRef, err = in.seal(ctx, ssn, shared.IdentityTTL)
	if err != nil {
		return shared.ProfileForm{}, err
	}
	return form, nil
}

// Account checks and seals the password. Both password fields left blank
// produce a form without a reference, which test mode accepts.
func (in *Intake) Account(ctx context.Context, input shared.AccountInput) (shared.AccountForm, error) {
	form := shared.AccountForm{Email: input.Email}
	if input.Password == "" && input.ConfirmPassword == "" {
		return form, nil
	}
	if err := flow.ValidatePassword(input.Password, input.ConfirmPassword); err != nil {
		return shared.AccountForm{}, err
	}
	ref, err := in.seal(ctx, input.Password, shared.PasswordTTL)
	if err != nil {
		return shared.AccountForm{}, err
	}
	form.PasswordRef = ref
	return form, nil
}

// Capture seals the captured image. The image is often larger than a
// workflow payload may be.
func (in *Intake) Capture(ctx context.Context, input shared.CaptureInput) (shared.CapturedDocument, error) {
	if input.ImageBase64 == "" {
		return shared.CapturedDocument{}, nil
	}
	ref, err := in.seal(ctx, input.ImageBase64, shared.DocumentTTL)
	if err != nil {
		return shared.CapturedDocument{}, err
	}
	return shared.CapturedDocument{ImageRef: ref}, nil
}

func (in *Intake) seal(ctx context.Context, value string, ttl time.Duration) (string, error) {
	if in == nil || in.vault == nil {
		return "", errNoVault
	}
	ref, err := in.vault.Seal(ctx, []byte(value), ttl)
	if err != nil {
		return "", fmt.Errorf("seal form field: %w", err)
	}
	return ref, nil
}
