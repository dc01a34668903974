// Package esign adapts the embedded e-signature provider. The backend
// returns a sign URL; this package owns its format so the orchestrator only
// ever sees a structured session.
package esign

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"temporal-worker-onboarding/shared"
)

// ErrMalformedSignURL is returned when a sign URL lacks signature_id or token.
var ErrMalformedSignURL = errors.New("malformed sign url")

// ParseSignURL extracts the signature id and token query parameters.
func ParseSignURL(signURL string) (signatureID, token string, err error) {
	u, err := url.Parse(signURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedSignURL, err)
	}
	q := u.Query()
	signatureID, token = q.Get("signature_id"), q.Get("token")
	if signatureID == "" || token == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedSignURL, signURL)
	}
	return signatureID, token, nil
}

// NewSession builds a SigningSession from the backend's signing response.
func NewSession(signURL, employeeSigID, companySigID, signatureRequestID string) (shared.SigningSession, error) {
	signatureID, token, err := ParseSignURL(signURL)
	if err != nil {
		return shared.SigningSession{}, err
	}
	return shared.SigningSession{
		SignURL: signURL,
		Signing: shared.Signing{
			EmployeeSigID:      employeeSigID,
			CompanySigID:       companySigID,
			SignatureRequestID: signatureRequestID,
			SignatureID:        signatureID,
			Token:              token,
		},
	}, nil
}

// EmbedURL is the page that hosts the signing UI for a session.
func EmbedURL(base string, s shared.Signing) string {
	q := url.Values{}
	q.Set("signature_id", s.SignatureID)
	q.Set("token", s.Token)
	return strings.TrimRight(base, "/") + "/?" + q.Encode()
}

// Reduce maps a message posted by the signing page to a terminal outcome.
// Other messages are progress noise and report false.
func Reduce(message string) (shared.SigningOutcome, bool) {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "finished":
		return shared.SigningFinished, true
	case "cancelled", "canceled":
		return shared.SigningCancelled, true
	case "closed":
		return shared.SigningClosed, true
	}
	return "", false
}
