package flow

import "temporal-worker-onboarding/shared"

// Event drives a transition. The types in this file are its only
// implementations.
type Event interface {
	isEvent()
}

type (
	// SetupSucceeded carries the two setup lookups.
	SetupSucceeded struct {
		Business shared.BusinessProfile
		Worker   shared.WorkerInfo
		TestMode bool
	}

	// ProfileAccepted follows a validated and accepted profile submission.
	ProfileAccepted struct {
		Identity shared.Identity
	}

	// AccountAccepted follows an accepted account submission, or the test
	// mode bypass.
	AccountAccepted struct {
		Email string
	}

	DocumentTypeSelected struct {
		DocumentType shared.DocumentType
	}

	// VerificationCompleted follows a done outcome whose result the backend
	// accepted.
	VerificationCompleted struct {
		SessionID string
	}

	// VerificationReused re-enters signing with an earlier completion.
	VerificationReused struct{}

	VerificationCanceled struct{}

	// DocumentCaptured carries the vault reference of the captured image.
	DocumentCaptured struct {
		ImageRef string
	}

	CaptureRetaken struct{}

	CaptureUploaded struct{}

	CaptureAbandoned struct{}

	SigningOpened struct {
		Signing shared.Signing
	}

	SigningFinished struct{}

	// SigningAborted covers both the cancelled and closed adapter events.
	SigningAborted struct{}

	PaperworkSubmitted struct{}

	SigningBackedOut struct{}

	ExitConfirmed struct{}

	// FatalError moves any non-terminal state to Failed.
	FatalError struct {
		Kind   shared.ErrorKind
		Reason string
	}
)

func (SetupSucceeded) isEvent()        {}
func (ProfileAccepted) isEvent()       {}
func (AccountAccepted) isEvent()       {}
func (DocumentTypeSelected) isEvent()  {}
func (VerificationCompleted) isEvent() {}
func (VerificationReused) isEvent()    {}
func (VerificationCanceled) isEvent()  {}
func (DocumentCaptured) isEvent()      {}
func (CaptureRetaken) isEvent()        {}
func (CaptureUploaded) isEvent()       {}
func (CaptureAbandoned) isEvent()      {}
func (SigningOpened) isEvent()         {}
func (SigningFinished) isEvent()       {}
func (SigningAborted) isEvent()        {}
func (PaperworkSubmitted) isEvent()    {}
func (SigningBackedOut) isEvent()      {}
func (ExitConfirmed) isEvent()         {}
func (FatalError) isEvent()            {}
