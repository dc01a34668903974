package flow

import (
	"errors"
	"fmt"

	"temporal-worker-onboarding/shared"
)

// ErrTerminal is returned for any event delivered after the session ended.
var ErrTerminal = errors.New("onboarding session has ended")

// TransitionError reports an event the current state does not accept.
type TransitionError struct {
	Step   shared.Step
	Event  string
	Detail string
}

func (e *TransitionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s does not accept %s: %s", e.Step, e.Event, e.Detail)
	}
	return fmt.Sprintf("%s does not accept %s", e.Step, e.Event)
}

func reject(s State, e Event, detail string) (State, error) {
	return s, &TransitionError{Step: s.Step(), Event: fmt.Sprintf("%T", e), Detail: detail}
}

// Next applies e to s. A rejected event returns s unchanged with an error.
func Next(s State, e Event) (State, error) {
	if s.Step().Terminal() {
		return s, ErrTerminal
	}

	switch e := e.(type) {
	case ExitConfirmed:
		return Cancelled{}, nil
	case FatalError:
		return Failed{Kind: e.Kind, Reason: e.Reason}, nil
	}

	switch s := s.(type) {
	case Init:
		return nextInit(s, e)
	case ProfileInfo:
		return nextProfile(s, e)
	case AccountInfo:
		return nextAccount(s, e)
	case Verification:
		return nextVerification(s, e)
	case DocumentCapture:
		return nextCapture(s, e)
	case ESignature:
		return nextSigning(s, e)
	}
	return reject(s, e, "")
}

func nextInit(s Init, e Event) (State, error) {
	ev, ok := e.(SetupSucceeded)
	if !ok {
		return reject(s, e, "")
	}
	return ProfileInfo{Carry{
		Session: shared.SessionContext{
			Credentials: s.Credentials,
			TestMode:    ev.TestMode,
			Business:    ev.Business,
		},
		Worker: ev.Worker,
	}}, nil
}

func nextProfile(s ProfileInfo, e Event) (State, error) {
	ev, ok := e.(ProfileAccepted)
	if !ok {
		return reject(s, e, "")
	}
	if err := requireIdentity(ev.Identity); err != nil {
		return reject(s, e, err.Error())
	}
	c := s.Carry
	c.Record.Identity = ev.Identity
	return AccountInfo{c}, nil
}

func nextAccount(s AccountInfo, e Event) (State, error) {
	ev, ok := e.(AccountAccepted)
	if !ok {
		return reject(s, e, "")
	}
	c := s.Carry
	c.Record.Email = ev.Email
	return Verification{Carry: c, Choice: shared.DocumentDriversLicense}, nil
}

func nextVerification(s Verification, e Event) (State, error) {
	switch ev := e.(type) {
	case DocumentTypeSelected:
		if !ev.DocumentType.Valid() {
			return reject(s, e, fmt.Sprintf("unknown document type %q", ev.DocumentType))
		}
		return Verification{Carry: s.Carry, Choice: ev.DocumentType}, nil

	case VerificationCanceled:
		return Verification{Carry: s.Carry, Choice: s.Choice}, nil

	case VerificationCompleted:
		if s.Verified {
			return reject(s, e, "verification already completed")
		}
		if ev.SessionID == "" {
			return reject(s, e, "missing verification session id")
		}
		c := s.Carry
		c.Record.Verification = shared.Verification{DocumentType: s.Choice, SessionID: ev.SessionID}
		if s.Choice == shared.DocumentDriversLicense {
			return DocumentCapture{Carry: c}, nil
		}
		return ESignature{Carry: c}, nil

	case VerificationReused:
		if !s.Verified {
			return reject(s, e, "no completed verification to reuse")
		}
		return ESignature{Carry: s.Carry}, nil
	}
	return reject(s, e, "")
}

func nextCapture(s DocumentCapture, e Event) (State, error) {
	switch ev := e.(type) {
	case DocumentCaptured:
		if ev.ImageRef == "" {
			return reject(s, e, "empty image")
		}
		return DocumentCapture{Carry: s.Carry, Pending: ev.ImageRef}, nil

	case CaptureRetaken:
		return DocumentCapture{Carry: s.Carry}, nil

	case CaptureUploaded:
		if s.Pending == "" {
			return reject(s, e, "no captured image")
		}
		return ESignature{Carry: s.Carry}, nil

	case CaptureAbandoned:
		c := s.Carry
		c.Record.Verification = shared.Verification{}
		return Verification{Carry: c, Choice: shared.DocumentDriversLicense}, nil
	}
	return reject(s, e, "")
}

func nextSigning(s ESignature, e Event) (State, error) {
	switch ev := e.(type) {
	case SigningOpened:
		if s.Signed {
			return reject(s, e, "paperwork already signed")
		}
		c := s.Carry
		c.Record.Signing = ev.Signing
		return ESignature{Carry: c}, nil

	case SigningAborted:
		return ESignature{Carry: s.Carry}, nil

	case SigningFinished:
		if s.Record.Signing.Empty() {
			return reject(s, e, "no signing session")
		}
		return ESignature{Carry: s.Carry, Signed: true}, nil

	case PaperworkSubmitted:
		if !s.Signed {
			return reject(s, e, "paperwork not signed")
		}
		return Completed{s.Carry}, nil

	case SigningBackedOut:
		if s.Signed {
			return reject(s, e, "paperwork already signed")
		}
		c := s.Carry
		c.Record.Signing = shared.Signing{}
		return Verification{Carry: c, Choice: c.Record.Verification.DocumentType, Verified: true}, nil
	}
	return reject(s, e, "")
}

// requireIdentity checks the fields every downstream submission depends on.
func requireIdentity(id shared.Identity) error {
	if id.DateOfBirth.IsZero() {
		return errors.New("date of birth not confirmed")
	}
	if id.SSNRef == "" {
		return errors.New("ssn not sealed")
	}
	return nil
}
