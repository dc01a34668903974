// Package flow is the onboarding state machine. States and events are closed
// sets of value types and Next is a pure function over them; the Temporal
// workflow performs the remote calls and feeds their results back in as
// events.
package flow

import "temporal-worker-onboarding/shared"

// State is one node of the onboarding state machine. The types in this file
// are its only implementations.
type State interface {
	Step() shared.Step
	isState()
}

// Carry is the data threaded by value through every non-terminal state.
type Carry struct {
	Session shared.SessionContext
	Worker  shared.WorkerInfo
	Record  shared.WorkerRecord
}

// Init waits for the business and worker lookups.
type Init struct {
	Credentials shared.Credentials
}

// ProfileInfo collects identity fields.
type ProfileInfo struct {
	Carry
}

// AccountInfo collects account credentials.
type AccountInfo struct {
	Carry
}

// Verification is the document-type choice. Verified is set only when a
// completed verification may be reused without relaunching the provider.
type Verification struct {
	Carry
	Choice   shared.DocumentType
	Verified bool
}

// DocumentCapture holds at most one captured image awaiting review.
type DocumentCapture struct {
	Carry
	Pending string // vault reference
}

// ESignature is the pre-signing prompt. Signed is set once the signing
// session finished but the paperwork has not been accepted yet.
type ESignature struct {
	Carry
	Signed bool
}

// Completed is terminal.
type Completed struct {
	Carry
}

// Cancelled is terminal and keeps no worker data.
type Cancelled struct{}

// Failed is terminal.
type Failed struct {
	Kind   shared.ErrorKind
	Reason string
}

func (Init) Step() shared.Step            { return shared.StepInit }
func (ProfileInfo) Step() shared.Step     { return shared.StepProfileInfo }
func (AccountInfo) Step() shared.Step     { return shared.StepAccountInfo }
func (Verification) Step() shared.Step    { return shared.StepVerification }
func (DocumentCapture) Step() shared.Step { return shared.StepDocumentCapture }
func (ESignature) Step() shared.Step      { return shared.StepESignature }
func (Completed) Step() shared.Step       { return shared.StepCompleted }
func (Cancelled) Step() shared.Step       { return shared.StepCancelled }
func (Failed) Step() shared.Step          { return shared.StepFailed }

func (Init) isState()            {}
func (ProfileInfo) isState()     {}
func (AccountInfo) isState()     {}
func (Verification) isState()    {}
func (DocumentCapture) isState() {}
func (ESignature) isState()      {}
func (Completed) isState()       {}
func (Cancelled) isState()       {}
func (Failed) isState()          {}

// CarryOf returns the threaded data of s, if it has any.
func CarryOf(s State) (Carry, bool) {
	switch s := s.(type) {
	case ProfileInfo:
		return s.Carry, true
	case AccountInfo:
		return s.Carry, true
	case Verification:
		return s.Carry, true
	case DocumentCapture:
		return s.Carry, true
	case ESignature:
		return s.Carry, true
	case Completed:
		return s.Carry, true
	}
	return Carry{}, false
}

// View projects s for the query handler.
func View(s State) shared.StateView {
	v := shared.StateView{Step: s.Step()}
	if c, ok := CarryOf(s); ok {
		v.TestMode = c.Session.TestMode
		v.Business = c.Session.Business
		v.Worker = c.Worker
		v.ProfileComplete = !c.Record.Identity.DateOfBirth.IsZero()
		v.Email = c.Record.Email
		v.DocumentType = c.Record.Verification.DocumentType
	}
	switch s := s.(type) {
	case Verification:
		v.DocumentType = s.Choice
		v.VerificationCompleted = s.Verified
	case DocumentCapture:
		v.VerificationCompleted = true
		v.PendingCapture = s.Pending != ""
	case ESignature:
		v.VerificationCompleted = true
		v.Signed = s.Signed
	case Failed:
		v.Reason = s.Reason
	}
	return v
}
