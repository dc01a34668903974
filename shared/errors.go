package shared

import "fmt"

// ErrorKind classifies a failure surfaced to the worker or the host.
type ErrorKind string

const (
	ErrorKindConfiguration ErrorKind = ErrTypeConfiguration
	ErrorKindSetup         ErrorKind = ErrTypeSetup
	ErrorKindValidation    ErrorKind = ErrTypeValidation
	ErrorKindRemote        ErrorKind = ErrTypeRemote
	ErrorKindSubmission    ErrorKind = ErrTypeSubmission
	ErrorKindVerification  ErrorKind = ErrTypeVerification
)

// StepError is a classified failure attached to the step that produced it.
type StepError struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *StepError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewStepError builds a StepError without a field.
func NewStepError(kind ErrorKind, message string) *StepError {
	return &StepError{Kind: kind, Message: message}
}
