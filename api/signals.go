package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"temporal-worker-onboarding/shared"
)

var (
	errMalformed = errors.New("signal payload is not valid JSON")
	errNoVault   = errors.New("secret storage is not configured")
)

type signalRoute struct {
	name   string
	decode func(*http.Request, *Intake) (any, error)
}

// signalRoutes maps the URL name of a worker event to its workflow signal
// and payload type. Forms with secret fields pass through the intake.
var signalRoutes = map[string]signalRoute{
	"profile":         {shared.SignalProfileSubmitted, sealed((*Intake).Profile)},
	"account":         {shared.SignalAccountSubmitted, sealed((*Intake).Account)},
	"document-type":   {shared.SignalDocumentTypeSelected, decodeDocumentType},
	"verification":    {shared.SignalVerificationRequested, noPayload},
	"capture":         {shared.SignalDocumentCaptured, sealed((*Intake).Capture)},
	"review":          {shared.SignalCaptureReviewed, plain[shared.CaptureReview]},
	"abandon-capture": {shared.SignalCaptureAbandoned, noPayload},
	"signing":         {shared.SignalSigningRequested, noPayload},
	"back-out":        {shared.SignalSigningBackedOut, noPayload},
	"exit":            {shared.SignalExitConfirmed, noPayload},
}

func decodeBody[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return v, nil
}

func plain[T any](r *http.Request, _ *Intake) (any, error) {
	return decodeBody[T](r)
}

// sealed decodes the worker's input and returns the form built by the
// intake step.
func sealed[In, Out any](step func(*Intake, context.Context, In) (Out, error)) func(*http.Request, *Intake) (any, error) {
	return func(r *http.Request, in *Intake) (any, error) {
		input, err := decodeBody[In](r)
		if err != nil {
			return nil, err
		}
		return step(in, r.Context(), input)
	}
}

func decodeDocumentType(r *http.Request, _ *Intake) (any, error) {
	body, err := decodeBody[struct {
		DocumentType shared.DocumentType `json:"documentType"`
	}](r)
	if err != nil {
		return nil, err
	}
	return body.DocumentType, nil
}

func noPayload(*http.Request, *Intake) (any, error) {
	return nil, nil
}
