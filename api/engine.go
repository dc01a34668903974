package api

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"temporal-worker-onboarding/shared"
	"temporal-worker-onboarding/workflows"
)

// ErrSessionNotFound means no running session exists under the key.
var ErrSessionNotFound = errors.New("onboarding session not found")

// Started describes the outcome of Start. Joined is set when a session was
// already running under the key.
type Started struct {
	SessionKey string
	Joined     bool
}

// Engine drives onboarding sessions.
type Engine interface {
	Start(ctx context.Context, req shared.OnboardingRequest) (Started, error)
	Signal(ctx context.Context, sessionKey, signal string, payload any) error
	State(ctx context.Context, sessionKey string) (shared.StateView, error)
}

// SessionKey is the workflow ID of the session onboarding a worker. It
// doubles as an idempotency key: starting twice joins the running session.
func SessionKey(c shared.Credentials) string {
	return fmt.Sprintf("onboard-%s-%s", c.CompanyID, c.EmployeeID)
}

// TemporalEngine runs sessions as OnboardingWorkflow executions.
type TemporalEngine struct {
	client client.Client
}

func NewTemporalEngine(c client.Client) *TemporalEngine {
	return &TemporalEngine{client: c}
}

// Start validates the credentials before any network call, then starts
// the session workflow or joins the one already running.
func (e *TemporalEngine) Start(ctx context.Context, req shared.OnboardingRequest) (Started, error) {
	if err := req.Credentials.Validate(); err != nil {
		return Started{}, err
	}
	key := SessionKey(req.Credentials)
	we, err := e.client.ExecuteWorkflow(ctx,
		client.StartWorkflowOptions{
			ID:                                       key,
			TaskQueue:                                shared.OnboardingWorkflowTaskQueue,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
		},
		workflows.OnboardingWorkflow,
		req,
	)
	var running *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &running) {
		return Started{SessionKey: key, Joined: true}, nil
	}
	if err != nil {
		return Started{}, fmt.Errorf("start onboarding workflow: %w", err)
	}
	return Started{SessionKey: we.GetID()}, nil
}

func (e *TemporalEngine) Signal(ctx context.Context, sessionKey, signal string, payload any) error {
	err := e.client.SignalWorkflow(ctx, sessionKey, "", signal, payload)
	return notFound(err)
}

func (e *TemporalEngine) State(ctx context.Context, sessionKey string) (shared.StateView, error) {
	resp, err := e.client.QueryWorkflow(ctx, sessionKey, "", shared.QueryOnboardingState)
	if err != nil {
		return shared.StateView{}, notFound(err)
	}
	var view shared.StateView
	if err := resp.Get(&view); err != nil {
		return shared.StateView{}, fmt.Errorf("decode onboarding state: %w", err)
	}
	return view, nil
}

func notFound(err error) error {
	var nf *serviceerror.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, nf.Error())
	}
	return err
}
