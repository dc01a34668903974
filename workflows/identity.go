package workflows

import (
	"go.temporal.io/sdk/workflow"

	"temporal-worker-onboarding/shared"
)

// IdentityVerificationWorkflow is a child workflow that runs one
// verification attempt: it opens a provider session for the chosen
// document type, launches the verification adapter, and records a
// completed verification with the backend.
//
// Canceled and error outcomes are results, not workflow failures. Remote
// failures are returned as errors so the parent can surface them.
func IdentityVerificationWorkflow(ctx workflow.Context, in shared.VerificationInput) (shared.VerificationResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Identity verification workflow started",
		"sessionKey", in.SessionKey,
		"documentType", in.DocumentType,
	)

	remoteCtx := workflow.WithActivityOptions(ctx, remoteOptions(shared.RemoteCallTimeout))

	adapterCtx := workflow.WithActivityOptions(ctx, adapterOptions())

	// Step 1: Open a provider session.
	var session shared.VerificationSession
	err := workflow.ExecuteActivity(remoteCtx, a.RequestVerificationSession, shared.VerificationRequest{
		Credentials:  in.Credentials,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DocumentType: in.DocumentType,
	}).Get(ctx, &session)
	if err != nil {
		logger.Error("Verification session request failed", "sessionKey", in.SessionKey, "error", err)
		return shared.VerificationResult{}, err
	}

	// Step 2: Launch the adapter and wait for the worker to finish.
	var outcome shared.VerificationOutcome
	err = workflow.ExecuteActivity(adapterCtx, a.LaunchVerification, shared.VerificationLaunch{
		SessionKey: in.SessionKey,
		Session:    session,
	}).Get(ctx, &outcome)
	if err != nil {
		logger.Error("Verification launch failed", "sessionKey", in.SessionKey, "error", err)
		return shared.VerificationResult{}, err
	}

	switch outcome.Status {
	case shared.VerificationCanceled:
		logger.Info("Verification canceled by worker", "sessionKey", in.SessionKey)
		return shared.VerificationResult{Status: shared.VerificationCanceled}, nil
	case shared.VerificationDone:
	default:
		logger.Info("Verification reported an error", "sessionKey", in.SessionKey, "reason", outcome.Reason)
		return shared.VerificationResult{Status: shared.VerificationErrored, Details: outcome.Reason}, nil
	}

	// Step 3: Record the completed verification.
	err = workflow.ExecuteActivity(remoteCtx, a.SubmitVerification, shared.VerificationSubmission{
		Credentials:    in.Credentials,
		VerificationID: session.ID,
	}).Get(ctx, nil)
	if err != nil {
		logger.Error("Verification submission failed", "sessionKey", in.SessionKey, "error", err)
		return shared.VerificationResult{}, err
	}

	logger.Info("Identity verification completed", "sessionKey", in.SessionKey, "verificationId", session.ID)
	return shared.VerificationResult{
		Status:         shared.VerificationDone,
		VerificationID: session.ID,
		Details:        "verification completed",
	}, nil
}
