package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"temporal-worker-onboarding/gateway"
	"temporal-worker-onboarding/shared"
	"temporal-worker-onboarding/verification"
)

// RequestVerificationSession asks the backend to open a provider session
// for the chosen document type.
func (a *Activities) RequestVerificationSession(ctx context.Context, req shared.VerificationRequest) (session shared.VerificationSession, err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("getVerificationSetup")(&err)

	resp, err := a.Gateway.GetVerificationSetup(ctx, req.Credentials.APIKey, gateway.VerificationSetupRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DocumentType: string(req.DocumentType),
	})
	if err != nil {
		logger.Error("Verification setup failed", "employeeId", req.Credentials.EmployeeID, "error", err)
		return shared.VerificationSession{}, remoteError(shared.ErrTypeRemote, err)
	}
	if resp.Status != "success" || resp.Verification.URL == "" {
		logger.Info("Verification setup rejected", "employeeId", req.Credentials.EmployeeID, "status", resp.Status)
		return shared.VerificationSession{}, rejected("verification session could not be created")
	}

	logger.Info("Verification session created",
		"employeeId", req.Credentials.EmployeeID,
		"documentType", req.DocumentType,
		"sessionId", resp.Verification.ID,
	)
	return shared.VerificationSession{
		ID:           resp.Verification.ID,
		URL:          resp.Verification.URL,
		SessionToken: resp.Verification.SessionToken,
		BaseURL:      resp.Verification.BaseURL,
	}, nil
}

// LaunchVerification hands the session to the verification adapter and
// waits for its outcome. The adapter may complete the activity
// asynchronously.
func (a *Activities) LaunchVerification(ctx context.Context, l shared.VerificationLaunch) (shared.VerificationOutcome, error) {
	logger := activity.GetLogger(ctx)

	if a.Verifier == nil {
		return shared.VerificationOutcome{}, misconfigured(verification.ErrUnavailable.Error(), nil)
	}

	outcome, err := a.Verifier.Launch(ctx, activity.GetInfo(ctx).TaskToken, l)
	switch {
	case errors.Is(err, activity.ErrResultPending):
		logger.Info("Verification launched, awaiting device", "sessionKey", l.SessionKey, "sessionId", l.Session.ID)
		return shared.VerificationOutcome{}, activity.ErrResultPending
	case errors.Is(err, verification.ErrUnavailable):
		logger.Error("Verification adapter unavailable", "sessionKey", l.SessionKey)
		return shared.VerificationOutcome{}, misconfigured(err.Error(), err)
	case err != nil:
		logger.Error("Verification launch failed", "sessionKey", l.SessionKey, "error", err)
		return shared.VerificationOutcome{}, remoteError(shared.ErrTypeRemote, err)
	}

	logger.Info("Verification finished", "sessionKey", l.SessionKey, "status", outcome.Status)
	return outcome, nil
}

// SubmitVerification records a completed verification with the backend.
func (a *Activities) SubmitVerification(ctx context.Context, sub shared.VerificationSubmission) (err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("submitWorkerVerification")(&err)

	resp, err := a.Gateway.SubmitWorkerVerification(ctx, sub.Credentials.APIKey, gateway.WorkerVerificationRequest{
		CompanyID:  sub.Credentials.CompanyID,
		EmployeeID: sub.Credentials.EmployeeID,
		VeriffID:   sub.VerificationID,
	})
	if err != nil {
		logger.Error("Verification submission failed", "verificationId", sub.VerificationID, "error", err)
		return remoteError(shared.ErrTypeRemote, err)
	}
	if !resp.Success {
		return rejected("verification result was not accepted")
	}

	logger.Info("Verification submitted", "verificationId", sub.VerificationID)
	return nil
}
