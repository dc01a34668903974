package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"temporal-worker-onboarding/esign"
	"temporal-worker-onboarding/gateway"
	"temporal-worker-onboarding/shared"
)

// RequestSigningSession asks the backend to prepare the tax paperwork for
// signing and returns the parsed session.
func (a *Activities) RequestSigningSession(ctx context.Context, req shared.SigningRequest) (session shared.SigningSession, err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("getSigningSession")(&err)

	id := req.Identity
	ssn, err := a.reveal(ctx, id.SSNRef, "social security number")
	if err != nil {
		return shared.SigningSession{}, err
	}
	resp, err := a.Gateway.GetSigningSession(ctx, req.Credentials.APIKey, gateway.SigningSessionRequest{
		CompanyID:     req.Credentials.CompanyID,
		EmployeeID:    req.Credentials.EmployeeID,
		FirstName:     id.FirstName,
		LastName:      id.LastName,
		MiddleInitial: id.MiddleInitial,
		Address:       id.Address,
		City:          id.City,
		State:         id.State,
		Zip:           id.Zip,
		SSN:           string(ssn),
		DOB:           id.DateOfBirth.Format(shared.DateOfBirthLayout),
		Email:         req.Email,
		PhoneNumber:   phoneNumber(id.Phone),
	})
	if err != nil {
		logger.Error("Signing session request failed", "employeeId", req.Credentials.EmployeeID, "error", err)
		return shared.SigningSession{}, remoteError(shared.ErrTypeSubmission, err)
	}

	session, err = esign.NewSession(resp.SignURL, resp.EmployeeSigID, resp.CompanySigID, resp.SignatureRequestID)
	if err != nil {
		logger.Error("Signing session malformed", "employeeId", req.Credentials.EmployeeID, "error", err)
		return shared.SigningSession{}, rejected("signing session could not be opened")
	}

	logger.Info("Signing session created",
		"employeeId", req.Credentials.EmployeeID,
		"signatureRequestId", session.Signing.SignatureRequestID,
	)
	return session, nil
}

// PresentSigningSession hosts the signing UI until it reports finished,
// cancelled or closed.
func (a *Activities) PresentSigningSession(ctx context.Context, l shared.SigningLaunch) (shared.SigningOutcome, error) {
	logger := activity.GetLogger(ctx)

	if a.Signer == nil {
		return "", misconfigured("e-signature is not available", nil)
	}

	outcome, err := a.Signer.Present(ctx, activity.GetInfo(ctx).TaskToken, l)
	switch {
	case errors.Is(err, activity.ErrResultPending):
		logger.Info("Signing session presented, awaiting device", "sessionKey", l.SessionKey)
		return "", activity.ErrResultPending
	case err != nil:
		logger.Error("Signing session could not be presented", "sessionKey", l.SessionKey, "error", err)
		return "", remoteError(shared.ErrTypeSubmission, err)
	}

	logger.Info("Signing session ended", "sessionKey", l.SessionKey, "outcome", outcome)
	return outcome, nil
}

// SubmitPaperwork tells the backend the paperwork is signed.
func (a *Activities) SubmitPaperwork(ctx context.Context, sub shared.PaperworkSubmission) (err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("submitWorkerPaperwork")(&err)

	resp, err := a.Gateway.SubmitWorkerPaperwork(ctx, sub.Credentials.APIKey, gateway.PaperworkRequest{
		CompanyID:          sub.Credentials.CompanyID,
		EmployeeID:         sub.Credentials.EmployeeID,
		Email:              sub.Email,
		EmployeeSigID:      sub.Signing.EmployeeSigID,
		CompanySigID:       sub.Signing.CompanySigID,
		SignatureRequestID: sub.Signing.SignatureRequestID,
	})
	if err != nil {
		logger.Error("Paperwork submission failed", "employeeId", sub.Credentials.EmployeeID, "error", err)
		return remoteError(shared.ErrTypeSubmission, err)
	}
	if !resp.Success {
		return rejected("signed paperwork was not accepted")
	}

	logger.Info("Paperwork submitted", "employeeId", sub.Credentials.EmployeeID)
	return nil
}
