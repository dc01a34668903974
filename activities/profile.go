package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"temporal-worker-onboarding/gateway"
	"temporal-worker-onboarding/shared"
)

// phoneNumber prefixes the US country code the backend expects.
func phoneNumber(phone string) string {
	return "+1" + phone
}

// SubmitProfile sends the validated identity fields.
// Idempotency: the backend overwrites the worker's profile, so a repeated
// submission after a timeout is safe.
func (a *Activities) SubmitProfile(ctx context.Context, sub shared.ProfileSubmission) (err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("submitProfileInfo")(&err)

	id := sub.Identity
	ssn, err := a.reveal(ctx, id.SSNRef, "social security number")
	if err != nil {
		return err
	}
	resp, err := a.Gateway.SubmitProfileInfo(ctx, sub.Credentials.APIKey, gateway.ProfileInfoRequest{
		CompanyID:     sub.Credentials.CompanyID,
		EmployeeID:    sub.Credentials.EmployeeID,
		Address:       id.Address,
		City:          id.City,
		State:         id.State,
		Zip:           id.Zip,
		SSN:           string(ssn),
		PhoneNumber:   phoneNumber(id.Phone),
		FirstName:     id.FirstName,
		LastName:      id.LastName,
		MiddleInitial: id.MiddleInitial,
		DOB:           id.DateOfBirth.Format(shared.DateOfBirthLayout),
	})
	if err != nil {
		logger.Error("Profile submission failed", "employeeId", sub.Credentials.EmployeeID, "error", err)
		return remoteError(shared.ErrTypeRemote, err)
	}
	if !resp.Success {
		logger.Info("Profile submission rejected", "employeeId", sub.Credentials.EmployeeID)
		return rejected("profile information was not accepted")
	}

	logger.Info("Profile submitted", "employeeId", sub.Credentials.EmployeeID)
	return nil
}

// SubmitAccount creates the worker's login. The sealed password is
// consumed by this call whatever its outcome.
func (a *Activities) SubmitAccount(ctx context.Context, sub shared.AccountSubmission) (err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("submitAccountInfo")(&err)

	password, err := a.redeem(ctx, sub.PasswordRef, "password")
	if err != nil {
		return err
	}
	resp, err := a.Gateway.SubmitAccountInfo(ctx, sub.Credentials.APIKey, gateway.AccountInfoRequest{
		CompanyID:  sub.Credentials.CompanyID,
		EmployeeID: sub.Credentials.EmployeeID,
		Email:      sub.Email,
		Password:   string(password),
	})
	if err != nil {
		logger.Error("Account submission failed", "employeeId", sub.Credentials.EmployeeID, "error", err)
		return remoteError(shared.ErrTypeRemote, err)
	}
	if !resp.Success {
		logger.Info("Account submission rejected", "employeeId", sub.Credentials.EmployeeID)
		return rejected("account information was not accepted")
	}

	logger.Info("Account submitted", "employeeId", sub.Credentials.EmployeeID, "email", sub.Email)
	return nil
}
