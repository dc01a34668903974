package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"temporal-worker-onboarding/shared"
)

// FetchUserInfo loads the business profile shown during onboarding.
func (a *Activities) FetchUserInfo(ctx context.Context, creds shared.Credentials) (info shared.UserInfo, err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("getUserInfo")(&err)

	resp, err := a.Gateway.GetUserInfo(ctx, creds.APIKey, creds.CompanyID)
	if err != nil {
		logger.Error("Failed to load business info", "companyId", creds.CompanyID, "error", err)
		return shared.UserInfo{}, remoteError(shared.ErrTypeSetup, err)
	}

	info = shared.UserInfo{
		Business: shared.BusinessProfile{
			Name:    resp.Data.BusinessName,
			Email:   resp.Data.BusinessEmail,
			HasLogo: resp.Data.HasLogo,
		},
		TestMode: resp.TestMode,
	}
	if resp.Data.LogoURL != nil {
		info.Business.LogoURL = *resp.Data.LogoURL
	}
	logger.Info("Loaded business info", "companyId", creds.CompanyID, "business", info.Business.Name)
	return info, nil
}

// FetchWorkerInfo loads what the backend already knows about the worker.
func (a *Activities) FetchWorkerInfo(ctx context.Context, creds shared.Credentials) (info shared.WorkerInfoResult, err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("getWorkerInfo")(&err)

	resp, err := a.Gateway.GetWorkerInfo(ctx, creds.APIKey, creds.CompanyID, creds.EmployeeID)
	if err != nil {
		logger.Error("Failed to load worker info", "employeeId", creds.EmployeeID, "error", err)
		return shared.WorkerInfoResult{}, remoteError(shared.ErrTypeSetup, err)
	}

	logger.Info("Loaded worker info", "employeeId", creds.EmployeeID)
	return shared.WorkerInfoResult{
		Worker: shared.WorkerInfo{
			FirstName: resp.Data.FirstName,
			LastName:  resp.Data.LastName,
			Email:     resp.Data.Email,
		},
		TestMode: resp.TestMode,
	}, nil
}
