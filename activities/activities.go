package activities

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"

	"temporal-worker-onboarding/esign"
	"temporal-worker-onboarding/gateway"
	"temporal-worker-onboarding/handoff"
	"temporal-worker-onboarding/metrics"
	"temporal-worker-onboarding/shared"
	"temporal-worker-onboarding/verification"
)

// Gateway is the subset of *gateway.Client the activities call.
type Gateway interface {
	GetUserInfo(ctx context.Context, apiKey, companyID string) (*gateway.UserInfoResponse, error)
	GetWorkerInfo(ctx context.Context, apiKey, companyID, employeeID string) (*gateway.WorkerInfoResponse, error)
	SubmitProfileInfo(ctx context.Context, apiKey string, req gateway.ProfileInfoRequest) (*gateway.SuccessResponse, error)
	SubmitAccountInfo(ctx context.Context, apiKey string, req gateway.AccountInfoRequest) (*gateway.SuccessResponse, error)
	GetVerificationSetup(ctx context.Context, apiKey string, req gateway.VerificationSetupRequest) (*gateway.VerificationSetupResponse, error)
	SubmitWorkerVerification(ctx context.Context, apiKey string, req gateway.WorkerVerificationRequest) (*gateway.SuccessResponse, error)
	GetDocumentPutURL(ctx context.Context, apiKey, key, contentType string) (*gateway.PutURLResponse, error)
	UploadDocument(ctx context.Context, putURL, contentType string, body []byte) error
	GetSigningSession(ctx context.Context, apiKey string, req gateway.SigningSessionRequest) (*gateway.SigningSessionResponse, error)
	SubmitWorkerPaperwork(ctx context.Context, apiKey string, req gateway.PaperworkRequest) (*gateway.SuccessResponse, error)
	NotifyHost(ctx context.Context, callbackURL string, n shared.HostNotification) error
}

// Activities is the receiver for all activity methods. Temporal registers
// every exported method via RegisterActivity(a); the fields are the
// collaborators each method reaches through the receiver.
type Activities struct {
	Gateway  Gateway
	Verifier verification.Launcher
	Signer   esign.Presenter
	Secrets  handoff.Vault
	Metrics  *metrics.Metrics

	// HostCallbackURL receives terminal session events. Empty disables the
	// callback.
	HostCallbackURL string
}

// track times op; call the returned func with the final error.
func (a *Activities) track(op string) func(*error) {
	start := time.Now()
	return func(err *error) {
		a.Metrics.ObserveRemoteCall(op, start, *err)
	}
}

// remoteError converts a gateway failure into a non-retryable application
// error of errType, keeping the backend's message.
func remoteError(errType string, err error) error {
	msg := err.Error()
	var re *gateway.RemoteError
	if errors.As(err, &re) {
		msg = re.Message
	}
	return temporal.NewNonRetryableApplicationError(msg, errType, err)
}

func rejected(msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, shared.ErrTypeSubmission, nil)
}

func misconfigured(msg string, cause error) error {
	return temporal.NewNonRetryableApplicationError(msg, shared.ErrTypeConfiguration, cause)
}
