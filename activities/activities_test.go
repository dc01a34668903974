package activities_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"temporal-worker-onboarding/activities"
	"temporal-worker-onboarding/gateway"
	"temporal-worker-onboarding/handoff"
	"temporal-worker-onboarding/metrics"
	"temporal-worker-onboarding/shared"
	"temporal-worker-onboarding/verification"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) GetUserInfo(ctx context.Context, apiKey, companyID string) (*gateway.UserInfoResponse, error) {
	args := m.Called(apiKey, companyID)
	resp, _ := args.Get(0).(*gateway.UserInfoResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) GetWorkerInfo(ctx context.Context, apiKey, companyID, employeeID string) (*gateway.WorkerInfoResponse, error) {
	args := m.Called(apiKey, companyID, employeeID)
	resp, _ := args.Get(0).(*gateway.WorkerInfoResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) SubmitProfileInfo(ctx context.Context, apiKey string, req gateway.ProfileInfoRequest) (*gateway.SuccessResponse, error) {
	args := m.Called(apiKey, req)
	resp, _ := args.Get(0).(*gateway.SuccessResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) SubmitAccountInfo(ctx context.Context, apiKey string, req gateway.AccountInfoRequest) (*gateway.SuccessResponse, error) {
	args := m.Called(apiKey, req)
	resp, _ := args.Get(0).(*gateway.SuccessResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) GetVerificationSetup(ctx context.Context, apiKey string, req gateway.VerificationSetupRequest) (*gateway.VerificationSetupResponse, error) {
	args := m.Called(apiKey, req)
	resp, _ := args.Get(0).(*gateway.VerificationSetupResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) SubmitWorkerVerification(ctx context.Context, apiKey string, req gateway.WorkerVerificationRequest) (*gateway.SuccessResponse, error) {
	args := m.Called(apiKey, req)
	resp, _ := args.Get(0).(*gateway.SuccessResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) GetDocumentPutURL(ctx context.Context, apiKey, key, contentType string) (*gateway.PutURLResponse, error) {
	args := m.Called(apiKey, key, contentType)
	resp, _ := args.Get(0).(*gateway.PutURLResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) UploadDocument(ctx context.Context, putURL, contentType string, body []byte) error {
	return m.Called(putURL, contentType, body).Error(0)
}

func (m *mockGateway) GetSigningSession(ctx context.Context, apiKey string, req gateway.SigningSessionRequest) (*gateway.SigningSessionResponse, error) {
	args := m.Called(apiKey, req)
	resp, _ := args.Get(0).(*gateway.SigningSessionResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) SubmitWorkerPaperwork(ctx context.Context, apiKey string, req gateway.PaperworkRequest) (*gateway.SuccessResponse, error) {
	args := m.Called(apiKey, req)
	resp, _ := args.Get(0).(*gateway.SuccessResponse)
	return resp, args.Error(1)
}

func (m *mockGateway) NotifyHost(ctx context.Context, callbackURL string, n shared.HostNotification) error {
	return m.Called(callbackURL, n).Error(0)
}

type stubLauncher struct {
	outcome shared.VerificationOutcome
	err     error
	token   []byte
}

func (s *stubLauncher) Launch(ctx context.Context, taskToken []byte, l shared.VerificationLaunch) (shared.VerificationOutcome, error) {
	s.token = taskToken
	return s.outcome, s.err
}

var creds = shared.Credentials{APIKey: "key-1", CompanyID: "COMP-1", EmployeeID: "EMP-1"}

// seal parks value in v the way the API intake does.
func seal(t *testing.T, v handoff.Vault, value string) string {
	t.Helper()
	ref, err := v.Seal(context.Background(), []byte(value), time.Hour)
	require.NoError(t, err)
	return ref
}

// testIdentity returns an identity whose SSN is sealed in v.
func testIdentity(t *testing.T, v handoff.Vault) shared.Identity {
	return shared.Identity{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Address:     "1 Main St",
		City:        "Springfield",
		State:       "IL",
		Zip:         "62701",
		Phone:       "5551234567",
		SSNRef:      seal(t, v, "123456789"),
		DateOfBirth: time.Date(1990, time.March, 7, 0, 0, 0, 0, time.UTC),
	}
}

func newEnv(t *testing.T, a *activities.Activities) *testsuite.TestActivityEnvironment {
	t.Helper()
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(a)
	return env
}

func requireAppErrorType(t *testing.T, err error, errType string) *temporal.ApplicationError {
	t.Helper()
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errType, appErr.Type())
	assert.True(t, appErr.NonRetryable())
	return appErr
}

func TestFetchUserInfo_MapsBusinessAndTestMode(t *testing.T) {
	gw := &mockGateway{}
	a := &activities.Activities{Gateway: gw}
	env := newEnv(t, a)

	resp := &gateway.UserInfoResponse{TestMode: ptr(true)}
	resp.Data.BusinessName = "Acme"
	resp.Data.HasLogo = true
	resp.Data.LogoURL = ptr("https://cdn/logo.png")
	gw.On("GetUserInfo", "key-1", "COMP-1").Return(resp, nil)

	val, err := env.ExecuteActivity(a.FetchUserInfo, creds)
	require.NoError(t, err)

	var info shared.UserInfo
	require.NoError(t, val.Get(&info))
	assert.Equal(t, "Acme", info.Business.Name)
	assert.Equal(t, "https://cdn/logo.png", info.Business.LogoURL)
	require.NotNil(t, info.TestMode)
	assert.True(t, *info.TestMode)
}

func TestFetchWorkerInfo_FailureIsSetupError(t *testing.T) {
	gw := &mockGateway{}
	a := &activities.Activities{Gateway: gw}
	env := newEnv(t, a)

	gw.On("GetWorkerInfo", "key-1", "COMP-1", "EMP-1").Return(nil, &gateway.RemoteError{
		Operation:  "getWorkerInfo",
		StatusCode: http.StatusNotFound,
		Message:    "employee not found",
	})

	_, err := env.ExecuteActivity(a.FetchWorkerInfo, creds)
	appErr := requireAppErrorType(t, err, shared.ErrTypeSetup)
	assert.Contains(t, appErr.Error(), "employee not found")
}

func TestSubmitProfile_FormatsPhoneAndDOB(t *testing.T) {
	gw := &mockGateway{}
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Gateway: gw, Secrets: vault}
	env := newEnv(t, a)

	gw.On("SubmitProfileInfo", "key-1", mock.MatchedBy(func(req gateway.ProfileInfoRequest) bool {
		return req.PhoneNumber == "+15551234567" &&
			req.DOB == "03/07/1990" &&
			req.SSN == "123456789" &&
			req.EmployeeID == "EMP-1"
	})).Return(&gateway.SuccessResponse{Success: true}, nil)

	id := testIdentity(t, vault)
	_, err := env.ExecuteActivity(a.SubmitProfile, shared.ProfileSubmission{Credentials: creds, Identity: id})
	require.NoError(t, err)
	gw.AssertExpectations(t)

	// The SSN stays sealed for the signing session.
	_, err = vault.Reveal(context.Background(), id.SSNRef)
	assert.NoError(t, err)
}

func TestSubmitProfile_SuccessFalseIsSubmissionError(t *testing.T) {
	gw := &mockGateway{}
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Gateway: gw, Secrets: vault}
	env := newEnv(t, a)

	gw.On("SubmitProfileInfo", "key-1", mock.Anything).Return(&gateway.SuccessResponse{Success: false}, nil)

	_, err := env.ExecuteActivity(a.SubmitProfile, shared.ProfileSubmission{Credentials: creds, Identity: testIdentity(t, vault)})
	requireAppErrorType(t, err, shared.ErrTypeSubmission)
}

func TestSubmitProfile_ExpiredSSNMakesNoRemoteCall(t *testing.T) {
	gw := &mockGateway{}
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Gateway: gw, Secrets: vault}
	env := newEnv(t, a)

	id := testIdentity(t, vault)
	require.NoError(t, vault.Discard(context.Background(), id.SSNRef))

	_, err := env.ExecuteActivity(a.SubmitProfile, shared.ProfileSubmission{Credentials: creds, Identity: id})
	appErr := requireAppErrorType(t, err, shared.ErrTypeSubmission)
	assert.Contains(t, appErr.Error(), "expired")
	gw.AssertNotCalled(t, "SubmitProfileInfo", mock.Anything, mock.Anything)
}

func TestSubmitProfile_WithoutVaultIsConfigurationError(t *testing.T) {
	gw := &mockGateway{}
	a := &activities.Activities{Gateway: gw}
	env := newEnv(t, a)

	_, err := env.ExecuteActivity(a.SubmitProfile, shared.ProfileSubmission{
		Credentials: creds,
		Identity:    shared.Identity{SSNRef: "sec_x"},
	})
	requireAppErrorType(t, err, shared.ErrTypeConfiguration)
}

func TestSubmitAccount_TimeoutIsRemoteError(t *testing.T) {
	gw := &mockGateway{}
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Gateway: gw, Secrets: vault}
	env := newEnv(t, a)

	gw.On("SubmitAccountInfo", "key-1", mock.Anything).Return(nil, &gateway.RemoteError{
		Operation: "submitAccountInfo",
		Message:   gateway.TimeoutMessage,
		Timeout:   true,
	})

	_, err := env.ExecuteActivity(a.SubmitAccount, shared.AccountSubmission{
		Credentials: creds,
		Email:       "a@b.co",
		PasswordRef: seal(t, vault, "password1"),
	})
	appErr := requireAppErrorType(t, err, shared.ErrTypeRemote)
	assert.Contains(t, appErr.Error(), gateway.TimeoutMessage)
}

func TestSubmitAccount_ConsumesPassword(t *testing.T) {
	gw := &mockGateway{}
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Gateway: gw, Secrets: vault}
	env := newEnv(t, a)

	gw.On("SubmitAccountInfo", "key-1", gateway.AccountInfoRequest{
		CompanyID:  "COMP-1",
		EmployeeID: "EMP-1",
		Email:      "a@b.co",
		Password:   "password1",
	}).Return(&gateway.SuccessResponse{Success: true}, nil).Once()

	sub := shared.AccountSubmission{Credentials: creds, Email: "a@b.co", PasswordRef: seal(t, vault, "password1")}
	_, err := env.ExecuteActivity(a.SubmitAccount, sub)
	require.NoError(t, err)

	_, err = vault.Reveal(context.Background(), sub.PasswordRef)
	assert.ErrorIs(t, err, handoff.ErrSecretGone)

	// A repeated submission with the same reference never reaches the backend.
	_, err = env.ExecuteActivity(a.SubmitAccount, sub)
	requireAppErrorType(t, err, shared.ErrTypeSubmission)
	gw.AssertNumberOfCalls(t, "SubmitAccountInfo", 1)
}

func TestRequestVerificationSession_RequiresSuccessStatus(t *testing.T) {
	gw := &mockGateway{}
	a := &activities.Activities{Gateway: gw}
	env := newEnv(t, a)

	failed := &gateway.VerificationSetupResponse{Status: "failed"}
	failed.Verification.URL = "https://v"
	gw.On("GetVerificationSetup", "key-1", gateway.VerificationSetupRequest{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		DocumentType: string(shared.DocumentPassport),
	}).Return(failed, nil)

	_, err := env.ExecuteActivity(a.RequestVerificationSession, shared.VerificationRequest{
		Credentials:  creds,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		DocumentType: shared.DocumentPassport,
	})
	requireAppErrorType(t, err, shared.ErrTypeSubmission)
}

func TestRequestVerificationSession_Success(t *testing.T) {
	gw := &mockGateway{}
	a := &activities.Activities{Gateway: gw}
	env := newEnv(t, a)

	ok := &gateway.VerificationSetupResponse{Status: "success"}
	ok.Verification.ID = "v-1"
	ok.Verification.URL = "https://magic.veriff.me/v/abc"
	gw.On("GetVerificationSetup", "key-1", mock.Anything).Return(ok, nil)

	val, err := env.ExecuteActivity(a.RequestVerificationSession, shared.VerificationRequest{Credentials: creds})
	require.NoError(t, err)
	var session shared.VerificationSession
	require.NoError(t, val.Get(&session))
	assert.Equal(t, "v-1", session.ID)
	assert.Equal(t, "https://magic.veriff.me/v/abc", session.URL)
}

func TestLaunchVerification_UnavailableIsConfigurationError(t *testing.T) {
	for name, launcher := range map[string]verification.Launcher{
		"nil":         nil,
		"unavailable": verification.Unavailable{},
	} {
		t.Run(name, func(t *testing.T) {
			a := &activities.Activities{Verifier: launcher}
			env := newEnv(t, a)

			_, err := env.ExecuteActivity(a.LaunchVerification, shared.VerificationLaunch{SessionKey: "k"})
			requireAppErrorType(t, err, shared.ErrTypeConfiguration)
		})
	}
}

func TestLaunchVerification_SynchronousOutcome(t *testing.T) {
	launcher := &stubLauncher{outcome: shared.VerificationOutcome{Status: shared.VerificationCanceled}}
	a := &activities.Activities{Verifier: launcher}
	env := newEnv(t, a)

	val, err := env.ExecuteActivity(a.LaunchVerification, shared.VerificationLaunch{
		SessionKey: "k",
		Session:    shared.VerificationSession{ID: "v-1", URL: "https://v"},
	})
	require.NoError(t, err)
	var outcome shared.VerificationOutcome
	require.NoError(t, val.Get(&outcome))
	assert.Equal(t, shared.VerificationCanceled, outcome.Status)
}

func TestUploadDocument_DecodesBase64(t *testing.T) {
	gw := &mockGateway{}
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Gateway: gw, Secrets: vault}
	env := newEnv(t, a)

	raw := []byte{0x89, 'P', 'N', 'G'}
	gw.On("UploadDocument", "https://bucket/put", shared.DocumentContentType, raw).Return(nil)

	for _, encoded := range []string{
		base64.StdEncoding.EncodeToString(raw),
		"data:image/png;base64," + base64.StdEncoding.EncodeToString(raw),
	} {
		ref := seal(t, vault, encoded)
		_, err := env.ExecuteActivity(a.UploadDocument, shared.DocumentUpload{
			PutURL:      "https://bucket/put",
			ContentType: shared.DocumentContentType,
			ImageRef:    ref,
		})
		require.NoError(t, err)

		_, err = vault.Reveal(context.Background(), ref)
		assert.ErrorIs(t, err, handoff.ErrSecretGone)
	}
	gw.AssertNumberOfCalls(t, "UploadDocument", 2)
}

func TestUploadDocument_FailureIsSubmissionError(t *testing.T) {
	gw := &mockGateway{}
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Gateway: gw, Secrets: vault}
	env := newEnv(t, a)

	gw.On("UploadDocument", mock.Anything, mock.Anything, mock.Anything).Return(&gateway.RemoteError{
		Operation:  "uploadDocument",
		StatusCode: http.StatusForbidden,
		Message:    "Forbidden",
	})

	_, err := env.ExecuteActivity(a.UploadDocument, shared.DocumentUpload{
		PutURL:      "https://bucket/put",
		ContentType: shared.DocumentContentType,
		ImageRef:    seal(t, vault, base64.StdEncoding.EncodeToString([]byte("x"))),
	})
	requireAppErrorType(t, err, shared.ErrTypeSubmission)

	_, err = env.ExecuteActivity(a.UploadDocument, shared.DocumentUpload{ImageRef: seal(t, vault, "%%%")})
	requireAppErrorType(t, err, shared.ErrTypeSubmission)

	_, err = env.ExecuteActivity(a.UploadDocument, shared.DocumentUpload{ImageRef: "sec_missing"})
	requireAppErrorType(t, err, shared.ErrTypeSubmission)
	gw.AssertNumberOfCalls(t, "UploadDocument", 1)
}

func TestRequestUploadURL(t *testing.T) {
	gw := &mockGateway{}
	a := &activities.Activities{Gateway: gw}
	env := newEnv(t, a)

	resp := &gateway.PutURLResponse{Success: true}
	resp.Data.PutURL = "https://bucket/put"
	gw.On("GetDocumentPutURL", "key-1", "ada@example.com-sscard", shared.DocumentContentType).Return(resp, nil)

	val, err := env.ExecuteActivity(a.RequestUploadURL, shared.UploadURLRequest{
		Credentials: creds,
		Key:         "ada@example.com" + shared.DocumentKeySuffix,
		ContentType: shared.DocumentContentType,
	})
	require.NoError(t, err)
	var putURL string
	require.NoError(t, val.Get(&putURL))
	assert.Equal(t, "https://bucket/put", putURL)
}

func TestRequestSigningSession_ParsesSession(t *testing.T) {
	gw := &mockGateway{}
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Gateway: gw, Secrets: vault}
	env := newEnv(t, a)

	gw.On("GetSigningSession", "key-1", mock.MatchedBy(func(req gateway.SigningSessionRequest) bool {
		return req.Email == "ada@example.com" && req.DOB == "03/07/1990" &&
			req.PhoneNumber == "+15551234567" && req.SSN == "123456789"
	})).Return(&gateway.SigningSessionResponse{
		SignURL:            "https://sign.test/embed?signature_id=sig-1&token=tok-1",
		EmployeeSigID:      "emp",
		CompanySigID:       "co",
		SignatureRequestID: "req",
	}, nil)

	val, err := env.ExecuteActivity(a.RequestSigningSession, shared.SigningRequest{
		Credentials: creds,
		Identity:    testIdentity(t, vault),
		Email:       "ada@example.com",
	})
	require.NoError(t, err)
	var session shared.SigningSession
	require.NoError(t, val.Get(&session))
	assert.Equal(t, "sig-1", session.Signing.SignatureID)
	assert.Equal(t, "tok-1", session.Signing.Token)
	assert.Equal(t, "req", session.Signing.SignatureRequestID)
}

func TestRequestSigningSession_MalformedURLIsSubmissionError(t *testing.T) {
	gw := &mockGateway{}
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Gateway: gw, Secrets: vault}
	env := newEnv(t, a)

	gw.On("GetSigningSession", "key-1", mock.Anything).Return(&gateway.SigningSessionResponse{SignURL: "https://sign.test/embed"}, nil)

	_, err := env.ExecuteActivity(a.RequestSigningSession, shared.SigningRequest{Credentials: creds, Identity: testIdentity(t, vault)})
	requireAppErrorType(t, err, shared.ErrTypeSubmission)
}

func TestPresentSigningSession_WithoutSignerIsConfigurationError(t *testing.T) {
	a := &activities.Activities{}
	env := newEnv(t, a)

	_, err := env.ExecuteActivity(a.PresentSigningSession, shared.SigningLaunch{SessionKey: "k"})
	requireAppErrorType(t, err, shared.ErrTypeConfiguration)
}

func TestSubmitPaperwork_ForwardsSignatureIDs(t *testing.T) {
	gw := &mockGateway{}
	a := &activities.Activities{Gateway: gw}
	env := newEnv(t, a)

	gw.On("SubmitWorkerPaperwork", "key-1", gateway.PaperworkRequest{
		CompanyID:          "COMP-1",
		EmployeeID:         "EMP-1",
		Email:              "ada@example.com",
		EmployeeSigID:      "emp",
		CompanySigID:       "co",
		SignatureRequestID: "req",
	}).Return(&gateway.SuccessResponse{Success: true}, nil)

	_, err := env.ExecuteActivity(a.SubmitPaperwork, shared.PaperworkSubmission{
		Credentials: creds,
		Email:       "ada@example.com",
		Signing:     shared.Signing{EmployeeSigID: "emp", CompanySigID: "co", SignatureRequestID: "req"},
	})
	require.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestNotifyHost(t *testing.T) {
	n := shared.HostNotification{SessionKey: "onboard-c-e", Event: shared.HostEventFinished}

	finished := func(m *metrics.Metrics) float64 {
		return testutil.ToFloat64(m.SessionOutcomes.WithLabelValues(string(shared.HostEventFinished)))
	}

	t.Run("posts to the callback", func(t *testing.T) {
		gw := &mockGateway{}
		m := metrics.NewWithRegistry(prometheus.NewRegistry())
		a := &activities.Activities{Gateway: gw, Metrics: m, HostCallbackURL: "https://host/callback"}
		env := newEnv(t, a)
		gw.On("NotifyHost", "https://host/callback", n).Return(nil).Once()

		_, err := env.ExecuteActivity(a.NotifyHost, n)
		require.NoError(t, err)
		gw.AssertExpectations(t)
		assert.Equal(t, 1.0, finished(m))
	})

	t.Run("skips without a callback", func(t *testing.T) {
		gw := &mockGateway{}
		m := metrics.NewWithRegistry(prometheus.NewRegistry())
		a := &activities.Activities{Gateway: gw, Metrics: m}
		env := newEnv(t, a)

		_, err := env.ExecuteActivity(a.NotifyHost, n)
		require.NoError(t, err)
		gw.AssertNotCalled(t, "NotifyHost", mock.Anything, mock.Anything)
		assert.Equal(t, 1.0, finished(m))
	})

	t.Run("delivery failure is retryable and not counted", func(t *testing.T) {
		gw := &mockGateway{}
		m := metrics.NewWithRegistry(prometheus.NewRegistry())
		a := &activities.Activities{Gateway: gw, Metrics: m, HostCallbackURL: "https://host/callback"}
		env := newEnv(t, a)
		gw.On("NotifyHost", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Twice()
		gw.On("NotifyHost", mock.Anything, mock.Anything).Return(nil).Once()

		for i := 0; i < 2; i++ {
			_, err := env.ExecuteActivity(a.NotifyHost, n)
			require.Error(t, err)
			var appErr *temporal.ApplicationError
			if errors.As(err, &appErr) {
				assert.False(t, appErr.NonRetryable())
			}
		}
		assert.Equal(t, 0.0, finished(m))

		_, err := env.ExecuteActivity(a.NotifyHost, n)
		require.NoError(t, err)
		assert.Equal(t, 1.0, finished(m))
	})
}

func TestPurgeSecrets(t *testing.T) {
	vault := handoff.NewMemoryVault()
	a := &activities.Activities{Secrets: vault}
	env := newEnv(t, a)

	refs := []string{seal(t, vault, "123456789"), seal(t, vault, "aW1n"), "sec_already_redeemed"}
	_, err := env.ExecuteActivity(a.PurgeSecrets, refs)
	require.NoError(t, err)

	for _, ref := range refs {
		_, err := vault.Reveal(context.Background(), ref)
		assert.ErrorIs(t, err, handoff.ErrSecretGone)
	}

	// Nothing to purge without a vault.
	noVault := &activities.Activities{}
	_, err = newEnv(t, noVault).ExecuteActivity(noVault.PurgeSecrets, refs)
	assert.NoError(t, err)
}

func ptr[T any](v T) *T {
	return &v
}
