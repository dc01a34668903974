package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/converter"

	"temporal-worker-onboarding/api"
	"temporal-worker-onboarding/esign"
	"temporal-worker-onboarding/handoff"
	"temporal-worker-onboarding/metrics"
	"temporal-worker-onboarding/shared"
	"temporal-worker-onboarding/verification"
)

const sessionKey = "onboard-COMP-1-EMP-1"

type sentSignal struct {
	key     string
	name    string
	payload any
}

type fakeEngine struct {
	startErr error
	started  []shared.OnboardingRequest
	signals  []sentSignal
	views    map[string]shared.StateView
}

// Start joins a session already started under the same key.
func (e *fakeEngine) Start(_ context.Context, req shared.OnboardingRequest) (api.Started, error) {
	if err := req.Credentials.Validate(); err != nil {
		return api.Started{}, err
	}
	if e.startErr != nil {
		return api.Started{}, e.startErr
	}
	key := api.SessionKey(req.Credentials)
	for _, prev := range e.started {
		if api.SessionKey(prev.Credentials) == key {
			return api.Started{SessionKey: key, Joined: true}, nil
		}
	}
	e.started = append(e.started, req)
	return api.Started{SessionKey: key}, nil
}

func (e *fakeEngine) Signal(_ context.Context, key, name string, payload any) error {
	if _, ok := e.views[key]; !ok {
		return api.ErrSessionNotFound
	}
	e.signals = append(e.signals, sentSignal{key: key, name: name, payload: payload})
	return nil
}

func (e *fakeEngine) State(_ context.Context, key string) (shared.StateView, error) {
	view, ok := e.views[key]
	if !ok {
		return shared.StateView{}, api.ErrSessionNotFound
	}
	return view, nil
}

type completion struct {
	token  []byte
	result interface{}
}

type recordingCompleter struct {
	completions []completion
}

func (c *recordingCompleter) CompleteActivity(_ context.Context, taskToken []byte, result interface{}, _ error) error {
	c.completions = append(c.completions, completion{token: taskToken, result: result})
	return nil
}

type fixture struct {
	engine    *fakeEngine
	completer *recordingCompleter
	verifier  *verification.Bridge
	signer    *esign.Bridge
	vault     *handoff.MemoryVault
	metrics   *metrics.Metrics
	router    http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := handoff.NewMemoryStore()
	f := &fixture{
		engine:    &fakeEngine{views: map[string]shared.StateView{sessionKey: {Step: shared.StepProfileInfo}}},
		completer: &recordingCompleter{},
		vault:     handoff.NewMemoryVault(),
		metrics:   metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	f.verifier = verification.NewBridge(store, f.completer)
	f.signer = esign.NewBridge(store, f.completer, "https://app.joinpuzzl.com/mobile/hellosign")
	f.router = api.New(f.engine,
		api.WithMetrics(f.metrics),
		api.WithSecrets(f.vault),
		api.WithVerification(f.verifier),
		api.WithSigning(f.signer),
	).Router()
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestStart(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/sessions", shared.OnboardingRequest{
		Credentials: shared.Credentials{APIKey: "key-1", CompanyID: "COMP-1", EmployeeID: "EMP-1"},
		Host:        shared.HostOptions{ShowError: true},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, sessionKey, body["sessionKey"])
	require.Len(t, f.engine.started, 1)
	assert.True(t, f.engine.started[0].Host.ShowError)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionsStarted))
}

func TestStart_JoiningRunningSessionIsNotCounted(t *testing.T) {
	f := newFixture(t)
	req := shared.OnboardingRequest{
		Credentials: shared.Credentials{APIKey: "key-1", CompanyID: "COMP-1", EmployeeID: "EMP-1"},
	}

	rec := f.do(http.MethodPost, "/sessions", req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/sessions", req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, sessionKey, body["sessionKey"])
	assert.Equal(t, true, body["joined"])

	assert.Len(t, f.engine.started, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionsStarted))
}

func TestStart_MissingCredentialIsConfigurationError(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/sessions", shared.OnboardingRequest{
		Credentials: shared.Credentials{APIKey: "key-1", EmployeeID: "EMP-1"},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[shared.StepError](t, rec)
	assert.Equal(t, shared.ErrorKindConfiguration, body.Kind)
	assert.Equal(t, "companyId", body.Field)
	assert.Empty(t, f.engine.started)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.SessionsStarted))
}

func TestStart_EngineUnavailable(t *testing.T) {
	f := newFixture(t)
	f.engine.startErr = errors.New("dial tcp: connection refused")

	rec := f.do(http.MethodPost, "/sessions", shared.OnboardingRequest{
		Credentials: shared.Credentials{APIKey: "key-1", CompanyID: "COMP-1", EmployeeID: "EMP-1"},
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestState(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/sessions/"+sessionKey+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, shared.StepProfileInfo, decode[shared.StateView](t, rec).Step)

	rec = f.do(http.MethodGet, "/sessions/onboard-NOPE/state", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignal_DecodesTypedPayloads(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		route   string
		body    any
		signal  string
		payload any
	}{
		{"profile", shared.ProfileInput{ProfileDetails: shared.ProfileDetails{FirstName: "Ada"}}, shared.SignalProfileSubmitted, shared.ProfileForm{ProfileDetails: shared.ProfileDetails{FirstName: "Ada"}}},
		{"account", shared.AccountInput{Email: "ada@example.com"}, shared.SignalAccountSubmitted, shared.AccountForm{Email: "ada@example.com"}},
		{"document-type", map[string]string{"documentType": "PASSPORT"}, shared.SignalDocumentTypeSelected, shared.DocumentPassport},
		{"verification", nil, shared.SignalVerificationRequested, nil},
		{"capture", shared.CaptureInput{}, shared.SignalDocumentCaptured, shared.CapturedDocument{}},
		{"review", shared.CaptureReview{Accept: true}, shared.SignalCaptureReviewed, shared.CaptureReview{Accept: true}},
		{"abandon-capture", nil, shared.SignalCaptureAbandoned, nil},
		{"signing", nil, shared.SignalSigningRequested, nil},
		{"back-out", nil, shared.SignalSigningBackedOut, nil},
		{"exit", nil, shared.SignalExitConfirmed, nil},
	}
	for _, tc := range tests {
		t.Run(tc.route, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/sessions/"+sessionKey+"/signals/"+tc.route, tc.body)
			require.Equal(t, http.StatusAccepted, rec.Code)

			last := f.engine.signals[len(f.engine.signals)-1]
			assert.Equal(t, sessionKey, last.key)
			assert.Equal(t, tc.signal, last.name)
			assert.Equal(t, tc.payload, last.payload)
		})
	}
}

func TestSignal_SealsSecretFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	image := "data:image/png;base64,aW1hZ2UtYnl0ZXM="

	profile := shared.ProfileInput{
		ProfileDetails: shared.ProfileDetails{FirstName: "Ada", LastName: "Lovelace", DateOfBirth: "1990-03-07"},
		SSNParts:       []string{"123", "45", "6789"},
	}
	account := shared.AccountInput{Email: "ada@example.com", Password: "hunter2hunter2", ConfirmPassword: "hunter2hunter2"}

	for route, body := range map[string]any{
		"profile": profile,
		"account": account,
		"capture": shared.CaptureInput{ImageBase64: image},
	} {
		rec := f.do(http.MethodPost, "/sessions/"+sessionKey+"/signals/"+route, body)
		require.Equal(t, http.StatusAccepted, rec.Code, route)
	}
	require.Len(t, f.engine.signals, 3)

	// Every payload as it would be written to workflow history.
	for _, sig := range f.engine.signals {
		p, err := converter.GetDefaultDataConverter().ToPayload(sig.payload)
		require.NoError(t, err)
		encoded := string(p.GetData())
		for _, secret := range []string{"123456789", "hunter2hunter2", "aW1hZ2UtYnl0ZXM="} {
			assert.NotContains(t, encoded, secret, sig.name)
		}
	}

	reveal := func(ref string) string {
		t.Helper()
		require.NotEmpty(t, ref)
		v, err := f.vault.Reveal(ctx, ref)
		require.NoError(t, err)
		return string(v)
	}
	for _, sig := range f.engine.signals {
		switch p := sig.payload.(type) {
		case shared.ProfileForm:
			assert.Equal(t, "Ada", p.FirstName)
			assert.Equal(t, "123456789", reveal(p.SSNRef))
		case shared.AccountForm:
			assert.Equal(t, "ada@example.com", p.Email)
			assert.Equal(t, "hunter2hunter2", reveal(p.PasswordRef))
		case shared.CapturedDocument:
			assert.Equal(t, image, reveal(p.ImageRef))
		default:
			t.Fatalf("unexpected payload %T", p)
		}
	}
}

func TestSignal_InvalidSecretsAreRejectedBeforeSignal(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		route string
		body  any
		field string
	}{
		{"short ssn", "profile", shared.ProfileInput{SSNParts: []string{"123", "45", "678"}}, "ssn"},
		{"non digit ssn", "profile", shared.ProfileInput{SSNParts: []string{"12a", "45", "6789"}}, "ssn"},
		{"misplaced ssn split", "profile", shared.ProfileInput{SSNParts: []string{"12", "345", "6789", "0"}}, "ssn"},
		{"password mismatch", "account", shared.AccountInput{Email: "a@b.co", Password: "password1", ConfirmPassword: "password2"}, "confirmPassword"},
		{"short password", "account", shared.AccountInput{Email: "a@b.co", Password: "short", ConfirmPassword: "short"}, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/sessions/"+sessionKey+"/signals/"+tc.route, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[shared.StepError](t, rec)
			assert.Equal(t, shared.ErrorKindValidation, body.Kind)
			assert.Equal(t, tc.field, body.Field)
		})
	}
	assert.Empty(t, f.engine.signals)
}

func TestSignal_SecretsWithoutVaultAreRefused(t *testing.T) {
	engine := &fakeEngine{views: map[string]shared.StateView{sessionKey: {Step: shared.StepProfileInfo}}}
	router := api.New(engine).Router()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(shared.ProfileInput{SSNParts: []string{"123-45-6789"}}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/"+sessionKey+"/signals/profile", &buf))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, engine.signals)
}

func TestSignal_Errors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/sessions/"+sessionKey+"/signals/teleport", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionKey+"/signals/profile", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rec = f.do(http.MethodPost, "/sessions/onboard-NOPE/signals/exit", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.engine.signals)
}

func TestVerificationEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(http.MethodGet, "/sessions/"+sessionKey+"/verification", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "nothing pending yet")

	_, err := f.verifier.Launch(ctx, []byte("token-v"), shared.VerificationLaunch{
		SessionKey: sessionKey,
		Session:    shared.VerificationSession{ID: "v-1", URL: "https://magic.veriff.me/v/abc"},
	})
	require.Error(t, err)

	rec = f.do(http.MethodGet, "/sessions/"+sessionKey+"/verification", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://magic.veriff.me/v/abc", decode[map[string]string](t, rec)["url"])

	rec = f.do(http.MethodPost, "/sessions/"+sessionKey+"/verification/result", map[string]string{"status": "STATUS_DONE"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, shared.VerificationDone, decode[shared.VerificationOutcome](t, rec).Status)

	require.Len(t, f.completer.completions, 1)
	assert.Equal(t, []byte("token-v"), f.completer.completions[0].token)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AdapterCompletions.WithLabelValues("verification", "done")))

	rec = f.do(http.MethodPost, "/sessions/"+sessionKey+"/verification/result", map[string]string{"status": "STATUS_DONE"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "a session completes once")

	rec = f.do(http.MethodPost, "/sessions/"+sessionKey+"/verification/result", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSigningEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.signer.Present(ctx, []byte("token-s"), shared.SigningLaunch{
		SessionKey: sessionKey,
		Signing:    shared.Signing{SignatureID: "sig-1", Token: "tok-1"},
	})
	require.Error(t, err)

	rec := f.do(http.MethodGet, "/sessions/"+sessionKey+"/signing", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.joinpuzzl.com/mobile/hellosign/?signature_id=sig-1&token=tok-1",
		decode[map[string]string](t, rec)["url"])

	rec = f.do(http.MethodPost, "/sessions/"+sessionKey+"/signing/events", map[string]string{"event": "signature_request_viewed"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["ignored"])
	assert.Empty(t, f.completer.completions)

	rec = f.do(http.MethodPost, "/sessions/"+sessionKey+"/signing/events", map[string]string{"event": "finished"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "finished", decode[map[string]string](t, rec)["outcome"])
	require.Len(t, f.completer.completions, 1)
	assert.Equal(t, shared.SigningFinished, f.completer.completions[0].result)

	rec = f.do(http.MethodPost, "/sessions/"+sessionKey+"/signing/events", map[string]string{"event": "closed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdaptersNotConfigured(t *testing.T) {
	router := api.New(&fakeEngine{}).Router()

	for _, path := range []string{"/sessions/k/verification", "/sessions/k/signing"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestRequestID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/sessions/"+sessionKey+"/state", nil)
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sessionKey+"/state", nil)
	req.Header.Set("X-Request-ID", id)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	assert.Equal(t, id, rr.Header().Get("X-Request-ID"))
}
