// Package api is the host-facing HTTP surface: it starts sessions, relays
// worker events as workflow signals, exposes the session state, and
// accepts adapter completions.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"temporal-worker-onboarding/esign"
	"temporal-worker-onboarding/handoff"
	"temporal-worker-onboarding/metrics"
	"temporal-worker-onboarding/shared"
)

// VerificationCompleter finishes a pending verification adapter session.
type VerificationCompleter interface {
	PendingURL(ctx context.Context, sessionKey string) (string, error)
	Complete(ctx context.Context, sessionKey, status, reason string) (shared.VerificationOutcome, error)
}

// SigningDeliverer forwards e-signature messages to a pending session.
type SigningDeliverer interface {
	PendingURL(ctx context.Context, sessionKey string) (string, error)
	Deliver(ctx context.Context, sessionKey, message string) (shared.SigningOutcome, error)
}

// Handler wires onboarding endpoints to the engine and the adapters.
type Handler struct {
	engine       Engine
	intake       *Intake
	verification VerificationCompleter
	signing      SigningDeliverer
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithSecrets sets the vault that secret form fields are sealed into.
// Without it the profile, account and capture signals are refused.
func WithSecrets(v handoff.Vault) Option {
	return func(h *Handler) {
		h.intake = NewIntake(v)
	}
}

// WithVerification enables the verification completion endpoints.
func WithVerification(v VerificationCompleter) Option {
	return func(h *Handler) {
		h.verification = v
	}
}

// WithSigning enables the e-signature message endpoints.
func WithSigning(s SigningDeliverer) Option {
	return func(h *Handler) {
		h.signing = s
	}
}

func New(engine Engine, opts ...Option) *Handler {
	h := &Handler{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns a chi router with the middleware stack and every
// endpoint mounted.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(WithRequestID)
	r.Use(AccessLog(h.logger))
	h.Register(r)
	return r
}

// Register mounts onboarding endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.HandleStart)
	r.Route("/sessions/{sessionKey}", func(r chi.Router) {
		r.Get("/state", h.HandleState)
		r.Post("/signals/{signal}", h.HandleSignal)
		r.Get("/verification", h.HandleVerificationURL)
		r.Post("/verification/result", h.HandleVerificationResult)
		r.Get("/signing", h.HandleSigningURL)
		r.Post("/signing/events", h.HandleSigningEvent)
	})
}

type startResponse struct {
	SessionKey string `json:"sessionKey"`
	Joined     bool   `json:"joined,omitempty"`
}

// HandleStart handles POST /sessions.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req shared.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON")
		return
	}

	started, err := h.engine.Start(ctx, req)
	if err != nil {
		var stepErr *shared.StepError
		if errors.As(err, &stepErr) {
			writeJSON(w, http.StatusBadRequest, stepErr)
			return
		}
		h.logger.ErrorContext(ctx, "session start failed",
			"request_id", RequestID(ctx),
			"companyId", req.Credentials.CompanyID,
			"employeeId", req.Credentials.EmployeeID,
			"error", err,
		)
		writeError(w, http.StatusServiceUnavailable, "unavailable", "the session could not be started")
		return
	}

	resp := startResponse{SessionKey: started.SessionKey, Joined: started.Joined}
	if started.Joined {
		h.logger.InfoContext(ctx, "session joined", "request_id", RequestID(ctx), "sessionKey", started.SessionKey)
		writeJSON(w, http.StatusOK, resp)
		return
	}
	h.metrics.IncrementSessionsStarted()
	h.logger.InfoContext(ctx, "session started", "request_id", RequestID(ctx), "sessionKey", started.SessionKey)
	writeJSON(w, http.StatusCreated, resp)
}

// HandleState handles GET /sessions/{sessionKey}/state.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.State(r.Context(), chi.URLParam(r, "sessionKey"))
	if err != nil {
		h.engineError(w, r, "state query failed", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleSignal handles POST /sessions/{sessionKey}/signals/{signal}.
// Input the intake rejects is answered with the step error and never
// reaches the session.
func (h *Handler) HandleSignal(w http.ResponseWriter, r *http.Request) {
	route, ok := signalRoutes[chi.URLParam(r, "signal")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown signal")
		return
	}
	payload, err := route.decode(r, h.intake)
	if err != nil {
		h.payloadError(w, r, err)
		return
	}
	if err := h.engine.Signal(r.Context(), chi.URLParam(r, "sessionKey"), route.name, payload); err != nil {
		h.engineError(w, r, "signal failed", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type pendingResponse struct {
	URL string `json:"url"`
}

// HandleVerificationURL handles GET /sessions/{sessionKey}/verification.
func (h *Handler) HandleVerificationURL(w http.ResponseWriter, r *http.Request) {
	if h.verification == nil {
		writeError(w, http.StatusNotFound, "not_found", "identity verification is not available")
		return
	}
	u, err := h.verification.PendingURL(r.Context(), chi.URLParam(r, "sessionKey"))
	if err != nil {
		h.adapterError(w, r, "verification lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, pendingResponse{URL: u})
}

type verificationResult struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// HandleVerificationResult handles POST /sessions/{sessionKey}/verification/result.
func (h *Handler) HandleVerificationResult(w http.ResponseWriter, r *http.Request) {
	if h.verification == nil {
		writeError(w, http.StatusNotFound, "not_found", "identity verification is not available")
		return
	}
	var body verificationResult
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "status is required")
		return
	}
	outcome, err := h.verification.Complete(r.Context(), chi.URLParam(r, "sessionKey"), body.Status, body.Reason)
	if err != nil {
		h.adapterError(w, r, "verification completion failed", err)
		return
	}
	h.metrics.IncrementAdapterCompletion("verification", string(outcome.Status))
	writeJSON(w, http.StatusOK, outcome)
}

// HandleSigningURL handles GET /sessions/{sessionKey}/signing.
func (h *Handler) HandleSigningURL(w http.ResponseWriter, r *http.Request) {
	if h.signing == nil {
		writeError(w, http.StatusNotFound, "not_found", "e-signature is not available")
		return
	}
	u, err := h.signing.PendingURL(r.Context(), chi.URLParam(r, "sessionKey"))
	if err != nil {
		h.adapterError(w, r, "signing lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, pendingResponse{URL: u})
}

type signingEvent struct {
	Event string `json:"event"`
}

type signingResponse struct {
	Outcome shared.SigningOutcome `json:"outcome,omitempty"`
	Ignored bool                  `json:"ignored,omitempty"`
}

// HandleSigningEvent handles POST /sessions/{sessionKey}/signing/events.
// Messages that do not end the session are acknowledged and dropped.
func (h *Handler) HandleSigningEvent(w http.ResponseWriter, r *http.Request) {
	if h.signing == nil {
		writeError(w, http.StatusNotFound, "not_found", "e-signature is not available")
		return
	}
	var body signingEvent
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "event is required")
		return
	}
	outcome, err := h.signing.Deliver(r.Context(), chi.URLParam(r, "sessionKey"), body.Event)
	switch {
	case errors.Is(err, esign.ErrIgnored):
		writeJSON(w, http.StatusAccepted, signingResponse{Ignored: true})
		return
	case err != nil:
		h.adapterError(w, r, "signing delivery failed", err)
		return
	}
	h.metrics.IncrementAdapterCompletion("signing", string(outcome))
	writeJSON(w, http.StatusOK, signingResponse{Outcome: outcome})
}

func (h *Handler) payloadError(w http.ResponseWriter, r *http.Request, err error) {
	var stepErr *shared.StepError
	switch {
	case errors.Is(err, errMalformed):
		writeError(w, http.StatusBadRequest, "bad_request", "signal payload is not valid JSON")
	case errors.As(err, &stepErr):
		writeJSON(w, http.StatusBadRequest, stepErr)
	default:
		h.logger.ErrorContext(r.Context(), "signal intake failed",
			"request_id", RequestID(r.Context()),
			"sessionKey", chi.URLParam(r, "sessionKey"),
			"signal", chi.URLParam(r, "signal"),
			"error", err,
		)
		writeError(w, http.StatusServiceUnavailable, "unavailable", "the form could not be accepted")
	}
}

func (h *Handler) engineError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "no running session under this key")
		return
	}
	h.logger.ErrorContext(r.Context(), msg,
		"request_id", RequestID(r.Context()),
		"sessionKey", chi.URLParam(r, "sessionKey"),
		"error", err,
	)
	writeError(w, http.StatusServiceUnavailable, "unavailable", "the session could not be reached")
}

func (h *Handler) adapterError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, handoff.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "no pending adapter session")
		return
	}
	h.logger.ErrorContext(r.Context(), msg,
		"request_id", RequestID(r.Context()),
		"sessionKey", chi.URLParam(r, "sessionKey"),
		"error", err,
	)
	writeError(w, http.StatusBadGateway, "adapter_error", "the adapter session could not be completed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}
