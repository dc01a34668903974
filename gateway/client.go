// Package gateway is the HTTP client for the onboarding backend. Every call
// carries a bounded timeout and reports failures as *RemoteError; logical
// failures (success=false) are returned to the caller untouched.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"temporal-worker-onboarding/shared"
)

const tracerName = "temporal-worker-onboarding/gateway"

// Client calls the onboarding backend.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	callTimeout   time.Duration
	uploadTimeout time.Duration
	logger        *slog.Logger
	tracer        trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeouts overrides the per-call budgets.
func WithTimeouts(call, upload time.Duration) Option {
	return func(c *Client) {
		c.callTimeout = call
		c.uploadTimeout = upload
	}
}

// New constructs a Client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		callTimeout:   shared.RemoteCallTimeout,
		uploadTimeout: shared.UploadTimeout,
		logger:        slog.Default(),
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetUserInfo(ctx context.Context, apiKey, companyID string) (*UserInfoResponse, error) {
	var out UserInfoResponse
	q := url.Values{"companyID": {companyID}}
	err := c.call(ctx, "getUserInfo", http.MethodGet, "/mobile/getUserInfo", q, apiKey, nil, &out)
	return &out, err
}

func (c *Client) GetWorkerInfo(ctx context.Context, apiKey, companyID, employeeID string) (*WorkerInfoResponse, error) {
	var out WorkerInfoResponse
	q := url.Values{"companyID": {companyID}, "employeeID": {employeeID}}
	err := c.call(ctx, "getWorkerInfo", http.MethodGet, "/mobile/getWorkerInfo", q, apiKey, nil, &out)
	return &out, err
}

func (c *Client) SubmitProfileInfo(ctx context.Context, apiKey string, req ProfileInfoRequest) (*SuccessResponse, error) {
	var out SuccessResponse
	err := c.call(ctx, "submitProfileInfo", http.MethodPost, "/mobile/submitWorkerProfileInfo", nil, apiKey, req, &out)
	return &out, err
}

func (c *Client) SubmitAccountInfo(ctx context.Context, apiKey string, req AccountInfoRequest) (*SuccessResponse, error) {
	var out SuccessResponse
	err := c.call(ctx, "submitAccountInfo", http.MethodPost, "/mobile/submitWorkerAccountInfo", nil, apiKey, req, &out)
	return &out, err
}

func (c *Client) GetVerificationSetup(ctx context.Context, apiKey string, req VerificationSetupRequest) (*VerificationSetupResponse, error) {
	var out VerificationSetupResponse
	err := c.call(ctx, "getVerificationSetup", http.MethodPost, "/mobile/getVeriffSetup", nil, apiKey, req, &out)
	return &out, err
}

func (c *Client) SubmitWorkerVerification(ctx context.Context, apiKey string, req WorkerVerificationRequest) (*SuccessResponse, error) {
	var out SuccessResponse
	err := c.call(ctx, "submitWorkerVerification", http.MethodPost, "/mobile/submitWorkerVerification", nil, apiKey, req, &out)
	return &out, err
}

// GetDocumentPutURL is the first phase of a document upload.
func (c *Client) GetDocumentPutURL(ctx context.Context, apiKey, key, contentType string) (*PutURLResponse, error) {
	var out PutURLResponse
	q := url.Values{"Key": {key}, "ContentType": {contentType}}
	err := c.call(ctx, "getDocumentPutURL", http.MethodGet, "/generate-sscard-put-url", q, apiKey, nil, &out)
	return &out, err
}

// UploadDocument is the second phase of a document upload. Only a 2xx
// status counts as success.
func (c *Client) UploadDocument(ctx context.Context, putURL, contentType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, putURL, bytes.NewReader(body))
	if err != nil {
		return &RemoteError{Operation: "uploadDocument", Message: "invalid upload url", Underlying: err}
	}
	req.Header.Set("Content-Type", contentType)
	return c.send(ctx, "uploadDocument", req, nil)
}

func (c *Client) GetSigningSession(ctx context.Context, apiKey string, req SigningSessionRequest) (*SigningSessionResponse, error) {
	var out SigningSessionResponse
	err := c.call(ctx, "getSigningSession", http.MethodPost, "/mobile/signW2", nil, apiKey, req, &out)
	return &out, err
}

func (c *Client) SubmitWorkerPaperwork(ctx context.Context, apiKey string, req PaperworkRequest) (*SuccessResponse, error) {
	var out SuccessResponse
	err := c.call(ctx, "submitWorkerPaperwork", http.MethodPost, "/mobile/submitWorkerPaperwork", nil, apiKey, req, &out)
	return &out, err
}

// NotifyHost posts a terminal session event to the host's callback URL.
func (c *Client) NotifyHost(ctx context.Context, callbackURL string, n shared.HostNotification) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode host notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(payload))
	if err != nil {
		return &RemoteError{Operation: "notifyHost", Message: "invalid callback url", Underlying: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(ctx, "notifyHost", req, nil)
}

func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, apiKey string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &RemoteError{Operation: op, Message: "invalid request", Underlying: err}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(ctx, op, req, out)
}

func (c *Client) send(ctx context.Context, op string, req *http.Request, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "gateway."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", req.Method)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		if isTimeout(err) {
			return &RemoteError{Operation: op, Message: TimeoutMessage, Timeout: true, Underlying: err}
		}
		return &RemoteError{Operation: op, Message: "request failed", Underlying: err}
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		var eb errorBody
		if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil {
			if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
				msg = eb.Message
			}
		}
		c.logger.WarnContext(ctx, "backend request rejected",
			"operation", op,
			"status", resp.StatusCode,
			"message", msg,
		)
		return &RemoteError{Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return &RemoteError{Operation: op, Message: TimeoutMessage, Timeout: true, Underlying: err}
		}
		return &RemoteError{Operation: op, StatusCode: resp.StatusCode, Message: "malformed response", Underlying: err}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
