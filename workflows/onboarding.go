package workflows

import (
	"errors"
	"fmt"
	"strings"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"temporal-worker-onboarding/flow"
	"temporal-worker-onboarding/gateway"
	"temporal-worker-onboarding/shared"
)

// errExited is returned by execute and await when the worker confirmed
// exit while the call was in flight.
var errExited = errors.New("worker exited the onboarding session")

// onboardingWorkflow holds the session state and one handler per user event.
type onboardingWorkflow struct {
	// Business state
	state     flow.State
	lastError *shared.StepError
	attempts  int
	// secrets are the vault references seen by this session, purged on
	// the way out.
	secrets []string

	// Workflow context
	req        shared.OnboardingRequest
	sessionKey string
	logger     log.Logger

	profileCh      workflow.ReceiveChannel
	accountCh      workflow.ReceiveChannel
	documentTypeCh workflow.ReceiveChannel
	verifyCh       workflow.ReceiveChannel
	capturedCh     workflow.ReceiveChannel
	reviewedCh     workflow.ReceiveChannel
	abandonedCh    workflow.ReceiveChannel
	signCh         workflow.ReceiveChannel
	backOutCh      workflow.ReceiveChannel
	exitCh         workflow.ReceiveChannel
}

// newOnboardingWorkflow initializes the workflow struct, registers the query
// handler, and sets up the signal channels.
func newOnboardingWorkflow(ctx workflow.Context, req shared.OnboardingRequest) (*onboardingWorkflow, error) {
	w := &onboardingWorkflow{
		state:      flow.Init{Credentials: req.Credentials},
		req:        req,
		sessionKey: workflow.GetInfo(ctx).WorkflowExecution.ID,
		logger:     workflow.GetLogger(ctx),

		profileCh:      workflow.GetSignalChannel(ctx, shared.SignalProfileSubmitted),
		accountCh:      workflow.GetSignalChannel(ctx, shared.SignalAccountSubmitted),
		documentTypeCh: workflow.GetSignalChannel(ctx, shared.SignalDocumentTypeSelected),
		verifyCh:       workflow.GetSignalChannel(ctx, shared.SignalVerificationRequested),
		capturedCh:     workflow.GetSignalChannel(ctx, shared.SignalDocumentCaptured),
		reviewedCh:     workflow.GetSignalChannel(ctx, shared.SignalCaptureReviewed),
		abandonedCh:    workflow.GetSignalChannel(ctx, shared.SignalCaptureAbandoned),
		signCh:         workflow.GetSignalChannel(ctx, shared.SignalSigningRequested),
		backOutCh:      workflow.GetSignalChannel(ctx, shared.SignalSigningBackedOut),
		exitCh:         workflow.GetSignalChannel(ctx, shared.SignalExitConfirmed),
	}

	err := workflow.SetQueryHandler(ctx, shared.QueryOnboardingState, func() (shared.StateView, error) {
		v := flow.View(w.state)
		v.LastError = w.lastError
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set query handler: %w", err)
	}
	return w, nil
}

// apply advances the state machine. Rejected events leave the state as is.
func (w *onboardingWorkflow) apply(e flow.Event) error {
	next, err := flow.Next(w.state, e)
	if err != nil {
		w.logger.Warn("Transition rejected", "step", w.state.Step(), "error", err)
		return err
	}
	if next.Step() != w.state.Step() {
		w.logger.Info("Step changed", "sessionKey", w.sessionKey, "from", w.state.Step(), "to", next.Step())
	}
	w.state = next
	return nil
}

func (w *onboardingWorkflow) remember(ref string) {
	if ref != "" {
		w.secrets = append(w.secrets, ref)
	}
}

func (w *onboardingWorkflow) surface(se *shared.StepError) {
	w.lastError = se
	w.logger.Info("Step error", "step", w.state.Step(), "kind", se.Kind, "field", se.Field, "message", se.Message)
}

// surfaceInvalid shows a rejected input on the current step.
func (w *onboardingWorkflow) surfaceInvalid(err error) {
	var se *shared.StepError
	if !errors.As(err, &se) {
		se = shared.NewStepError(shared.ErrorKindValidation, err.Error())
	}
	w.surface(se)
}

func (w *onboardingWorkflow) fail(kind shared.ErrorKind, reason string) {
	w.logger.Error("Onboarding failed", "sessionKey", w.sessionKey, "step", w.state.Step(), "kind", kind, "reason", reason)
	w.lastError = &shared.StepError{Kind: kind, Message: reason}
	_ = w.apply(flow.FatalError{Kind: kind, Reason: reason})
}

func (w *onboardingWorkflow) exit() {
	w.logger.Info("Worker exited", "sessionKey", w.sessionKey, "step", w.state.Step())
	w.lastError = nil
	_ = w.apply(flow.ExitConfirmed{})
}

// settle handles the error of a remote call and reports whether the step
// must stop. Configuration errors end the session; everything else is
// surfaced on the step so the worker can re-submit.
func (w *onboardingWorkflow) settle(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errExited) {
		return true
	}
	se := classify(err)
	if se.Kind == shared.ErrorKindConfiguration {
		w.fail(se.Kind, se.Message)
		return true
	}
	w.surface(se)
	return true
}

// classify maps an activity or child workflow error onto the error taxonomy.
func classify(err error) *shared.StepError {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch kind := shared.ErrorKind(appErr.Type()); kind {
		case shared.ErrorKindConfiguration, shared.ErrorKindSetup, shared.ErrorKindValidation,
			shared.ErrorKindRemote, shared.ErrorKindSubmission, shared.ErrorKindVerification:
			return shared.NewStepError(kind, appErr.Message())
		}
		return shared.NewStepError(shared.ErrorKindRemote, appErr.Message())
	}
	if temporal.IsTimeoutError(err) {
		return shared.NewStepError(shared.ErrorKindRemote, gateway.TimeoutMessage)
	}
	return shared.NewStepError(shared.ErrorKindRemote, err.Error())
}

// execute runs one activity while still listening for an exit confirmation.
func (w *onboardingWorkflow) execute(ctx workflow.Context, opts workflow.ActivityOptions, activity interface{}, result interface{}, args ...interface{}) error {
	callCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()
	f := workflow.ExecuteActivity(workflow.WithActivityOptions(callCtx, opts), activity, args...)
	return w.await(ctx, cancel, f, result)
}

// await blocks until f resolves or the worker exits. On exit the in-flight
// work is cancelled, the session moves to Cancelled and errExited is
// returned.
func (w *onboardingWorkflow) await(ctx workflow.Context, cancel workflow.CancelFunc, f workflow.Future, result interface{}) error {
	var err error
	exited := false

	selector := workflow.NewSelector(ctx)
	selector.AddFuture(f, func(f workflow.Future) {
		err = f.Get(ctx, result)
	})
	selector.AddReceive(w.exitCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, nil)
		exited = true
	})
	selector.AddReceive(ctx.Done(), func(c workflow.ReceiveChannel, more bool) {
		exited = true
	})
	selector.Select(ctx)

	if exited {
		cancel()
		w.exit()
		return errExited
	}
	return err
}

// expect reports whether the session is on step; signals for any other
// step are dropped.
func (w *onboardingWorkflow) expect(step shared.Step, signal string) bool {
	if w.state.Step() != step {
		w.logger.Warn("Signal ignored", "signal", signal, "step", w.state.Step())
		return false
	}
	w.lastError = nil
	return true
}

func (w *onboardingWorkflow) carry() flow.Carry {
	c, _ := flow.CarryOf(w.state)
	return c
}

// setup loads the business and worker info and opens the profile step.
func (w *onboardingWorkflow) setup(ctx workflow.Context) {
	creds := w.req.Credentials
	opts := remoteOptions(shared.RemoteCallTimeout)

	var user shared.UserInfo
	if err := w.execute(ctx, opts, a.FetchUserInfo, &user, creds); err != nil {
		w.setupFailed(err)
		return
	}
	var worker shared.WorkerInfoResult
	if err := w.execute(ctx, opts, a.FetchWorkerInfo, &worker, creds); err != nil {
		w.setupFailed(err)
		return
	}

	_ = w.apply(flow.SetupSucceeded{
		Business: user.Business,
		Worker:   worker.Worker,
		TestMode: reportsTestMode(user.TestMode) || reportsTestMode(worker.TestMode),
	})
}

func (w *onboardingWorkflow) setupFailed(err error) {
	if errors.Is(err, errExited) {
		return
	}
	w.fail(shared.ErrorKindSetup, classify(err).Message)
}

func reportsTestMode(flag *bool) bool {
	return flag != nil && *flag
}

// waitForEvent blocks until the next user event and handles it.
func (w *onboardingWorkflow) waitForEvent(ctx workflow.Context) {
	var handle func()

	selector := workflow.NewSelector(ctx)
	selector.AddReceive(w.profileCh, func(c workflow.ReceiveChannel, more bool) {
		var form shared.ProfileForm
		c.Receive(ctx, &form)
		handle = func() { w.onProfile(ctx, form) }
	})
	selector.AddReceive(w.accountCh, func(c workflow.ReceiveChannel, more bool) {
		var form shared.AccountForm
		c.Receive(ctx, &form)
		handle = func() { w.onAccount(ctx, form) }
	})
	selector.AddReceive(w.documentTypeCh, func(c workflow.ReceiveChannel, more bool) {
		var dt shared.DocumentType
		c.Receive(ctx, &dt)
		handle = func() { w.onDocumentType(dt) }
	})
	selector.AddReceive(w.verifyCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, nil)
		handle = func() { w.onVerify(ctx) }
	})
	selector.AddReceive(w.capturedCh, func(c workflow.ReceiveChannel, more bool) {
		var doc shared.CapturedDocument
		c.Receive(ctx, &doc)
		handle = func() { w.onCaptured(doc) }
	})
	selector.AddReceive(w.reviewedCh, func(c workflow.ReceiveChannel, more bool) {
		var review shared.CaptureReview
		c.Receive(ctx, &review)
		handle = func() { w.onReviewed(ctx, review) }
	})
	selector.AddReceive(w.abandonedCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, nil)
		handle = w.onAbandoned
	})
	selector.AddReceive(w.signCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, nil)
		handle = func() { w.onSign(ctx) }
	})
	selector.AddReceive(w.backOutCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, nil)
		handle = w.onBackOut
	})
	selector.AddReceive(w.exitCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, nil)
		handle = w.exit
	})
	selector.AddReceive(ctx.Done(), func(c workflow.ReceiveChannel, more bool) {
		handle = w.exit
	})
	selector.Select(ctx)

	if handle != nil {
		handle()
	}
}

func (w *onboardingWorkflow) onProfile(ctx workflow.Context, form shared.ProfileForm) {
	w.remember(form.SSNRef)
	if !w.expect(shared.StepProfileInfo, shared.SignalProfileSubmitted) {
		return
	}
	identity, err := flow.ValidateProfile(form)
	if err != nil {
		w.surfaceInvalid(err)
		return
	}

	err = w.execute(ctx, remoteOptions(shared.RemoteCallTimeout), a.SubmitProfile, nil, shared.ProfileSubmission{
		Credentials: w.req.Credentials,
		Identity:    identity,
	})
	if w.settle(err) {
		return
	}
	_ = w.apply(flow.ProfileAccepted{Identity: identity})
}

func (w *onboardingWorkflow) onAccount(ctx workflow.Context, form shared.AccountForm) {
	w.remember(form.PasswordRef)
	if !w.expect(shared.StepAccountInfo, shared.SignalAccountSubmitted) {
		return
	}
	c := w.carry()

	if c.Session.TestMode {
		email := strings.TrimSpace(form.Email)
		if email == "" {
			email = c.Worker.Email
		}
		w.logger.Info("Test mode, account submission skipped", "sessionKey", w.sessionKey)
		_ = w.apply(flow.AccountAccepted{Email: email})
		return
	}

	email, err := flow.ValidateAccount(form)
	if err != nil {
		w.surfaceInvalid(err)
		return
	}

	err = w.execute(ctx, remoteOptions(shared.RemoteCallTimeout), a.SubmitAccount, nil, shared.AccountSubmission{
		Credentials: w.req.Credentials,
		Email:       email,
		PasswordRef: form.PasswordRef,
	})
	if w.settle(err) {
		return
	}
	_ = w.apply(flow.AccountAccepted{Email: email})
}

func (w *onboardingWorkflow) onDocumentType(dt shared.DocumentType) {
	if !w.expect(shared.StepVerification, shared.SignalDocumentTypeSelected) {
		return
	}
	if err := w.apply(flow.DocumentTypeSelected{DocumentType: dt}); err != nil {
		w.surface(&shared.StepError{
			Kind:    shared.ErrorKindValidation,
			Field:   "documentType",
			Message: fmt.Sprintf("unsupported document type %q", dt),
		})
	}
}

// onVerify reuses a completed verification or runs a new attempt as a
// child workflow.
func (w *onboardingWorkflow) onVerify(ctx workflow.Context) {
	if !w.expect(shared.StepVerification, shared.SignalVerificationRequested) {
		return
	}
	v := w.state.(flow.Verification)
	if v.Verified {
		w.logger.Info("Reusing completed verification", "sessionKey", w.sessionKey)
		_ = w.apply(flow.VerificationReused{})
		return
	}

	w.attempts++
	childCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()
	childCtx = workflow.WithChildOptions(childCtx, workflow.ChildWorkflowOptions{
		WorkflowID: fmt.Sprintf("%s-verify-%d", w.sessionKey, w.attempts),
		TaskQueue:  shared.OnboardingWorkflowTaskQueue,
	})

	var result shared.VerificationResult
	f := workflow.ExecuteChildWorkflow(childCtx, IdentityVerificationWorkflow, shared.VerificationInput{
		SessionKey:   w.sessionKey,
		Credentials:  w.req.Credentials,
		FirstName:    v.Record.Identity.FirstName,
		LastName:     v.Record.Identity.LastName,
		DocumentType: v.Choice,
	})
	if w.settle(w.await(ctx, cancel, f, &result)) {
		return
	}

	switch result.Status {
	case shared.VerificationDone:
		_ = w.apply(flow.VerificationCompleted{SessionID: result.VerificationID})
	case shared.VerificationCanceled:
		_ = w.apply(flow.VerificationCanceled{})
	default:
		_ = w.apply(flow.VerificationCanceled{})
		w.surface(shared.NewStepError(shared.ErrorKindVerification, result.Details))
	}
}

func (w *onboardingWorkflow) onCaptured(doc shared.CapturedDocument) {
	w.remember(doc.ImageRef)
	if !w.expect(shared.StepDocumentCapture, shared.SignalDocumentCaptured) {
		return
	}
	if err := w.apply(flow.DocumentCaptured{ImageRef: doc.ImageRef}); err != nil {
		w.surface(&shared.StepError{Kind: shared.ErrorKindValidation, Field: "image", Message: "no image was captured"})
	}
}

// onReviewed uploads an accepted capture in two phases. Any failure drops
// the capture so the worker takes a new one.
func (w *onboardingWorkflow) onReviewed(ctx workflow.Context, review shared.CaptureReview) {
	if !w.expect(shared.StepDocumentCapture, shared.SignalCaptureReviewed) {
		return
	}
	capture := w.state.(flow.DocumentCapture)
	if !review.Accept {
		_ = w.apply(flow.CaptureRetaken{})
		return
	}
	if capture.Pending == "" {
		w.surface(&shared.StepError{Kind: shared.ErrorKindValidation, Field: "image", Message: "no image was captured"})
		return
	}

	var putURL string
	err := w.execute(ctx, remoteOptions(shared.RemoteCallTimeout), a.RequestUploadURL, &putURL, shared.UploadURLRequest{
		Credentials: w.req.Credentials,
		Key:         capture.Record.Email + shared.DocumentKeySuffix,
		ContentType: shared.DocumentContentType,
	})
	if err == nil {
		err = w.execute(ctx, remoteOptions(shared.UploadTimeout), a.UploadDocument, nil, shared.DocumentUpload{
			PutURL:      putURL,
			ContentType: shared.DocumentContentType,
			ImageRef:    capture.Pending,
		})
	}
	if w.settle(err) {
		if w.state.Step() == shared.StepDocumentCapture {
			_ = w.apply(flow.CaptureRetaken{})
		}
		return
	}
	_ = w.apply(flow.CaptureUploaded{})
}

func (w *onboardingWorkflow) onAbandoned() {
	if !w.expect(shared.StepDocumentCapture, shared.SignalCaptureAbandoned) {
		return
	}
	_ = w.apply(flow.CaptureAbandoned{})
}

// onSign opens (or reopens) the signing session and, once it finishes,
// submits the signed paperwork. A paperwork failure keeps the session
// signed so the next request only retries the submission.
func (w *onboardingWorkflow) onSign(ctx workflow.Context) {
	if !w.expect(shared.StepESignature, shared.SignalSigningRequested) {
		return
	}
	s := w.state.(flow.ESignature)

	if !s.Signed {
		if s.Record.Signing.Empty() {
			var session shared.SigningSession
			err := w.execute(ctx, remoteOptions(shared.RemoteCallTimeout), a.RequestSigningSession, &session, shared.SigningRequest{
				Credentials: w.req.Credentials,
				Identity:    s.Record.Identity,
				Email:       s.Record.Email,
			})
			if w.settle(err) {
				return
			}
			if err := w.apply(flow.SigningOpened{Signing: session.Signing}); err != nil {
				return
			}
			s = w.state.(flow.ESignature)
		}

		var outcome shared.SigningOutcome
		err := w.execute(ctx, adapterOptions(), a.PresentSigningSession, &outcome, shared.SigningLaunch{
			SessionKey: w.sessionKey,
			Signing:    s.Record.Signing,
		})
		if w.settle(err) {
			return
		}
		if outcome != shared.SigningFinished {
			w.logger.Info("Signing aborted", "sessionKey", w.sessionKey, "outcome", outcome)
			_ = w.apply(flow.SigningAborted{})
			return
		}
		if err := w.apply(flow.SigningFinished{}); err != nil {
			return
		}
		s = w.state.(flow.ESignature)
	}

	err := w.execute(ctx, remoteOptions(shared.RemoteCallTimeout), a.SubmitPaperwork, nil, shared.PaperworkSubmission{
		Credentials: w.req.Credentials,
		Email:       s.Record.Email,
		Signing:     s.Record.Signing,
	})
	if w.settle(err) {
		return
	}
	_ = w.apply(flow.PaperworkSubmitted{})
}

func (w *onboardingWorkflow) onBackOut() {
	if !w.expect(shared.StepESignature, shared.SignalSigningBackedOut) {
		return
	}
	if err := w.apply(flow.SigningBackedOut{}); err != nil {
		w.surfaceInvalid(err)
	}
}

// finish reports the terminal state to the host exactly once and drops the
// session's sealed secrets. It runs on a disconnected context so a
// cancelled session is still reported.
func (w *onboardingWorkflow) finish(ctx workflow.Context) shared.OnboardingResult {
	result := shared.OnboardingResult{Outcome: w.state.Step()}
	n := shared.HostNotification{
		SessionKey: w.sessionKey,
		ShowError:  w.req.Host.ShowError,
	}

	switch s := w.state.(type) {
	case flow.Completed:
		n.Event = shared.HostEventFinished
	case flow.Cancelled:
		n.Event = shared.HostEventCancelled
	case flow.Failed:
		result.Reason = s.Reason
		n.Reason = s.Reason
		n.Event = shared.HostEventError
		if !w.req.Host.ErrorCallback {
			n.Event = shared.HostEventCancelled
		}
		if n.ShowError {
			n.Message = w.req.Host.ErrorMessage
			if n.Message == "" {
				n.Message = shared.DefaultErrorMessage
			}
		}
	}

	notifyCtx, _ := workflow.NewDisconnectedContext(ctx)
	notifyCtx = workflow.WithActivityOptions(notifyCtx, notifyOptions())
	if err := workflow.ExecuteActivity(notifyCtx, a.NotifyHost, n).Get(notifyCtx, nil); err != nil {
		w.logger.Error("Failed to notify host", "sessionKey", w.sessionKey, "event", n.Event, "error", err)
	}
	if len(w.secrets) > 0 {
		if err := workflow.ExecuteActivity(notifyCtx, a.PurgeSecrets, w.secrets).Get(notifyCtx, nil); err != nil {
			w.logger.Warn("Failed to purge secrets, they will expire", "sessionKey", w.sessionKey, "error", err)
		}
	}

	w.logger.Info("Onboarding workflow finished", "sessionKey", w.sessionKey, "outcome", result.Outcome)
	return result
}

// OnboardingWorkflow orchestrates one worker's onboarding session.
//
// Steps:
//
//	Init → ProfileInfo → AccountInfo → Verification → [DocumentCapture] → ESignature → Completed
//
// Every user interaction arrives as a signal and is handled on the step it
// belongs to; signals for other steps are dropped. Remote calls run as
// activities exactly once, identity verification runs as a child workflow,
// and an exit confirmation cancels whatever is in flight. The host is
// notified once when the session reaches Completed, Cancelled or Failed.
//
// Temporal features demonstrated:
//   - Signals and a selector-driven event loop
//   - Queries (QueryOnboardingState)
//   - Child workflows (Identity Verification)
//   - Asynchronous activity completion for device-side adapters
//   - Cancellation scopes and disconnected contexts
func OnboardingWorkflow(ctx workflow.Context, req shared.OnboardingRequest) (shared.OnboardingResult, error) {
	if err := req.Credentials.Validate(); err != nil {
		return shared.OnboardingResult{}, temporal.NewNonRetryableApplicationError(err.Error(), shared.ErrTypeConfiguration, err)
	}

	w, err := newOnboardingWorkflow(ctx, req)
	if err != nil {
		return shared.OnboardingResult{}, err
	}

	w.logger.Info("Onboarding workflow started",
		"companyId", req.Credentials.CompanyID,
		"employeeId", req.Credentials.EmployeeID,
	)

	w.setup(ctx)
	for !w.state.Step().Terminal() {
		w.waitForEvent(ctx)
	}
	return w.finish(ctx), nil
}
