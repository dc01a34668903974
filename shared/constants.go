package shared

import "time"

// Task queue names.
const (
	OnboardingWorkflowTaskQueue = "onboarding-workflow-tq"
	ActivityTaskQueue           = "activity-tq"
)

// Signal and query names.
const (
	SignalProfileSubmitted      = "signal-profile-submitted"
	SignalAccountSubmitted      = "signal-account-submitted"
	SignalDocumentTypeSelected  = "signal-document-type-selected"
	SignalVerificationRequested = "signal-verification-requested"
	SignalDocumentCaptured      = "signal-document-captured"
	SignalCaptureReviewed       = "signal-capture-reviewed"
	SignalCaptureAbandoned      = "signal-capture-abandoned"
	SignalSigningRequested      = "signal-signing-requested"
	SignalSigningBackedOut      = "signal-signing-backed-out"
	SignalExitConfirmed         = "signal-exit-confirmed"
	QueryOnboardingState        = "query-onboarding-state"
)

// Call budgets. Remote calls are never retried by the orchestrator; the
// worker retries by re-attempting the step.
const (
	RemoteCallTimeout     = 8 * time.Second
	UploadTimeout         = 15 * time.Second
	AdapterSessionTimeout = 30 * time.Minute
	HostNotifyTimeout     = 10 * time.Second
)

// Vault lifetimes. A password or a captured image is consumed by the next
// submission; the SSN is read again when the signing session is opened.
const (
	PasswordTTL = 15 * time.Minute
	DocumentTTL = 15 * time.Minute
	IdentityTTL = 24 * time.Hour
)

// Error types carried by non-retryable application errors.
const (
	ErrTypeConfiguration = "ConfigurationError"
	ErrTypeSetup         = "SetupError"
	ErrTypeValidation    = "ValidationError"
	ErrTypeRemote        = "RemoteError"
	ErrTypeSubmission    = "SubmissionError"
	ErrTypeVerification  = "VerificationError"
)

// Upload contract for the social security card photo.
const (
	DocumentContentType = "image/png"
	DocumentKeySuffix   = "-sscard"
)

// DefaultErrorMessage is shown to the worker when the host does not override it.
const DefaultErrorMessage = "An error occurred, please try again later."

// DateOfBirthLayout is the wire format for dates of birth.
const DateOfBirthLayout = "01/02/2006"
