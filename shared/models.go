package shared

import (
	"strings"
	"time"
)

// Step names one state of the onboarding session.
type Step string

const (
	StepInit            Step = "INIT"
	StepProfileInfo     Step = "PROFILE_INFO"
	StepAccountInfo     Step = "ACCOUNT_INFO"
	StepVerification    Step = "VERIFICATION"
	StepDocumentCapture Step = "DOCUMENT_CAPTURE"
	StepESignature      Step = "E_SIGNATURE"
	StepCompleted       Step = "COMPLETED"
	StepCancelled       Step = "CANCELLED"
	StepFailed          Step = "FAILED"
)

// Terminal reports whether no further transition can leave s.
func (s Step) Terminal() bool {
	return s == StepCompleted || s == StepCancelled || s == StepFailed
}

// DocumentType selects the identity verification branch.
type DocumentType string

const (
	DocumentDriversLicense DocumentType = "DRIVERS_LICENSE"
	DocumentPassport       DocumentType = "PASSPORT"
)

// Valid reports whether d is one of the supported branches.
func (d DocumentType) Valid() bool {
	return d == DocumentDriversLicense || d == DocumentPassport
}

// Credentials identify the host company and the worker being onboarded.
type Credentials struct {
	APIKey     string `json:"apiKey"`
	CompanyID  string `json:"companyId"`
	EmployeeID string `json:"employeeId"`
}

// Validate reports the first missing credential as a configuration error.
func (c Credentials) Validate() error {
	switch {
	case strings.TrimSpace(c.APIKey) == "":
		return &StepError{Kind: ErrorKindConfiguration, Field: "apiKey", Message: "the apiKey is not set"}
	case strings.TrimSpace(c.CompanyID) == "":
		return &StepError{Kind: ErrorKindConfiguration, Field: "companyId", Message: "the companyId is not set"}
	case strings.TrimSpace(c.EmployeeID) == "":
		return &StepError{Kind: ErrorKindConfiguration, Field: "employeeId", Message: "the employeeId is not set"}
	}
	return nil
}

// BusinessProfile is display-only company information.
type BusinessProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	HasLogo bool   `json:"hasLogo"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// WorkerInfo is what the backend already knows about the worker.
type WorkerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// SessionContext is fixed once setup completes.
type SessionContext struct {
	Credentials Credentials     `json:"credentials"`
	TestMode    bool            `json:"testMode"`
	Business    BusinessProfile `json:"business"`
}

// HostOptions mirror the host's error reporting configuration.
type HostOptions struct {
	ShowError     bool   `json:"showError"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	ErrorCallback bool   `json:"errorCallback"`
}

// OnboardingRequest is the input to the OnboardingWorkflow.
type OnboardingRequest struct {
	Credentials Credentials `json:"credentials"`
	Host        HostOptions `json:"host"`
}

// Identity is the personal data owned by the profile step. The SSN itself
// stays in the vault; only its reference is kept.
type Identity struct {
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	MiddleInitial string    `json:"middleInitial,omitempty"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Zip           string    `json:"zip"`
	Phone         string    `json:"phone"`
	SSNRef        string    `json:"ssnRef"`
	DateOfBirth   time.Time `json:"dateOfBirth"`
}

// Verification holds the artifacts owned by the verification step.
type Verification struct {
	DocumentType DocumentType `json:"documentType,omitempty"`
	SessionID    string       `json:"sessionId,omitempty"`
}

// Signing holds the artifacts owned by the e-signature step.
type Signing struct {
	EmployeeSigID      string `json:"employeeSigId,omitempty"`
	CompanySigID       string `json:"companySigId,omitempty"`
	SignatureRequestID string `json:"signatureRequestId,omitempty"`
	SignatureID        string `json:"signatureId,omitempty"`
	Token              string `json:"token,omitempty"`
}

// Empty reports whether no signing session has been opened.
func (s Signing) Empty() bool {
	return s.SignatureID == "" && s.SignatureRequestID == ""
}

// WorkerRecord accumulates across steps. Each step only adds the fields it
// owns. The account password is never part of it.
type WorkerRecord struct {
	Identity     Identity     `json:"identity"`
	Email        string       `json:"email,omitempty"`
	Verification Verification `json:"verification"`
	Signing      Signing      `json:"signing"`
}

// ProfileDetails are the profile fields that carry no secret.
type ProfileDetails struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	MiddleInitial string `json:"middleInitial,omitempty"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Phone         string `json:"phone"`
	DateOfBirth   string `json:"dateOfBirth"` // YYYY-MM-DD
}

// ProfileInput is the profile form as entered by the worker.
type ProfileInput struct {
	ProfileDetails
	SSNParts []string `json:"ssnParts"`
}

// ProfileForm is the payload of SignalProfileSubmitted.
type ProfileForm struct {
	ProfileDetails
	SSNRef string `json:"ssnRef,omitempty"`
}

// AccountInput is the account form as entered by the worker.
type AccountInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AccountForm is the payload of SignalAccountSubmitted.
type AccountForm struct {
	Email       string `json:"email"`
	PasswordRef string `json:"passwordRef,omitempty"`
}

// CaptureInput is a still image produced by the capture collaborator.
type CaptureInput struct {
	ImageBase64 string `json:"imageBase64"`
}

// CapturedDocument is the payload of SignalDocumentCaptured.
type CapturedDocument struct {
	ImageRef string `json:"imageRef"`
}

// CaptureReview is the payload of SignalCaptureReviewed.
type CaptureReview struct {
	Accept bool `json:"accept"`
}

// UserInfo is returned by the FetchUserInfo activity.
type UserInfo struct {
	Business BusinessProfile `json:"business"`
	TestMode *bool           `json:"testMode,omitempty"`
}

// WorkerInfoResult is returned by the FetchWorkerInfo activity.
type WorkerInfoResult struct {
	Worker   WorkerInfo `json:"worker"`
	TestMode *bool      `json:"testMode,omitempty"`
}

// ProfileSubmission is the input to the SubmitProfile activity.
type ProfileSubmission struct {
	Credentials Credentials `json:"credentials"`
	Identity    Identity    `json:"identity"`
}

// AccountSubmission is the input to the SubmitAccount activity.
type AccountSubmission struct {
	Credentials Credentials `json:"credentials"`
	Email       string      `json:"email"`
	PasswordRef string      `json:"passwordRef"`
}

// VerificationRequest is the input to the RequestVerificationSession activity.
type VerificationRequest struct {
	Credentials  Credentials  `json:"credentials"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	DocumentType DocumentType `json:"documentType"`
}

// VerificationSession is a provider session ready to be launched.
type VerificationSession struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	SessionToken string `json:"sessionToken,omitempty"`
	BaseURL      string `json:"baseUrl,omitempty"`
}

// VerificationStatus is the reduced terminal outcome of a verification session.
type VerificationStatus string

const (
	VerificationDone     VerificationStatus = "done"
	VerificationCanceled VerificationStatus = "canceled"
	VerificationErrored  VerificationStatus = "error"
)

// VerificationOutcome is returned by the LaunchVerification activity.
type VerificationOutcome struct {
	Status VerificationStatus `json:"status"`
	Reason string             `json:"reason,omitempty"`
}

// VerificationLaunch is the input to the LaunchVerification activity.
type VerificationLaunch struct {
	SessionKey string              `json:"sessionKey"`
	Session    VerificationSession `json:"session"`
}

// VerificationSubmission is the input to the SubmitVerification activity.
type VerificationSubmission struct {
	Credentials    Credentials `json:"credentials"`
	VerificationID string      `json:"verificationId"`
}

// VerificationInput is the input to the IdentityVerificationWorkflow.
type VerificationInput struct {
	SessionKey   string       `json:"sessionKey"`
	Credentials  Credentials  `json:"credentials"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	DocumentType DocumentType `json:"documentType"`
}

// VerificationResult is the output of the IdentityVerificationWorkflow.
type VerificationResult struct {
	Status         VerificationStatus `json:"status"`
	VerificationID string             `json:"verificationId,omitempty"`
	Details        string             `json:"details,omitempty"`
}

// UploadURLRequest is the input to the RequestUploadURL activity.
type UploadURLRequest struct {
	Credentials Credentials `json:"credentials"`
	Key         string      `json:"key"`
	ContentType string      `json:"contentType"`
}

// DocumentUpload is the input to the UploadDocument activity.
type DocumentUpload struct {
	PutURL      string `json:"putUrl"`
	ContentType string `json:"contentType"`
	ImageRef    string `json:"imageRef"`
}

// SigningRequest is the input to the RequestSigningSession activity.
type SigningRequest struct {
	Credentials Credentials `json:"credentials"`
	Identity    Identity    `json:"identity"`
	Email       string      `json:"email"`
}

// SigningSession is a pre-parsed e-signature session.
type SigningSession struct {
	SignURL string  `json:"signUrl"`
	Signing Signing `json:"signing"`
}

// SigningOutcome is the reduced terminal event of a signing session.
type SigningOutcome string

const (
	SigningFinished  SigningOutcome = "finished"
	SigningCancelled SigningOutcome = "cancelled"
	SigningClosed    SigningOutcome = "closed"
)

// SigningLaunch is the input to the PresentSigningSession activity.
type SigningLaunch struct {
	SessionKey string  `json:"sessionKey"`
	Signing    Signing `json:"signing"`
}

// PaperworkSubmission is the input to the SubmitPaperwork activity.
type PaperworkSubmission struct {
	Credentials Credentials `json:"credentials"`
	Email       string      `json:"email"`
	Signing     Signing     `json:"signing"`
}

// HostEvent names the host callback being reported.
type HostEvent string

const (
	HostEventFinished  HostEvent = "finished"
	HostEventCancelled HostEvent = "cancelled"
	HostEventError     HostEvent = "error"
)

// HostNotification is the input to the NotifyHost activity.
type HostNotification struct {
	SessionKey string    `json:"sessionKey"`
	Event      HostEvent `json:"event"`
	ShowError  bool      `json:"showError"`
	Message    string    `json:"message,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// OnboardingResult is the output of the OnboardingWorkflow.
type OnboardingResult struct {
	Outcome Step   `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// StateView is returned by the query handler. It never carries the SSN or
// the account password.
type StateView struct {
	Step                  Step            `json:"step"`
	TestMode              bool            `json:"testMode"`
	Business              BusinessProfile `json:"business"`
	Worker                WorkerInfo      `json:"worker"`
	ProfileComplete       bool            `json:"profileComplete"`
	Email                 string          `json:"email,omitempty"`
	DocumentType          DocumentType    `json:"documentType,omitempty"`
	VerificationCompleted bool            `json:"verificationCompleted"`
	PendingCapture        bool            `json:"pendingCapture"`
	Signed                bool            `json:"signed"`
	LastError             *StepError      `json:"lastError,omitempty"`
	Reason                string          `json:"reason,omitempty"`
}
