package gateway

// Wire payloads exchanged with the onboarding backend.

type UserInfoResponse struct {
	Data struct {
		BusinessName  string  `json:"business_name"`
		BusinessEmail string  `json:"business_email"`
		HasLogo       bool    `json:"hasLogo"`
		LogoURL       *string `json:"logoUrl"`
	} `json:"data"`
	TestMode *bool `json:"testMode,omitempty"`
}

type WorkerInfoResponse struct {
	Data struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"data"`
	TestMode *bool `json:"testMode,omitempty"`
}

// SuccessResponse is the logical result most submissions return.
type SuccessResponse struct {
	Success bool `json:"success"`
}

type ProfileInfoRequest struct {
	CompanyID     string `json:"companyID"`
	EmployeeID    string `json:"employeeID"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	SSN           string `json:"ssn"`
	PhoneNumber   string `json:"phone_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	MiddleInitial string `json:"middle_initial"`
	DOB           string `json:"dob"`
}

type AccountInfoRequest struct {
	CompanyID  string `json:"companyID"`
	EmployeeID string `json:"employeeID"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type VerificationSetupRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DocumentType string `json:"document_type"`
}

type VerificationSetupResponse struct {
	Status       string `json:"status"`
	Success      bool   `json:"success"`
	Verification struct {
		ID           string `json:"id"`
		URL          string `json:"url"`
		SessionToken string `json:"sessionToken"`
		BaseURL      string `json:"baseUrl"`
	} `json:"verification"`
}

type WorkerVerificationRequest struct {
	CompanyID  string `json:"companyID"`
	EmployeeID string `json:"employeeID"`
	VeriffID   string `json:"veriff_id"`
}

type PutURLResponse struct {
	Success bool `json:"success"`
	Data    struct {
		PutURL string `json:"putURL"`
	} `json:"data"`
}

type SigningSessionRequest struct {
	CompanyID     string `json:"companyID"`
	EmployeeID    string `json:"employeeID"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	MiddleInitial string `json:"middle_initial"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	SSN           string `json:"ssn"`
	DOB           string `json:"dob"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
}

type SigningSessionResponse struct {
	SignURL            string `json:"signURL"`
	EmployeeSigID      string `json:"employee_sigId"`
	CompanySigID       string `json:"company_sigId"`
	SignatureRequestID string `json:"signature_request_id"`
}

type PaperworkRequest struct {
	CompanyID          string `json:"companyID"`
	EmployeeID         string `json:"employeeID"`
	Email              string `json:"email"`
	EmployeeSigID      string `json:"employee_sigId"`
	CompanySigID       string `json:"company_sigId"`
	SignatureRequestID string `json:"signature_request_id"`
}

type errorBody struct {
	Message string `json:"message"`
}
