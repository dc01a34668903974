package flow

import (
	"regexp"
	"strings"
	"time"

	"temporal-worker-onboarding/shared"
)

// MinPasswordLength is the shortest accepted account password.
const MinPasswordLength = 8

var (
	ssnPattern   = regexp.MustCompile(`^[0-9]{3}-?[0-9]{2}-?[0-9]{4}$`)
	emailPattern = regexp.MustCompile(`^[^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*@([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`)
)

const formDateLayout = "2006-01-02"

func invalid(field, message string) error {
	return &shared.StepError{Kind: shared.ErrorKindValidation, Field: field, Message: message}
}

// NormalizeSSN joins the entered fragments and returns the nine digits.
func NormalizeSSN(parts ...string) (string, error) {
	joined := strings.Join(parts, "")
	if !ssnPattern.MatchString(joined) {
		return "", invalid("ssn", "SSN format is invalid, please try again")
	}
	return strings.ReplaceAll(joined, "-", ""), nil
}

// ValidateProfile checks a submitted profile form and builds the identity
// the profile step owns. The SSN was normalized and sealed at intake, so
// only its reference is checked here.
func ValidateProfile(form shared.ProfileForm) (shared.Identity, error) {
	required := []struct {
		field string
		value string
	}{
		{"firstName", form.FirstName},
		{"lastName", form.LastName},
		{"address", form.Address},
		{"city", form.City},
		{"state", form.State},
		{"zip", form.Zip},
		{"dateOfBirth", form.DateOfBirth},
		{"phone", form.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return shared.Identity{}, invalid(r.field, "Please fill in all required fields")
		}
	}

	dob, err := time.Parse(formDateLayout, strings.TrimSpace(form.DateOfBirth))
	if err != nil {
		return shared.Identity{}, invalid("dateOfBirth", "Date of birth is invalid")
	}

	if form.SSNRef == "" {
		return shared.Identity{}, invalid("ssn", "Please fill in all required fields")
	}

	mi := strings.TrimSpace(form.MiddleInitial)
	if len([]rune(mi)) > 1 {
		return shared.Identity{}, invalid("middleInitial", "Middle initial must be a single character")
	}
	mi = strings.ToUpper(mi)

	return shared.Identity{
		FirstName:     strings.TrimSpace(form.FirstName),
		LastName:      strings.TrimSpace(form.LastName),
		MiddleInitial: mi,
		Address:       strings.TrimSpace(form.Address),
		City:          strings.TrimSpace(form.City),
		State:         strings.TrimSpace(form.State),
		Zip:           strings.TrimSpace(form.Zip),
		Phone:         strings.TrimSpace(form.Phone),
		SSNRef:        form.SSNRef,
		DateOfBirth:   dob,
	}, nil
}

// ValidatePassword checks the password pair before it is sealed.
func ValidatePassword(password, confirm string) error {
	if password == "" || confirm == "" {
		return invalid("", "Please fill in all required fields")
	}
	if password != confirm {
		return invalid("confirmPassword", "Passwords do not match")
	}
	if len(password) < MinPasswordLength {
		return invalid("password", "Passwords must be at least 8 characters long")
	}
	return nil
}

// ValidateAccount checks a submitted account form and returns the email.
// The password pair was checked by ValidatePassword before sealing.
func ValidateAccount(form shared.AccountForm) (string, error) {
	email := strings.TrimSpace(form.Email)
	if email == "" || form.PasswordRef == "" {
		return "", invalid("", "Please fill in all required fields")
	}
	if !emailPattern.MatchString(strings.ToLower(email)) {
		return "", invalid("email", "Please enter a valid email address")
	}
	return email, nil
}
