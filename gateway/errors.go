package gateway

import (
	"errors"
	"fmt"
)

// TimeoutMessage is reported when a call exceeds its budget.
const TimeoutMessage = "Unable to onboard at this time, please try again later!"

// RemoteError is a transport, timeout or non-2xx failure of a backend call.
type RemoteError struct {
	Operation  string
	StatusCode int // zero when no response was received
	Message    string
	Timeout    bool
	Underlying error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("gateway %s: timed out: %s", e.Operation, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("gateway %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway %s: %s", e.Operation, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Underlying
}

// IsTimeout reports whether err is a RemoteError caused by a timeout.
func IsTimeout(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Timeout
}
