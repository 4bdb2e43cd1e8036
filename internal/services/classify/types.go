// Package classify turns raw backend failures into stable, user-facing
// ErrorInfo records. Every input maps to a renderable record; no function
// here returns an error or panics.
package classify

import (
	"errors"
	"fmt"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ErrorInfo is the classified representation of a failure. Values are
// immutable once built; callers render Message and branch on Code.
type ErrorInfo struct {
	Message  string
	Severity Severity
	Code     string
	Details  string
}

// APIError carries a raw HTTP failure from the transport layer. Status 0
// means no response was received at all.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("no response from server: %s", e.Body)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Body)
}

func asAPIError(err error) (*APIError, bool) {
	var raw *APIError
	if errors.As(err, &raw) && raw != nil {
		return raw, true
	}
	return nil, false
}
