package classify

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// Auth classifies login failures. The backend answers a wrong password with
// 403, not 401; 401 during login means the previous session lapsed.
func Auth(err error) ErrorInfo {
	raw, ok := asAPIError(err)
	if !ok {
		return unexpected()
	}
	if raw.Status == 0 {
		return networkError()
	}

	switch raw.Status {
	case http.StatusForbidden:
		return ErrorInfo{
			Message:  "Invalid username or password",
			Severity: SeverityError,
			Code:     "AUTH_FAILED",
		}
	case http.StatusUnauthorized:
		return ErrorInfo{
			Message:  "Your session has expired. Please log in again.",
			Severity: SeverityError,
			Code:     "SESSION_EXPIRED",
		}
	}

	return HTTP(err)
}

// Registration classifies sign-up failures. Structured field-validation
// payloads win over keyword matching.
func Registration(err error) ErrorInfo {
	raw, ok := asAPIError(err)
	if !ok {
		return unexpected()
	}
	if raw.Status == 0 {
		return networkError()
	}

	if info, ok := fieldValidation(raw.Body); ok {
		return info
	}

	body := lowerBody(raw)
	switch {
	case containsAll(body, "username", "exist"):
		return ErrorInfo{
			Message:  "Username is already taken.",
			Severity: SeverityError,
			Code:     "USERNAME_EXISTS",
		}
	case containsAll(body, "email", "exist"):
		return ErrorInfo{
			Message:  "Email is already registered.",
			Severity: SeverityError,
			Code:     "EMAIL_EXISTS",
		}
	case containsAll(body, "password", "weak"):
		return ErrorInfo{
			Message:  "Password is too weak. Please choose a stronger password.",
			Severity: SeverityError,
			Code:     "WEAK_PASSWORD",
		}
	}

	return HTTP(err)
}

// Profile classifies profile-update failures.
func Profile(err error) ErrorInfo {
	raw, ok := asAPIError(err)
	if !ok {
		return unexpected()
	}
	if raw.Status == 0 {
		return networkError()
	}

	body := lowerBody(raw)
	switch {
	case containsAll(body, "email", "exist"):
		return ErrorInfo{
			Message:  "This email address is already in use by another account.",
			Severity: SeverityError,
			Code:     "EMAIL_IN_USE",
		}
	case strings.Contains(body, "validation"):
		return ErrorInfo{
			Message:  "Please check your input and try again.",
			Severity: SeverityError,
			Code:     "VALIDATION_ERROR",
		}
	}

	return HTTP(err)
}

// Password classifies password-change failures.
func Password(err error) ErrorInfo {
	raw, ok := asAPIError(err)
	if !ok {
		return unexpected()
	}
	if raw.Status == 0 {
		return networkError()
	}

	body := lowerBody(raw)
	switch {
	case containsAll(body, "current password", "incorrect"):
		return ErrorInfo{
			Message:  "Current password is incorrect. Please check your password and try again.",
			Severity: SeverityError,
			Code:     "WRONG_CURRENT_PASSWORD",
		}
	case containsAll(body, "password", "weak"):
		return ErrorInfo{
			Message:  "New password is too weak. Please choose a stronger password.",
			Severity: SeverityError,
			Code:     "WEAK_NEW_PASSWORD",
		}
	case strings.Contains(body, "same password"):
		return ErrorInfo{
			Message:  "New password must be different from your current password.",
			Severity: SeverityError,
			Code:     "SAME_PASSWORD",
		}
	}

	return HTTP(err)
}

// Activation classifies account-activation failures. An already-activated
// account is informational, not a failure the user must fix.
func Activation(err error) ErrorInfo {
	raw, ok := asAPIError(err)
	if !ok {
		return unexpected()
	}
	if raw.Status == 0 {
		return networkError()
	}

	body := lowerBody(raw)
	switch {
	case containsAll(body, "invalid", "token"):
		return ErrorInfo{
			Message:  "Invalid activation token. Please check your email for the correct link or request a new one.",
			Severity: SeverityError,
			Code:     "INVALID_TOKEN",
		}
	case containsAll(body, "expired", "token"):
		return ErrorInfo{
			Message:  "Activation token has expired. Please request a new activation link.",
			Severity: SeverityError,
			Code:     "EXPIRED_TOKEN",
		}
	case strings.Contains(body, "already activated"):
		return ErrorInfo{
			Message:  "This account is already activated. You can now log in.",
			Severity: SeverityInfo,
			Code:     "ALREADY_ACTIVATED",
		}
	}

	return HTTP(err)
}

// PasswordReset classifies both reset-request and reset-finish failures.
func PasswordReset(err error) ErrorInfo {
	raw, ok := asAPIError(err)
	if !ok {
		return unexpected()
	}
	if raw.Status == 0 {
		return networkError()
	}

	body := lowerBody(raw)
	switch {
	case strings.Contains(body, "email not found"):
		return ErrorInfo{
			Message:  "No account found with this email address. Please check your email or register a new account.",
			Severity: SeverityError,
			Code:     "EMAIL_NOT_FOUND",
		}
	case containsAll(body, "invalid", "token"):
		return ErrorInfo{
			Message:  "Invalid reset token. Please check your email for the correct link or request a new one.",
			Severity: SeverityError,
			Code:     "INVALID_RESET_TOKEN",
		}
	case containsAll(body, "expired", "token"):
		return ErrorInfo{
			Message:  "Reset token has expired. Please request a new password reset.",
			Severity: SeverityError,
			Code:     "EXPIRED_RESET_TOKEN",
		}
	}

	return HTTP(err)
}

// fieldValidation flattens a structured {"errors": {field: messages}}
// payload into one joined message. Field order is sorted so the joined
// message is deterministic.
func fieldValidation(body []byte) (ErrorInfo, bool) {
	var payload struct {
		Errors map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Errors) == 0 {
		return ErrorInfo{}, false
	}

	fields := make([]string, 0, len(payload.Errors))
	for field := range payload.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var messages []string
	for _, field := range fields {
		switch value := payload.Errors[field].(type) {
		case []any:
			for _, item := range value {
				if s, ok := item.(string); ok {
					messages = append(messages, s)
				}
			}
		case string:
			messages = append(messages, value)
		}
	}

	message := "Some fields are invalid. Please check your input."
	if len(messages) > 0 {
		message = strings.Join(messages, " ")
	}

	details, err := json.Marshal(payload.Errors)
	if err != nil {
		details = body
	}

	return ErrorInfo{
		Message:  message,
		Severity: SeverityError,
		Code:     "VALIDATION_ERROR",
		Details:  string(details),
	}, true
}
