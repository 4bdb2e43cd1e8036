package classify

import (
	"encoding/json"
	"net/http"
	"strings"
)

// HTTP is the generic status-code tier. Operation-specific classifiers
// layer on top of it and fall back here when none of their patterns match.
func HTTP(err error) ErrorInfo {
	raw, ok := asAPIError(err)
	if !ok {
		return unexpected()
	}
	if raw.Status == 0 {
		return networkError()
	}

	switch raw.Status {
	case http.StatusBadRequest:
		return echoOrDefault(raw, "BAD_REQUEST", "Invalid request. Please check your input and try again.")
	case http.StatusUnauthorized:
		return ErrorInfo{
			Message:  "Your session has expired. Please log in again.",
			Severity: SeverityError,
			Code:     "UNAUTHORIZED",
		}
	case http.StatusForbidden:
		return ErrorInfo{
			Message:  "You do not have permission to perform this action.",
			Severity: SeverityError,
			Code:     "FORBIDDEN",
		}
	case http.StatusNotFound:
		return ErrorInfo{
			Message:  "The requested resource was not found.",
			Severity: SeverityError,
			Code:     "NOT_FOUND",
		}
	case http.StatusConflict:
		return echoOrDefault(raw, "CONFLICT", "This resource conflicts with an existing one.")
	case http.StatusUnprocessableEntity:
		return echoOrDefault(raw, "VALIDATION_ERROR", "Please check your input and try again.")
	case http.StatusTooManyRequests:
		return ErrorInfo{
			Message:  "Too many requests. Please wait a moment and try again.",
			Severity: SeverityError,
			Code:     "RATE_LIMITED",
		}
	case http.StatusInternalServerError:
		return ErrorInfo{
			Message:  "Server error. Please try again later.",
			Severity: SeverityError,
			Code:     "SERVER_ERROR",
		}
	case http.StatusServiceUnavailable:
		return ErrorInfo{
			Message:  "Service temporarily unavailable. Please try again later.",
			Severity: SeverityError,
			Code:     "SERVICE_UNAVAILABLE",
		}
	default:
		return unexpected()
	}
}

func unexpected() ErrorInfo {
	return ErrorInfo{
		Message:  "An unexpected error occurred. Please try again.",
		Severity: SeverityError,
		Code:     "UNKNOWN_ERROR",
	}
}

func networkError() ErrorInfo {
	return ErrorInfo{
		Message:  "Unable to connect to the server. Please check your internet connection and try again.",
		Severity: SeverityError,
		Code:     "NETWORK_ERROR",
	}
}

func echoOrDefault(raw *APIError, code, fallback string) ErrorInfo {
	message := bodyMessage(raw.Body)
	details := message
	if message == "" {
		message = fallback
	}
	return ErrorInfo{
		Message:  message,
		Severity: SeverityError,
		Code:     code,
		Details:  details,
	}
}

// bodyMessage stringifies an error body defensively. A JSON object with a
// string "message" field is unwrapped; any other JSON object is echoed
// compacted; everything else is used as-is.
func bodyMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Message any `json:"message"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			if msg, ok := payload.Message.(string); ok && msg != "" {
				return msg
			}
		}
	}

	// Unquote a bare JSON string body.
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
	}

	return trimmed
}

func lowerBody(raw *APIError) string {
	return strings.ToLower(bodyMessage(raw.Body))
}

func containsAll(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
