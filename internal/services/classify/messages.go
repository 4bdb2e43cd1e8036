package classify

var successMessages = map[string]string{
	"login":                   "Successfully logged in!",
	"register":                "Registration successful! Please check your email for activation instructions.",
	"profile_update":          "Profile updated successfully!",
	"password_change":         "Password changed successfully!",
	"account_activation":      "Account activated successfully! You can now log in.",
	"password_reset_request":  "Password reset instructions sent to your email. Please check your inbox.",
	"password_reset_complete": "Password reset successfully! You can now log in with your new password.",
	"logout":                  "Successfully logged out!",
}

var warningMessages = map[string]string{
	"session_expiring": "Your session will expire soon. Please save your work.",
	"unsaved_changes":  "You have unsaved changes. Are you sure you want to leave?",
	"weak_password":    "Your password is weak. Consider using a stronger password.",
	"duplicate_email":  "This email is already registered. Consider using a different email or logging in.",
}

// SuccessMessage returns the user-facing confirmation for a completed
// action.
func SuccessMessage(action string) string {
	if msg, ok := successMessages[action]; ok {
		return msg
	}
	return "Operation completed successfully!"
}

// WarningMessage returns the user-facing caution text for a scenario.
func WarningMessage(scenario string) string {
	if msg, ok := warningMessages[scenario]; ok {
		return msg
	}
	return "Please review your input."
}
