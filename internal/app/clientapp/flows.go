package clientapp

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/enkitstudio/accountkit/internal/domain/account"
	"github.com/enkitstudio/accountkit/internal/services/classify"
	sessionsvc "github.com/enkitstudio/accountkit/internal/services/session"
)

// Every flow returns nil on success. On failure it returns the classified
// record for inline display and has already queued the matching global
// notification; neither effect replaces the other.

// Login authenticates, persists the credential, loads the profile, and
// seeds the session. The credential is written before the session so an
// authenticated session always has a token behind it.
func (a *App) Login(ctx context.Context, username, password string) *classify.ErrorInfo {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return a.rejectInput("Please fill in all required fields correctly.")
	}

	token, err := a.client.Authenticate(ctx, username, password)
	if err != nil {
		return a.report(classify.Auth(err))
	}

	if err := a.creds.SetToken(ctx, token); err != nil {
		a.log.Error("persist credential", zap.Error(err))
		return a.report(classify.ErrorInfo{
			Message:  "An unexpected error occurred. Please try again.",
			Severity: classify.SeverityError,
			Code:     "CREDENTIAL_STORE_FAILED",
			Details:  err.Error(),
		})
	}

	identity, err := a.client.Account(ctx)
	if err != nil {
		// Token stored, session absent: the legal transient state. The
		// next Restore or Login attempt resolves it.
		return a.report(classify.Auth(err))
	}

	a.sessions.SetAuthenticated(identity)
	a.notifier.ShowSuccess(classify.SuccessMessage("login"))
	return nil
}

// Logout clears the session first, then the credential, and never surfaces
// a failure to the user.
func (a *App) Logout(ctx context.Context) {
	a.sessions.Clear()
	if err := a.creds.Clear(ctx); err != nil {
		a.log.Warn("clear credential on logout", zap.Error(err))
	}
	a.notifier.ShowSuccess(classify.SuccessMessage("logout"))
}

func (a *App) Register(ctx context.Context, data account.RegistrationData) *classify.ErrorInfo {
	if strings.TrimSpace(data.Username) == "" || strings.TrimSpace(data.Email) == "" || data.Password == "" {
		return a.rejectInput("Please fill in all required fields correctly.")
	}

	if _, err := a.client.Register(ctx, data); err != nil {
		return a.report(classify.Registration(err))
	}

	a.notifier.ShowSuccess(classify.SuccessMessage("register"))
	return nil
}

func (a *App) Activate(ctx context.Context, activationToken string) *classify.ErrorInfo {
	if strings.TrimSpace(activationToken) == "" {
		return a.rejectInput("Activation token is required.")
	}

	if _, err := a.client.Activate(ctx, activationToken); err != nil {
		return a.report(classify.Activation(err))
	}

	a.notifier.ShowSuccess(classify.SuccessMessage("account_activation"))
	return nil
}

func (a *App) RequestPasswordReset(ctx context.Context, email string) *classify.ErrorInfo {
	if strings.TrimSpace(email) == "" {
		return a.rejectInput("Email is required.")
	}

	if _, err := a.client.RequestPasswordReset(ctx, email); err != nil {
		return a.report(classify.PasswordReset(err))
	}

	a.notifier.ShowSuccess(classify.SuccessMessage("password_reset_request"))
	return nil
}

func (a *App) FinishPasswordReset(ctx context.Context, resetToken, newPassword string) *classify.ErrorInfo {
	if strings.TrimSpace(resetToken) == "" || newPassword == "" {
		return a.rejectInput("Please fill in all required fields correctly.")
	}

	if _, err := a.client.FinishPasswordReset(ctx, resetToken, newPassword); err != nil {
		return a.report(classify.PasswordReset(err))
	}

	a.notifier.ShowSuccess(classify.SuccessMessage("password_reset_complete"))
	return nil
}

// Profile fetches the current identity from the backend.
func (a *App) Profile(ctx context.Context) (account.Identity, *classify.ErrorInfo) {
	identity, err := a.client.Account(ctx)
	if err != nil {
		return account.Identity{}, a.report(classify.Profile(err))
	}
	return identity, nil
}

// UpdateProfile saves the editable fields and refreshes the session
// identity so subscribers see the new values.
func (a *App) UpdateProfile(ctx context.Context, update account.ProfileUpdate) *classify.ErrorInfo {
	if strings.TrimSpace(update.FirstName) == "" || strings.TrimSpace(update.LastName) == "" || strings.TrimSpace(update.Email) == "" {
		return a.rejectInput("Please fill in all required fields correctly.")
	}

	if _, err := a.client.UpdateProfile(ctx, update); err != nil {
		return a.report(classify.Profile(err))
	}

	if identity, err := a.client.Account(ctx); err == nil {
		a.sessions.SetAuthenticated(identity)
	} else {
		a.log.Warn("refresh identity after profile update", zap.Error(err))
	}

	a.notifier.ShowSuccess(classify.SuccessMessage("profile_update"))
	return nil
}

func (a *App) ChangePassword(ctx context.Context, currentPassword, newPassword string) *classify.ErrorInfo {
	if currentPassword == "" || newPassword == "" {
		return a.rejectInput("Please fill in all password fields correctly.")
	}

	if _, err := a.client.ChangePassword(ctx, currentPassword, newPassword); err != nil {
		return a.report(classify.Password(err))
	}

	a.notifier.ShowSuccess(classify.SuccessMessage("password_change"))
	return nil
}

// Restore rebuilds the session from a persisted credential on startup.
// Reports whether an identity was restored. An expired or unreadable token
// is dropped quietly; the user just sees the login view.
func (a *App) Restore(ctx context.Context) bool {
	token, err := a.creds.Token(ctx)
	if err != nil {
		a.log.Warn("read persisted credential", zap.Error(err))
		return false
	}
	if token == "" {
		return false
	}

	expiry, err := sessionsvc.TokenExpiry(token)
	if err != nil {
		a.log.Info("drop unreadable persisted token", zap.Error(err))
		if clearErr := a.creds.Clear(ctx); clearErr != nil {
			a.log.Warn("clear unreadable token", zap.Error(clearErr))
		}
		return false
	}
	if !expiry.After(time.Now()) {
		a.log.Info("drop expired persisted token", zap.Time("expiry", expiry))
		if clearErr := a.creds.Clear(ctx); clearErr != nil {
			a.log.Warn("clear expired token", zap.Error(clearErr))
		}
		return false
	}

	identity, err := a.client.Account(ctx)
	if err != nil {
		a.log.Info("session restore rejected by backend", zap.Error(err))
		return false
	}

	a.sessions.SetAuthenticated(identity)
	return true
}

// report queues the global notification for a classified failure and hands
// the record back for inline display.
func (a *App) report(info classify.ErrorInfo) *classify.ErrorInfo {
	if info.Code == "NETWORK_ERROR" {
		a.notifier.ShowNetworkError()
	} else {
		a.notifier.ShowFromErrorInfo(info, 0)
	}
	return &info
}

// rejectInput short-circuits a flow before any request is sent.
func (a *App) rejectInput(message string) *classify.ErrorInfo {
	a.notifier.ShowValidationError(message)
	return &classify.ErrorInfo{
		Message:  message,
		Severity: classify.SeverityError,
		Code:     "VALIDATION_ERROR",
	}
}
