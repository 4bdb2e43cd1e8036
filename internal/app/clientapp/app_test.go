package clientapp_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/enkitstudio/accountkit/internal/app/clientapp"
	"github.com/enkitstudio/accountkit/internal/config"
	"github.com/enkitstudio/accountkit/internal/domain/account"
	"github.com/enkitstudio/accountkit/internal/services/notify"
	"github.com/enkitstudio/accountkit/internal/stub"
)

const stubSecret = "stub-secret"

func newAppForTest(t *testing.T, mutate func(*config.Config)) (*clientapp.App, *stub.Server, func()) {
	t.Helper()

	backend := stub.NewServer(stubSecret, 15*time.Minute, zap.NewNop())
	backend.Seed(stub.User{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "correct-horse",
		FirstName: "Alice",
		LastName:  "Cooper",
		Activated: true,
	})

	ts := httptest.NewServer(backend.Handler())

	cfg := config.Default()
	cfg.Server.BaseURL = ts.URL
	cfg.Credentials.Backend = config.CredentialBackendMemory
	if mutate != nil {
		mutate(&cfg)
	}

	app, err := clientapp.New(cfg, zap.NewNop())
	if err != nil {
		ts.Close()
		t.Fatalf("create app: %v", err)
	}

	cleanup := func() {
		_ = app.Close()
		ts.Close()
	}

	return app, backend, cleanup
}

func TestLoginSuccess(t *testing.T) {
	app, _, cleanup := newAppForTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	if info := app.Login(ctx, "alice", "correct-horse"); info != nil {
		t.Fatalf("login failed: %+v", info)
	}

	identity := app.Sessions().Current()
	if identity == nil || identity.Login != "alice" {
		t.Fatalf("session should hold alice, got %+v", identity)
	}

	token, err := app.Credentials().Token(ctx)
	if err != nil || token == "" {
		t.Fatalf("credential should be stored, got %q err=%v", token, err)
	}

	if decision := app.Guard().Evaluate(); !decision.Allowed {
		t.Fatalf("guard should permit after login")
	}

	notifications := app.Notifier().Notifications()
	if len(notifications) != 1 || notifications[0].Severity != notify.SeveritySuccess {
		t.Fatalf("expected one success notification, got %+v", notifications)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	app, _, cleanup := newAppForTest(t, nil)
	defer cleanup()

	info := app.Login(context.Background(), "alice", "wrong")
	if info == nil {
		t.Fatalf("expected login failure")
	}
	if info.Code != "AUTH_FAILED" {
		t.Fatalf("got code %s want AUTH_FAILED", info.Code)
	}
	if info.Message != "Invalid username or password" {
		t.Fatalf("unexpected inline message: %q", info.Message)
	}
	if app.Sessions().Current() != nil {
		t.Fatalf("session must stay absent after failed login")
	}

	notifications := app.Notifier().Notifications()
	if len(notifications) != 1 || notifications[0].Severity != notify.SeverityError {
		t.Fatalf("expected one error notification, got %+v", notifications)
	}
}

func TestLoginRejectsEmptyFields(t *testing.T) {
	app, _, cleanup := newAppForTest(t, nil)
	defer cleanup()

	info := app.Login(context.Background(), "  ", "")
	if info == nil || info.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected inline validation error, got %+v", info)
	}
}

func TestUnauthorizedResponseTearsDownSession(t *testing.T) {
	app, _, cleanup := newAppForTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	if info := app.Login(ctx, "alice", "correct-horse"); info != nil {
		t.Fatalf("login failed: %+v", info)
	}

	// Simulate credential invalidation on the backend side.
	if err := app.Credentials().SetToken(ctx, "garbage-token"); err != nil {
		t.Fatalf("corrupt token: %v", err)
	}

	_, info := app.Profile(ctx)
	if info == nil {
		t.Fatalf("expected profile fetch to fail")
	}
	if info.Code != "UNAUTHORIZED" {
		t.Fatalf("got code %s want UNAUTHORIZED", info.Code)
	}

	// The view never called logout; the transport cleared the state.
	if app.Sessions().Current() != nil {
		t.Fatalf("session should be absent after a 401")
	}
	decision := app.Guard().Evaluate()
	if decision.Allowed || decision.RedirectTo != "/login" {
		t.Fatalf("guard should redirect to login, got %+v", decision)
	}
}

func TestLogout(t *testing.T) {
	app, _, cleanup := newAppForTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	if info := app.Login(ctx, "alice", "correct-horse"); info != nil {
		t.Fatalf("login failed: %+v", info)
	}

	app.Logout(ctx)

	if app.Sessions().Current() != nil {
		t.Fatalf("session should be absent after logout")
	}
	token, err := app.Credentials().Token(ctx)
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if token != "" {
		t.Fatalf("credential should be cleared on logout")
	}
}

func TestRegistrationActivationLogin(t *testing.T) {
	app, backend, cleanup := newAppForTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	data := account.RegistrationData{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "Str0ng-password!",
	}

	if info := app.Register(ctx, data); info != nil {
		t.Fatalf("register failed: %+v", info)
	}

	// Login before activation is refused.
	if info := app.Login(ctx, "bob", "Str0ng-password!"); info == nil || info.Code != "AUTH_FAILED" {
		t.Fatalf("unactivated login should fail with AUTH_FAILED, got %+v", info)
	}

	token := backend.ActivationToken("bob")
	if token == "" {
		t.Fatalf("registration should leave a pending activation token")
	}
	if info := app.Activate(ctx, token); info != nil {
		t.Fatalf("activate failed: %+v", info)
	}

	// Activating twice reports info severity, not an error.
	info := app.Activate(ctx, token)
	if info == nil || info.Code != "ALREADY_ACTIVATED" {
		t.Fatalf("second activation should classify ALREADY_ACTIVATED, got %+v", info)
	}

	if info := app.Login(ctx, "bob", "Str0ng-password!"); info != nil {
		t.Fatalf("login after activation failed: %+v", info)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app, _, cleanup := newAppForTest(t, nil)
	defer cleanup()

	info := app.Register(context.Background(), account.RegistrationData{
		Username: "alice",
		Email:    "new@example.com",
		Password: "Str0ng-password!",
	})
	if info == nil || info.Code != "USERNAME_EXISTS" {
		t.Fatalf("expected USERNAME_EXISTS, got %+v", info)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	app, backend, cleanup := newAppForTest(t, nil)
	defer cleanup()

	ctx := context.Background()

	if info := app.RequestPasswordReset(ctx, "nobody@example.com"); info == nil || info.Code != "EMAIL_NOT_FOUND" {
		t.Fatalf("unknown email should classify EMAIL_NOT_FOUND, got %+v", info)
	}

	if info := app.RequestPasswordReset(ctx, "alice@example.com"); info != nil {
		t.Fatalf("reset request failed: %+v", info)
	}

	if info := app.FinishPasswordReset(ctx, "bogus-token", "N3w-password!"); info == nil || info.Code != "INVALID_RESET_TOKEN" {
		t.Fatalf("bogus token should classify INVALID_RESET_TOKEN, got %+v", info)
	}

	token := backend.ResetToken("alice@example.com")
	if info := app.FinishPasswordReset(ctx, token, "N3w-password!"); info != nil {
		t.Fatalf("reset finish failed: %+v", info)
	}

	if info := app.Login(ctx, "alice", "N3w-password!"); info != nil {
		t.Fatalf("login with new password failed: %+v", info)
	}
}

func TestChangePassword(t *testing.T) {
	app, _, cleanup := newAppForTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	if info := app.Login(ctx, "alice", "correct-horse"); info != nil {
		t.Fatalf("login failed: %+v", info)
	}

	if info := app.ChangePassword(ctx, "wrong-current", "N3w-password!"); info == nil || info.Code != "WRONG_CURRENT_PASSWORD" {
		t.Fatalf("expected WRONG_CURRENT_PASSWORD, got %+v", info)
	}

	if info := app.ChangePassword(ctx, "correct-horse", "correct-horse"); info == nil || info.Code != "SAME_PASSWORD" {
		t.Fatalf("expected SAME_PASSWORD, got %+v", info)
	}

	if info := app.ChangePassword(ctx, "correct-horse", "N3w-password!"); info != nil {
		t.Fatalf("change password failed: %+v", info)
	}
}

func TestUpdateProfileRefreshesSession(t *testing.T) {
	app, backend, cleanup := newAppForTest(t, nil)
	defer cleanup()

	backend.Seed(stub.User{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "pw",
		Activated: true,
	})

	ctx := context.Background()
	if info := app.Login(ctx, "alice", "correct-horse"); info != nil {
		t.Fatalf("login failed: %+v", info)
	}

	if info := app.UpdateProfile(ctx, account.ProfileUpdate{
		FirstName: "Alice",
		LastName:  "Cooper",
		Email:     "carol@example.com",
	}); info == nil || info.Code != "EMAIL_IN_USE" {
		t.Fatalf("duplicate email should classify EMAIL_IN_USE, got %+v", info)
	}

	if info := app.UpdateProfile(ctx, account.ProfileUpdate{
		FirstName: "Alicia",
		LastName:  "Cooper",
		Email:     "alicia@example.com",
	}); info != nil {
		t.Fatalf("profile update failed: %+v", info)
	}

	identity := app.Sessions().Current()
	if identity == nil || identity.FirstName != "Alicia" || identity.Email != "alicia@example.com" {
		t.Fatalf("session should reflect the updated profile, got %+v", identity)
	}
}

func TestRestoreFromPersistedToken(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token")
	useFileStore := func(cfg *config.Config) {
		cfg.Credentials.Backend = config.CredentialBackendFile
		cfg.Credentials.File.Path = tokenPath
	}

	first, backend, cleanup := newAppForTest(t, useFileStore)
	ctx := context.Background()
	if info := first.Login(ctx, "alice", "correct-horse"); info != nil {
		t.Fatalf("login failed: %+v", info)
	}
	_ = first.Close()

	// A fresh process over the same token file resumes the session.
	ts := httptest.NewServer(backend.Handler())
	defer ts.Close()
	defer cleanup()

	cfg := config.Default()
	cfg.Server.BaseURL = ts.URL
	useFileStore(&cfg)

	second, err := clientapp.New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create second app: %v", err)
	}
	defer second.Close()

	if second.Sessions().Current() != nil {
		t.Fatalf("session must start absent before restore")
	}
	if !second.Restore(ctx) {
		t.Fatalf("restore should succeed with a valid persisted token")
	}
	identity := second.Sessions().Current()
	if identity == nil || identity.Login != "alice" {
		t.Fatalf("restored session should hold alice, got %+v", identity)
	}
}

func TestRestoreDropsExpiredToken(t *testing.T) {
	app, _, cleanup := newAppForTest(t, nil)
	defer cleanup()

	ctx := context.Background()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	raw, err := expired.SignedString([]byte(stubSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	if err := app.Credentials().SetToken(ctx, raw); err != nil {
		t.Fatalf("seed expired token: %v", err)
	}

	if app.Restore(ctx) {
		t.Fatalf("restore must refuse an expired token")
	}
	token, err := app.Credentials().Token(ctx)
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if token != "" {
		t.Fatalf("expired token should be cleared, got %q", token)
	}
}
