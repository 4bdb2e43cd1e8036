// Package stub is an in-process stand-in for the account backend. It
// implements just enough of the real API's contract - status codes, error
// prose, token issuing - for the client stack to be developed and tested
// against without a running backend.
package stub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type User struct {
	Username        string
	Email           string
	Password        string
	FirstName       string
	LastName        string
	Activated       bool
	ActivationToken string
	ResetToken      string
}

type Server struct {
	mu        sync.Mutex
	users     map[string]*User
	secret    []byte
	accessTTL time.Duration
	log       *zap.Logger
	now       func() time.Time
	router    chi.Router
}

func NewServer(secret string, accessTTL time.Duration, log *zap.Logger) *Server {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		users:     make(map[string]*User),
		secret:    []byte(secret),
		accessTTL: accessTTL,
		log:       log,
		now:       time.Now,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/api/authenticate", s.authenticate)
	r.Post("/api/register", s.register)
	r.Post("/api/activate", s.activate)
	r.Post("/api/account/reset-password/init", s.resetInit)
	r.Post("/api/account/reset-password/finish", s.resetFinish)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/api/account", s.account)
		r.Post("/api/account", s.updateProfile)
		r.Post("/api/account/change-password", s.changePassword)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Seed installs a user directly, bypassing registration. Tests use it to
// start from a known state.
func (s *Server) Seed(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := u
	s.users[u.Username] = &copied
}

// ActivationToken reports the pending activation token for a username, for
// tests that need to complete the registration flow.
func (s *Server) ActivationToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[username]; ok {
		return u.ActivationToken
	}
	return ""
}

// ResetToken reports the pending password-reset token for an email.
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u.ResetToken
		}
	}
	return ""
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[req.Username]
	if !ok || u.Password != req.Password {
		writeText(w, http.StatusForbidden, "Invalid credentials")
		return
	}
	if !u.Activated {
		writeText(w, http.StatusForbidden, "Account is not activated")
		return
	}

	token, err := s.issueToken(u.Username)
	if err != nil {
		writeText(w, http.StatusInternalServerError, "token signing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id_token": token})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[req.Username]; ok {
		writeText(w, http.StatusBadRequest, "Username already exists")
		return
	}
	for _, u := range s.users {
		if u.Email == req.Email {
			writeText(w, http.StatusBadRequest, "Email already exists")
			return
		}
	}

	s.users[req.Username] = &User{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ActivationToken: "activation-" + req.Username,
	}

	writeText(w, http.StatusOK, "Registration successful. Please check your email for activation instructions.")
}

func (s *Server) activate(w http.ResponseWriter, r *http.Request) {
	token := readText(r)
	if token == "" {
		writeText(w, http.StatusBadRequest, "Activation token is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ActivationToken == token {
			if u.Activated {
				writeText(w, http.StatusBadRequest, "Account is already activated")
				return
			}
			u.Activated = true
			writeText(w, http.StatusOK, "Account activated successfully")
			return
		}
	}

	writeText(w, http.StatusBadRequest, "Invalid activation token")
}

func (s *Server) resetInit(w http.ResponseWriter, r *http.Request) {
	email := readText(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			u.ResetToken = "reset-" + u.Username
			writeText(w, http.StatusOK, "Password reset instructions sent to your email")
			return
		}
	}

	writeText(w, http.StatusBadRequest, "Email not found")
}

func (s *Server) resetFinish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResetToken  string `json:"resetToken"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetToken != "" && u.ResetToken == req.ResetToken {
			u.Password = req.NewPassword
			u.ResetToken = ""
			writeText(w, http.StatusOK, "Password reset successfully")
			return
		}
	}

	writeText(w, http.StatusBadRequest, "Invalid reset token")
}

func (s *Server) account(w http.ResponseWriter, r *http.Request) {
	u, ok := s.userFromRequest(r)
	if !ok {
		writeText(w, http.StatusUnauthorized, "unknown account")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"login":       u.Username,
		"authorities": []string{"ROLE_USER"},
		"firstName":   u.FirstName,
		"lastName":    u.LastName,
		"email":       u.Email,
	})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := s.userFromRequest(r)
	if !ok {
		writeText(w, http.StatusUnauthorized, "unknown account")
		return
	}

	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.users {
		if other.Username != u.Username && other.Email == req.Email {
			writeText(w, http.StatusBadRequest, "Email already exists")
			return
		}
	}

	stored := s.users[u.Username]
	stored.FirstName = req.FirstName
	stored.LastName = req.LastName
	stored.Email = req.Email

	writeText(w, http.StatusOK, "Profile updated successfully")
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := s.userFromRequest(r)
	if !ok {
		writeText(w, http.StatusUnauthorized, "unknown account")
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.users[u.Username]
	if stored.Password != req.CurrentPassword {
		writeText(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if req.NewPassword == req.CurrentPassword {
		writeText(w, http.StatusBadRequest, "Cannot reuse the same password")
		return
	}

	stored.Password = req.NewPassword
	writeText(w, http.StatusOK, "Password changed successfully")
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := extractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeText(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			writeText(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) userFromRequest(r *http.Request) (User, bool) {
	raw, ok := extractBearerToken(r.Header.Get("Authorization"))
	if !ok {
		return User{}, false
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})); err != nil {
		return User{}, false
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return User{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[sub]
	if !ok {
		return User{}, false
	}
	return *u, true
}

func (s *Server) issueToken(username string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(s.accessTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("stub_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func readText(r *http.Request) string {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
