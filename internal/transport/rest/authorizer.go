package rest

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/enkitstudio/accountkit/internal/credstore"
	sessionsvc "github.com/enkitstudio/accountkit/internal/services/session"
)

// AuthTransport attaches the stored bearer token to every outgoing request
// and reacts to a 401 by clearing session and credential, so the next guard
// evaluation sends the user back to login. The 401 response itself still
// reaches the caller; clearing state is a side effect, not error handling.
type AuthTransport struct {
	base     http.RoundTripper
	creds    credstore.Storage
	sessions *sessionsvc.Service
	log      *zap.Logger
}

func NewAuthTransport(base http.RoundTripper, creds credstore.Storage, sessions *sessionsvc.Service, log *zap.Logger) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{
		base:     base,
		creds:    creds,
		sessions: sessions,
		log:      log,
	}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.creds.Token(req.Context())
	if err != nil {
		if t.log != nil {
			t.log.Warn("read credential failed, sending unauthorized request", zap.Error(err))
		}
		token = ""
	}

	if token != "" {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.sessions.Clear()
		if err := t.creds.Clear(req.Context()); err != nil && t.log != nil {
			t.log.Warn("clear credential after 401 failed", zap.Error(err))
		}
		if t.log != nil {
			t.log.Info("session cleared after unauthorized response",
				zap.String("path", req.URL.Path),
			)
		}
	}

	return resp, nil
}
