package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/enkitstudio/accountkit/internal/credstore"
	"github.com/enkitstudio/accountkit/internal/domain/account"
	sessionsvc "github.com/enkitstudio/accountkit/internal/services/session"
	"github.com/enkitstudio/accountkit/internal/transport/rest"
)

func TestAuthTransportAttachesBearer(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	creds := credstore.NewMemoryStore()
	sessions := sessionsvc.NewService()
	ctx := context.Background()
	if err := creds.SetToken(ctx, "jwt-abc"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	client := &http.Client{Transport: rest.NewAuthTransport(nil, creds, sessions, nil)}
	resp, err := client.Get(ts.URL + "/api/account")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer jwt-abc" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
}

func TestAuthTransportSendsUnmodifiedWithoutToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := &http.Client{
		Transport: rest.NewAuthTransport(nil, credstore.NewMemoryStore(), sessionsvc.NewService(), nil),
	}
	resp, err := client.Get(ts.URL + "/api/account")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "" {
		t.Fatalf("request without a stored token must carry no bearer, got %q", gotAuth)
	}
}

func TestUnauthorizedResponseClearsSessionAndCredential(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	ctx := context.Background()
	creds := credstore.NewMemoryStore()
	sessions := sessionsvc.NewService()
	if err := creds.SetToken(ctx, "stale-jwt"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	sessions.SetAuthenticated(account.Identity{Login: "alice"})

	client := &http.Client{Transport: rest.NewAuthTransport(nil, creds, sessions, nil)}
	resp, err := client.Get(ts.URL + "/api/account")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	// The failure still reaches the caller.
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("401 must propagate, got %d", resp.StatusCode)
	}
	if sessions.Current() != nil {
		t.Fatalf("session should be cleared after 401")
	}
	token, err := creds.Token(ctx)
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if token != "" {
		t.Fatalf("credential should be cleared after 401, got %q", token)
	}
}

func TestNonUnauthorizedFailureKeepsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx := context.Background()
	creds := credstore.NewMemoryStore()
	sessions := sessionsvc.NewService()
	if err := creds.SetToken(ctx, "jwt-abc"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	sessions.SetAuthenticated(account.Identity{Login: "alice"})

	client := &http.Client{Transport: rest.NewAuthTransport(nil, creds, sessions, nil)}
	resp, err := client.Get(ts.URL + "/api/account")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if sessions.Current() == nil {
		t.Fatalf("a 500 must not clear the session")
	}
}
