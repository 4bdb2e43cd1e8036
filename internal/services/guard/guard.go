// Package guard gates navigation to views that require an authenticated
// identity.
package guard

import (
	sessionsvc "github.com/enkitstudio/accountkit/internal/services/session"
)

type Decision struct {
	Allowed    bool
	RedirectTo string
}

type Guard struct {
	sessions   *sessionsvc.Service
	loginRoute string
}

func New(sessions *sessionsvc.Service, loginRoute string) *Guard {
	return &Guard{
		sessions:   sessions,
		loginRoute: loginRoute,
	}
}

// Evaluate decides a single navigation attempt from the latest session
// value. The read is one-shot: a later session change never revises an
// already-issued decision.
func (g *Guard) Evaluate() Decision {
	if g.sessions != nil && g.sessions.Current() != nil {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, RedirectTo: g.loginRoute}
}
