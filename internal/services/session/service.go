package session

import (
	"sync"

	"github.com/enkitstudio/accountkit/internal/domain/account"
)

// Service is the process-wide authenticated-identity state. A nil identity
// means no one is logged in. Subscribers get the current value on subscribe
// and every change after that, in mutation order.
type Service struct {
	mu       sync.Mutex
	current  *account.Identity
	subs     []*subscriber
	nextID   int
	pending  []delivery
	draining bool
}

type subscriber struct {
	id int
	fn func(*account.Identity)
}

// delivery pairs the value captured at mutation time with the subscribers
// registered at that moment, so late subscribers never see an older value.
type delivery struct {
	targets []func(*account.Identity)
	value   *account.Identity
}

func NewService() *Service {
	return &Service{}
}

// SetAuthenticated replaces the current identity. The stored value is a
// copy; later mutation of the argument does not leak into the state.
func (s *Service) SetAuthenticated(identity account.Identity) {
	s.mu.Lock()
	copied := identity
	s.current = &copied
	s.enqueueLocked()
	s.mu.Unlock()

	s.drain()
}

// Clear drops the current identity. Called on logout and on authorization
// failure from the backend.
func (s *Service) Clear() {
	s.mu.Lock()
	s.current = nil
	s.enqueueLocked()
	s.mu.Unlock()

	s.drain()
}

// Current returns the latest identity, or nil when absent.
func (s *Service) Current() *account.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Authenticated reports whether an identity is present.
func (s *Service) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Subscribe registers fn; its first emission is the current value, then
// every change after that. Callbacks run outside the lock, one emission at
// a time, in mutation order; a callback may call back into the Service,
// and any mutation it makes is delivered after the in-flight emission
// completes. The returned func unsubscribes; calling it twice is harmless.
func (s *Service) Subscribe(fn func(*account.Identity)) func() {
	s.mu.Lock()
	s.nextID++
	sub := &subscriber{id: s.nextID, fn: fn}
	s.subs = append(s.subs, sub)
	s.pending = append(s.pending, delivery{
		targets: []func(*account.Identity){fn},
		value:   s.snapshotLocked(),
	})
	s.mu.Unlock()

	s.drain()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, candidate := range s.subs {
			if candidate.id == sub.id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Service) enqueueLocked() {
	if len(s.subs) == 0 {
		return
	}
	targets := make([]func(*account.Identity), len(s.subs))
	for i, sub := range s.subs {
		targets[i] = sub.fn
	}
	s.pending = append(s.pending, delivery{targets: targets, value: s.snapshotLocked()})
}

// drain works the pending queue with the lock released around each
// callback. The draining flag keeps exactly one goroutine delivering, so
// emissions stay in enqueue order even when a callback re-enters.
func (s *Service) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		for _, fn := range next.targets {
			fn(next.value)
		}

		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *Service) snapshotLocked() *account.Identity {
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}
