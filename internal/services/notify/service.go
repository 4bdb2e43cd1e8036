// Package notify keeps the ordered queue of transient user-visible notices
// and their auto-dismissal timers.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enkitstudio/accountkit/internal/services/classify"
)

// Default display durations per severity. Callers may override per call.
const (
	DefaultSuccessDuration = 5 * time.Second
	DefaultErrorDuration   = 8 * time.Second
	DefaultWarningDuration = 6 * time.Second
	DefaultInfoDuration    = 5 * time.Second
	DefaultNetworkDuration = 10 * time.Second
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is one queued notice. Duration 0 means it stays until
// dismissed by hand.
type Notification struct {
	ID          string
	Message     string
	Severity    Severity
	Duration    time.Duration
	Dismissible bool
}

// Durations lets configuration raise or lower the per-severity defaults; a
// zero field keeps the default.
type Durations struct {
	Success      time.Duration
	Error        time.Duration
	Warning      time.Duration
	Info         time.Duration
	NetworkError time.Duration
}

type Service struct {
	mu        sync.Mutex
	items     []Notification
	timers    map[string]*time.Timer
	subs      []*subscriber
	nextSubID int
	durations Durations
	now       func() time.Time
	closed    bool
	pending   []delivery
	draining  bool
}

type subscriber struct {
	id int
	fn func([]Notification)
}

// delivery pairs a queue snapshot with the subscribers registered when the
// mutation happened, so emissions stay in mutation order.
type delivery struct {
	targets  []func([]Notification)
	snapshot []Notification
}

func NewService(durations Durations) *Service {
	if durations.Success <= 0 {
		durations.Success = DefaultSuccessDuration
	}
	if durations.Error <= 0 {
		durations.Error = DefaultErrorDuration
	}
	if durations.Warning <= 0 {
		durations.Warning = DefaultWarningDuration
	}
	if durations.Info <= 0 {
		durations.Info = DefaultInfoDuration
	}
	if durations.NetworkError <= 0 {
		durations.NetworkError = DefaultNetworkDuration
	}

	return &Service{
		timers:    make(map[string]*time.Timer),
		durations: durations,
		now:       time.Now,
	}
}

// Show appends a notification and returns its ID. A positive duration arms
// an auto-dismiss timer owned by that notification alone; 0 persists until
// a manual dismissal.
func (s *Service) Show(message string, severity Severity, duration time.Duration) string {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return ""
	}

	n := Notification{
		ID:          s.generateID(),
		Message:     message,
		Severity:    severity,
		Duration:    duration,
		Dismissible: true,
	}
	s.items = append(s.items, n)

	if duration > 0 {
		id := n.ID
		s.timers[id] = time.AfterFunc(duration, func() {
			s.Dismiss(id)
		})
	}

	s.enqueueLocked()
	s.mu.Unlock()

	s.drain()
	return n.ID
}

func (s *Service) ShowSuccess(message string) string {
	return s.Show(message, SeveritySuccess, s.durations.Success)
}

func (s *Service) ShowError(message string) string {
	return s.Show(message, SeverityError, s.durations.Error)
}

func (s *Service) ShowWarning(message string) string {
	return s.Show(message, SeverityWarning, s.durations.Warning)
}

func (s *Service) ShowInfo(message string) string {
	return s.Show(message, SeverityInfo, s.durations.Info)
}

// ShowPersistent shows a notification that never auto-dismisses.
func (s *Service) ShowPersistent(message string, severity Severity) string {
	return s.Show(message, severity, 0)
}

// ShowFromErrorInfo displays a classified failure. Override <= 0 keeps the
// default for the record's severity.
func (s *Service) ShowFromErrorInfo(info classify.ErrorInfo, override time.Duration) string {
	severity := SeverityError
	duration := s.durations.Error
	switch info.Severity {
	case classify.SeverityWarning:
		severity = SeverityWarning
		duration = s.durations.Warning
	case classify.SeverityInfo:
		severity = SeverityInfo
		duration = s.durations.Info
	}
	if override > 0 {
		duration = override
	}
	return s.Show(info.Message, severity, duration)
}

func (s *Service) ShowNetworkError() string {
	return s.Show(
		"Unable to connect to the server. Please check your internet connection and try again.",
		SeverityError,
		s.durations.NetworkError,
	)
}

func (s *Service) ShowSessionExpired() string {
	return s.Show("Your session has expired. Please log in again.", SeverityWarning, s.durations.Error)
}

func (s *Service) ShowValidationError(message string) string {
	if message == "" {
		message = "Please check your input and try again."
	}
	return s.Show(message, SeverityError, s.durations.Warning)
}

func (s *Service) ShowRateLimitError() string {
	return s.Show("Too many requests. Please wait a moment and try again.", SeverityWarning, s.durations.Info)
}

func (s *Service) ShowServerError() string {
	return s.Show("Server error. Please try again later.", SeverityError, s.durations.Error)
}

// Dismiss removes the notification with the given ID and cancels its timer.
// Unknown IDs are a no-op; sibling timers are untouched.
func (s *Service) Dismiss(id string) {
	s.mu.Lock()

	found := false
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return
	}

	s.stopTimerLocked(id)
	s.enqueueLocked()
	s.mu.Unlock()

	s.drain()
}

// DismissAll clears the queue and every pending timer.
func (s *Service) DismissAll() {
	s.mu.Lock()

	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}

	for _, n := range s.items {
		s.stopTimerLocked(n.ID)
	}
	s.items = nil
	s.enqueueLocked()
	s.mu.Unlock()

	s.drain()
}

// DismissByType removes every notification of one severity.
func (s *Service) DismissByType(severity Severity) {
	s.mu.Lock()

	kept := s.items[:0]
	removed := false
	for _, n := range s.items {
		if n.Severity == severity {
			s.stopTimerLocked(n.ID)
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	if !removed {
		s.mu.Unlock()
		return
	}

	s.items = kept
	s.enqueueLocked()
	s.mu.Unlock()

	s.drain()
}

// Notifications returns a snapshot of the queue in insertion order.
func (s *Service) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers a display surface. Its first emission is the current
// queue, then a fresh snapshot after every mutation, in order. Callbacks
// run outside the queue lock, one emission at a time; a callback may call
// back into the Service, and any mutation it makes is delivered after the
// in-flight emission completes. The returned func unsubscribes.
func (s *Service) Subscribe(fn func([]Notification)) func() {
	s.mu.Lock()

	s.nextSubID++
	sub := &subscriber{id: s.nextSubID, fn: fn}
	s.subs = append(s.subs, sub)
	s.pending = append(s.pending, delivery{
		targets:  []func([]Notification){fn},
		snapshot: s.snapshotLocked(),
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

// Close stops every timer and rejects further Show calls. Called when the
// display surface is torn down.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id := range s.timers {
		s.timers[id].Stop()
		delete(s.timers, id)
	}
}

func (s *Service) stopTimerLocked(id string) {
	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *Service) enqueueLocked() {
	if len(s.subs) == 0 {
		return
	}
	targets := make([]func([]Notification), len(s.subs))
	for i, sub := range s.subs {
		targets[i] = sub.fn
	}
	s.pending = append(s.pending, delivery{targets: targets, snapshot: s.snapshotLocked()})
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
			fn(next.snapshot)
		}

		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *Service) snapshotLocked() []Notification {
	snapshot := make([]Notification, len(s.items))
	copy(snapshot, s.items)
	return snapshot
}

// generateID mirrors the notification_<millis>_<random> shape the display
// surface keys on. Collisions are not defended against.
func (s *Service) generateID() string {
	return fmt.Sprintf("notification_%d_%s", s.now().UnixMilli(), uuid.NewString()[:8])
}
