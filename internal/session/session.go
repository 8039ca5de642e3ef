// Package session tracks the lifecycle of form submissions: at most one
// request in flight per form, with every state change recorded.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mlhealth/riskview/internal/domain"
)

// State of a submission session.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// ErrSubmissionInFlight is returned by Submit and Reset while a previous
// submission has not finished.
var ErrSubmissionInFlight = errors.New("a submission is already in progress")

// Transition records one state change.
type Transition struct {
	SubmissionID uuid.UUID
	From         State
	To           State
	At           time.Time
	Err          error
}

// Snapshot is a point-in-time copy of a session.
type Snapshot[R any] struct {
	State        State
	SubmissionID uuid.UUID
	Result       R
	HasResult    bool
	Err          error
	// ErrorMessage is the user-visible text for Err.
	ErrorMessage string
	UpdatedAt    time.Time
}

// Loading reports whether a submission is in flight.
func (s Snapshot[R]) Loading() bool {
	return s.State == StateSubmitting
}

// Session is the state machine for one form. Its zero value is not usable;
// create one with New.
type Session[R any] struct {
	name   string
	logger *logrus.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     State
	id        uuid.UUID
	result    R
	hasResult bool
	err       error
	updatedAt time.Time
	history   []Transition
}

// New creates an idle session. name identifies the form in logs.
func New[R any](name string, logger *logrus.Logger) *Session[R] {
	if logger == nil {
		logger = logrus.New()
	}
	return &Session[R]{
		name:   name,
		logger: logger,
		now:    time.Now,
		state:  StateIdle,
	}
}

// Submit runs fn as a new submission. The previous result and error are
// cleared when it starts. While another submission is running, Submit returns
// ErrSubmissionInFlight without calling fn.
func (s *Session[R]) Submit(ctx context.Context, fn func(context.Context) (R, error)) (R, error) {
	var zero R

	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		s.logger.WithField("form", s.name).Warn("Submission rejected, another one is in flight")
		return zero, ErrSubmissionInFlight
	}
	s.id = uuid.New()
	s.result = zero
	s.hasResult = false
	s.err = nil
	s.transitionLocked(StateSubmitting, nil)
	s.mu.Unlock()

	result, err := fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err
		s.transitionLocked(StateFailed, err)
	} else {
		s.result = result
		s.hasResult = true
		s.transitionLocked(StateSucceeded, nil)
	}
	return result, err
}

// Reset returns the session to idle and clears the last outcome. Only the
// submission that entered StateSubmitting may leave it, so Reset returns
// ErrSubmissionInFlight while one is running.
func (s *Session[R]) Reset() error {
	var zero R

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle:
		return nil
	case StateSubmitting:
		return ErrSubmissionInFlight
	}
	s.result = zero
	s.hasResult = false
	s.err = nil
	s.transitionLocked(StateIdle, nil)
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session[R]) Snapshot() Snapshot[R] {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot[R]{
		State:        s.state,
		SubmissionID: s.id,
		Result:       s.result,
		HasResult:    s.hasResult,
		Err:          s.err,
		UpdatedAt:    s.updatedAt,
	}
	if s.err != nil {
		snap.ErrorMessage = domain.UserMessage(s.err)
	}
	return snap
}

// History returns every transition so far, oldest first.
func (s *Session[R]) History() []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Transition, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session[R]) transitionLocked(to State, err error) {
	t := Transition{
		SubmissionID: s.id,
		From:         s.state,
		To:           to,
		At:           s.now(),
		Err:          err,
	}
	s.state = to
	s.updatedAt = t.At
	s.history = append(s.history, t)

	entry := s.logger.WithFields(logrus.Fields{
		"form":          s.name,
		"submission_id": t.SubmissionID.String(),
		"from":          string(t.From),
		"to":            string(t.To),
	})
	if err != nil {
		entry.WithError(err).Info("Submission state changed")
	} else {
		entry.Debug("Submission state changed")
	}
}
