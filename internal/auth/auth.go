// Package auth holds the process-wide sign-in state for the completion
// backend. The state is an injected value rather than a package global so
// controllers can be tested against an explicit instance.
package auth

import (
	"sync/atomic"
)

// Notifier receives the one-line sign-in status messages. Satisfied by
// status.Service.
type Notifier interface {
	Info(message string)
	Warn(message string)
}

// State is the sign-in gate shared by all views. It starts signed out and
// is updated only by the explicit checkStatus response handler. Values are
// idempotently overwritten, never read-modify-written.
type State struct {
	signedIn atomic.Bool
	notifier Notifier
}

func NewState(notifier Notifier) *State {
	return &State{notifier: notifier}
}

func (s *State) SignedIn() bool {
	return s.signedIn.Load()
}

// SetSignedIn records the outcome of a checkStatus call and surfaces it as
// a non-blocking status line.
func (s *State) SetSignedIn(value bool) {
	s.signedIn.Store(value)
	if s.notifier == nil {
		return
	}
	if value {
		s.notifier.Info("Completion backend signed in")
	} else {
		s.notifier.Warn("Completion backend NOT signed in")
	}
}
