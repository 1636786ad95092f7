package completion

import (
	"sync"

	"github.com/wingmanlabs/wingman/internal/editor"
)

// Registry maps stable view identifiers to their sessions with explicit
// lifecycle: create-on-first-use, drop-on-view-close. Sessions persist for
// the view's lifetime.
type Registry struct {
	overlay OverlayRenderer
	panel   PanelRenderer
	cyclic  func() bool

	mu       sync.Mutex
	sessions map[int]*Session
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCyclic sets the default for cyclic selection. Individual views can
// still override it via their "auto_complete_cycle" setting.
func WithCyclic(cyclic func() bool) RegistryOption {
	return func(r *Registry) { r.cyclic = cyclic }
}

func NewRegistry(overlay OverlayRenderer, panel PanelRenderer, opts ...RegistryOption) *Registry {
	r := &Registry{
		overlay:  overlay,
		panel:    panel,
		sessions: make(map[int]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionFor returns the view's session, creating it on first use.
func (r *Registry) SessionFor(view editor.View) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[view.ID()]; ok {
		return session
	}
	session := newSession(view, r.overlay, r.panel, r.cyclic)
	r.sessions[view.ID()] = session
	return session
}

// Lookup returns the session for a view id, if one exists.
func (r *Registry) Lookup(viewID int) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[viewID]
	return session, ok
}

// Drop removes the session for a closed view.
func (r *Registry) Drop(viewID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, viewID)
}

// Reset clears a reactivated view's persisted flags through its session.
func (r *Registry) Reset(view editor.View) {
	r.SessionFor(view).Reset()
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
