package completion

import (
	"sync"

	"github.com/wingmanlabs/wingman/internal/agent"
	"github.com/wingmanlabs/wingman/internal/editor"
)

// Per-view settings keys. The host editor persists these across view
// close/reopen, so boolean flags can survive a session and must be reset
// on reactivation.
const (
	keyIsVisible      = "wingman.is_visible"
	keyIsWaiting      = "wingman.is_waiting_completions"
	keyIsPanelWaiting = "wingman.is_waiting_panel_completions"
	keyPanelSolutions = "wingman.panel_completions"
)

// Session owns the completion state for one view: the candidate list, the
// selected index, and the visibility/waiting flags. It is pure state and
// transition logic; the only side effects are renderer calls and the
// view-scoped persisted flags.
type Session struct {
	view    editor.View
	overlay OverlayRenderer
	panel   PanelRenderer
	cyclic  func() bool

	mu             sync.Mutex
	completions    []agent.Completion
	index          int
	panelSolutions []agent.PanelSolution
}

func newSession(view editor.View, overlay OverlayRenderer, panel PanelRenderer, cyclic func() bool) *Session {
	return &Session{
		view:    view,
		overlay: overlay,
		panel:   panel,
		cyclic:  cyclic,
	}
}

// View returns the view this session belongs to.
func (s *Session) View() editor.View { return s.view }

// SetCompletions replaces the candidate list. The selected index is reset
// to 0 when it no longer points into the new list.
func (s *Session) SetCompletions(completions []agent.Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions = completions
	if s.index < 0 || s.index >= len(completions) {
		s.index = 0
	}
}

// Completions returns a copy of the candidate list.
func (s *Session) Completions() []agent.Completion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]agent.Completion, len(s.completions))
	copy(out, s.completions)
	return out
}

// Count returns the number of candidates.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completions)
}

// Index returns the selected index.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// SelectIndex moves the selection to i, wrapping when cyclic mode is on
// and clamping otherwise. With no candidates the index is always 0.
func (s *Session) SelectIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = s.tidyIndexLocked(i)
}

// tidyIndexLocked revises i to a valid index, or 0 when there are no
// candidates.
func (s *Session) tidyIndexLocked(i int) int {
	count := len(s.completions)
	if count == 0 {
		return 0
	}
	if s.isCyclic() {
		// Euclidean modulo keeps the result non-negative.
		i %= count
		if i < 0 {
			i += count
		}
		return i
	}
	if i < 0 {
		return 0
	}
	if i > count-1 {
		return count - 1
	}
	return i
}

func (s *Session) isCyclic() bool {
	def := false
	if s.cyclic != nil {
		def = s.cyclic()
	}
	return s.view.Settings().GetBool("auto_complete_cycle", def)
}

// Current returns the selected candidate, or false when there are none.
func (s *Session) Current() (agent.Completion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.completions) == 0 {
		return agent.Completion{}, false
	}
	return s.completions[s.index], true
}

// Show replaces the candidate list and selection, then presents the
// overlay.
func (s *Session) Show(completions []agent.Completion, index int) {
	s.mu.Lock()
	s.completions = completions
	s.index = s.tidyIndexLocked(index)
	s.mu.Unlock()
	s.display()
}

// ShowIndex moves the selection and presents the overlay.
func (s *Session) ShowIndex(index int) {
	s.SelectIndex(index)
	s.display()
}

// Next shows the next candidate.
func (s *Session) Next() { s.ShowIndex(s.Index() + 1) }

// Previous shows the previous candidate.
func (s *Session) Previous() { s.ShowIndex(s.Index() - 1) }

// display renders the selected candidate. Display is suppressed when the
// candidate's text already equals the current line: showing a no-change
// suggestion would only be noise.
func (s *Session) display() {
	completion, ok := s.Current()
	if !ok {
		return
	}

	line := s.view.Line(completion.Point)
	if completion.Text == s.view.Substr(line) {
		return
	}

	s.overlay.ShowCompletion(s.view, completion, s.Index(), s.Count())
	s.setVisible(true)
}

// Hide removes the overlay. The removal call is only issued when the
// overlay is actually visible, so another component's popup is never torn
// down by accident.
func (s *Session) Hide() {
	if s.Visible() {
		s.overlay.HideCompletion(s.view)
	}
	s.setVisible(false)
}

// Reset clears the persisted flags. Used when a view is (re)activated:
// the host editor keeps view settings across close/reopen, so a stale
// is_visible or waiting flag may otherwise survive.
func (s *Session) Reset() {
	s.setVisible(false)
	s.SetWaiting(false)
	s.SetPanelWaiting(false)
}

func (s *Session) Visible() bool {
	return s.view.Settings().GetBool(keyIsVisible, false)
}

func (s *Session) setVisible(value bool) {
	s.view.Settings().Set(keyIsVisible, value)
}

// Waiting reports whether an overlay completion response is outstanding.
func (s *Session) Waiting() bool {
	return s.view.Settings().GetBool(keyIsWaiting, false)
}

func (s *Session) SetWaiting(value bool) {
	s.view.Settings().Set(keyIsWaiting, value)
}

// PanelWaiting reports whether a panel completion run is outstanding.
func (s *Session) PanelWaiting() bool {
	return s.view.Settings().GetBool(keyIsPanelWaiting, false)
}

func (s *Session) SetPanelWaiting(value bool) {
	s.view.Settings().Set(keyIsPanelWaiting, value)
}

// AppendPanelSolution accumulates one streamed panel fragment, preserving
// arrival order. The list is mirrored into the view's settings so the host
// can inspect it.
func (s *Session) AppendPanelSolution(solution agent.PanelSolution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelSolutions = append(s.panelSolutions, solution)
	s.view.Settings().Set(keyPanelSolutions, s.copyPanelSolutionsLocked())
}

func (s *Session) copyPanelSolutionsLocked() []agent.PanelSolution {
	out := make([]agent.PanelSolution, len(s.panelSolutions))
	copy(out, s.panelSolutions)
	return out
}

// PanelSolutions returns a copy of the accumulated fragments.
func (s *Session) PanelSolutions() []agent.PanelSolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyPanelSolutionsLocked()
}

// ClearPanelSolutions drops accumulated fragments before a new panel run.
func (s *Session) ClearPanelSolutions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelSolutions = nil
	s.view.Settings().Erase(keyPanelSolutions)
}

// ShowPanel derives display regions for the accumulated fragments against
// the current buffer and renders the panel.
func (s *Session) ShowPanel() {
	s.mu.Lock()
	agent.PreprocessPanelSolutions(s.view, s.panelSolutions)
	solutions := make([]agent.PanelSolution, len(s.panelSolutions))
	copy(solutions, s.panelSolutions)
	s.mu.Unlock()

	s.panel.ShowPanel(s.view, solutions)
}
