package completion

import (
	"github.com/wingmanlabs/wingman/internal/agent"
	"github.com/wingmanlabs/wingman/internal/editor"
)

// OverlayRenderer draws the inline completion overlay. Implemented by the
// embedding frontend; rendering details are outside this package.
type OverlayRenderer interface {
	// ShowCompletion presents the candidate at index (zero-based) out of
	// total for the view.
	ShowCompletion(view editor.View, completion agent.Completion, index, total int)

	// HideCompletion removes the overlay from the view.
	HideCompletion(view editor.View)
}

// PanelRenderer draws the batch (list) presentation of completions.
type PanelRenderer interface {
	ShowPanel(view editor.View, solutions []agent.PanelSolution)
}
