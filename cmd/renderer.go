package cmd

import (
	"fmt"
	"os"

	"github.com/wingmanlabs/wingman/internal/agent"
	"github.com/wingmanlabs/wingman/internal/editor"
)

// stderrRenderer is the reference frontend used when wingman runs
// standalone. Real hosts supply their own renderers through app.New.
type stderrRenderer struct{}

func (r *stderrRenderer) ShowCompletion(view editor.View, completion agent.Completion, index, total int) {
	fmt.Fprintf(os.Stderr, "completion %d/%d for view %d:\n%s\n",
		index+1, total, view.ID(), completion.DisplayText)
}

func (r *stderrRenderer) HideCompletion(view editor.View) {
	fmt.Fprintf(os.Stderr, "completion hidden for view %d\n", view.ID())
}

func (r *stderrRenderer) ShowPanel(view editor.View, solutions []agent.PanelSolution) {
	fmt.Fprintf(os.Stderr, "panel for view %d (%d solutions):\n", view.ID(), len(solutions))
	for i, solution := range solutions {
		fmt.Fprintf(os.Stderr, "--- %d (score %d) ---\n%s\n", i+1, solution.Score, solution.CompletionText)
	}
}
