package completion

import (
	"context"
	"strconv"
	"strings"

	"github.com/wingmanlabs/wingman/internal/agent"
	"github.com/wingmanlabs/wingman/internal/auth"
	"github.com/wingmanlabs/wingman/internal/config"
	"github.com/wingmanlabs/wingman/internal/editor"
)

// Client is the slice of the agent client the controller depends on.
type Client interface {
	GetCompletionsAsync(ctx context.Context, params *agent.CompletionParams, callback agent.CompletionsCallback)
	GetPanelCompletionsAsync(ctx context.Context, params *agent.PanelCompletionParams, callback agent.DoneCallback)
}

// Controller orchestrates the request/response cycle against the agent,
// deciding when a response is stale and must be discarded.
type Controller struct {
	client   Client
	auth     *auth.State
	registry *Registry
	cfg      func() config.CompletionConfig
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithCompletionConfig overrides where the controller reads completion
// settings from. The default is the loaded application config.
func WithCompletionConfig(cfg func() config.CompletionConfig) ControllerOption {
	return func(c *Controller) { c.cfg = cfg }
}

func NewController(client Client, authState *auth.State, registry *Registry, opts ...ControllerOption) *Controller {
	c := &Controller{
		client:   client,
		auth:     authState,
		registry: registry,
		cfg:      completionConfig,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func completionConfig() config.CompletionConfig {
	if cfg := config.Get(); cfg != nil {
		return cfg.Completion
	}
	return config.CompletionConfig{TabSize: 4, IndentSize: 1}
}

// RequestCompletions starts a completion fetch for the view's current
// cursor. Any visible overlay is hidden first. The request is skipped
// silently when the user is not signed in, the view has multiple
// selections, or no valid payload can be built.
func (c *Controller) RequestCompletions(ctx context.Context, view editor.View) {
	session := c.registry.SessionFor(view)
	session.Hide()

	sels := view.Selections()
	if !c.auth.SignedIn() || len(sels) != 1 {
		return
	}

	params := agent.BuildCompletionParams(view, c.cfg())
	if params == nil {
		return
	}

	snapshot := sels[0]
	session.SetWaiting(true)
	c.client.GetCompletionsAsync(ctx, params, func(completions []agent.Completion, failed bool) {
		c.onCompletions(ctx, view, snapshot, completions, failed)
	})
}

// onCompletions handles a completion response carrying the cursor snapshot
// captured at request time.
func (c *Controller) onCompletions(ctx context.Context, view editor.View, snapshot editor.Region, completions []agent.Completion, failed bool) {
	session := c.registry.SessionFor(view)
	session.SetWaiting(false)

	// The cursor moved while awaiting the response, so the payload no
	// longer applies. Re-request from the current position.
	sels := view.Selections()
	if len(sels) == 0 || sels[0] != snapshot {
		c.RequestCompletions(ctx, view)
		return
	}

	// A failed fetch is treated like an empty result.
	if failed || len(completions) == 0 {
		return
	}

	agent.PreprocessCompletions(view, completions)
	session.Show(completions, 0)
}

// RequestPanelCompletions starts a panel (list) completion run for the
// view. Results stream back through HandlePanelSolution until
// HandlePanelSolutionDone fires.
func (c *Controller) RequestPanelCompletions(ctx context.Context, view editor.View) {
	session := c.registry.SessionFor(view)

	if !c.auth.SignedIn() {
		return
	}
	panelID := agent.PanelIDPrefix + strconv.Itoa(view.ID())
	params := agent.BuildPanelCompletionParams(view, c.cfg(), panelID)
	if params == nil {
		return
	}

	session.ClearPanelSolutions()
	session.SetPanelWaiting(true)
	c.client.GetPanelCompletionsAsync(ctx, params, func(failed bool) {
		if failed {
			session.SetPanelWaiting(false)
		}
	})
}

// HandlePanelSolution accumulates one streamed fragment into the
// originating view's session. Fragments for unknown panels are dropped.
func (c *Controller) HandlePanelSolution(solution agent.PanelSolution) {
	session, ok := c.sessionForPanelID(solution.PanelID)
	if !ok {
		return
	}
	session.AppendPanelSolution(solution)
}

// HandlePanelSolutionDone marks the view's panel run finished and renders
// the accumulated fragments, exactly once per run.
func (c *Controller) HandlePanelSolutionDone(panelID string) {
	session, ok := c.sessionForPanelID(panelID)
	if !ok {
		return
	}
	session.SetPanelWaiting(false)
	session.ShowPanel()
}

func (c *Controller) sessionForPanelID(panelID string) (*Session, bool) {
	viewID, ok := panelViewID(panelID)
	if !ok {
		return nil, false
	}
	return c.registry.Lookup(viewID)
}

// panelViewID extracts the view id from a panel identifier of the form
// "wingman://<viewID>".
func panelViewID(panelID string) (int, bool) {
	if !strings.HasPrefix(panelID, agent.PanelIDPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(panelID, agent.PanelIDPrefix))
	if err != nil {
		return 0, false
	}
	return id, true
}
