package completion

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingmanlabs/wingman/internal/agent"
	"github.com/wingmanlabs/wingman/internal/auth"
	"github.com/wingmanlabs/wingman/internal/config"
	"github.com/wingmanlabs/wingman/internal/editor"
)

// fakeClient records every dispatched request and lets the test deliver
// responses by invoking the captured callbacks.
type fakeClient struct {
	mu             sync.Mutex
	requests       []*agent.CompletionParams
	callbacks      []agent.CompletionsCallback
	panelRequests  []*agent.PanelCompletionParams
	panelCallbacks []agent.DoneCallback
}

func (f *fakeClient) GetCompletionsAsync(ctx context.Context, params *agent.CompletionParams, callback agent.CompletionsCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, params)
	f.callbacks = append(f.callbacks, callback)
}

func (f *fakeClient) GetPanelCompletionsAsync(ctx context.Context, params *agent.PanelCompletionParams, callback agent.DoneCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panelRequests = append(f.panelRequests, params)
	f.panelCallbacks = append(f.panelCallbacks, callback)
}

func (f *fakeClient) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeClient) respond(i int, completions []agent.Completion, failed bool) {
	f.mu.Lock()
	callback := f.callbacks[i]
	f.mu.Unlock()
	callback(completions, failed)
}

type controllerFixture struct {
	client     *fakeClient
	auth       *auth.State
	registry   *Registry
	controller *Controller
	overlay    *fakeOverlay
	panel      *fakePanel
	view       *editor.BufferView
}

func newControllerFixture(t *testing.T, signedIn bool) *controllerFixture {
	t.Helper()

	client := &fakeClient{}
	authState := auth.NewState(nil)
	authState.SetSignedIn(signedIn)
	overlay := &fakeOverlay{}
	panel := &fakePanel{}
	registry := NewRegistry(overlay, panel)
	controller := NewController(client, authState, registry,
		WithCompletionConfig(func() config.CompletionConfig {
			return config.CompletionConfig{TabSize: 4, IndentSize: 1}
		}))

	view := editor.NewBufferView(1,
		editor.WithText("line0\nline1\nline23456\nline3\n"),
		editor.WithSyntax("go"),
		editor.WithPath("/work/main.go"))
	view.SelectAt(editor.Position{Line: 2, Character: 5})

	return &controllerFixture{
		client:     client,
		auth:       authState,
		registry:   registry,
		controller: controller,
		overlay:    overlay,
		panel:      panel,
		view:       view,
	}
}

func TestRequestCompletionsShowsResult(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.controller.RequestCompletions(context.Background(), f.view)

	require.Equal(t, 1, f.client.requestCount())
	assert.Equal(t, editor.Position{Line: 2, Character: 5}, f.client.requests[0].Doc.Position)
	assert.Equal(t, "go", f.client.requests[0].Doc.LanguageID)

	session := f.registry.SessionFor(f.view)
	assert.True(t, session.Waiting())

	f.client.respond(0, []agent.Completion{{
		Text:     "foo()",
		Position: editor.Position{Line: 2, Character: 5},
		Range: editor.Range{
			Start: editor.Position{Line: 2, Character: 0},
			End:   editor.Position{Line: 2, Character: 5},
		},
	}}, false)

	assert.False(t, session.Waiting())
	assert.True(t, session.Visible())
	assert.Equal(t, 1, f.overlay.shows)
	assert.Equal(t, 0, f.overlay.lastIndex)

	current, ok := session.Current()
	require.True(t, ok)
	assert.Equal(t, "foo()", current.Text)
	assert.Equal(t, 0, session.Index())
}

func TestRequestCompletionsSignedOut(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.controller.RequestCompletions(context.Background(), f.view)

	assert.Equal(t, 0, f.client.requestCount())
	assert.False(t, f.registry.SessionFor(f.view).Waiting())
}

func TestRequestCompletionsHidesExistingOverlayFirst(t *testing.T) {
	t.Parallel()

	// Even a request that the sign-in gate rejects must clear a stale
	// overlay first.
	f := newControllerFixture(t, false)
	session := f.registry.SessionFor(f.view)
	session.Show([]agent.Completion{{Text: "stale()"}}, 0)
	require.True(t, session.Visible())

	f.controller.RequestCompletions(context.Background(), f.view)

	assert.False(t, session.Visible())
	assert.Equal(t, 1, f.overlay.hides)
	assert.Equal(t, 0, f.client.requestCount())
}

func TestRequestCompletionsMultipleSelections(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.view.SetSelections(editor.Region{Begin: 0, End: 0}, editor.Region{Begin: 6, End: 6})

	f.controller.RequestCompletions(context.Background(), f.view)
	assert.Equal(t, 0, f.client.requestCount())
}

func TestStaleResponseDiscardedAndRerequested(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.controller.RequestCompletions(context.Background(), f.view)
	require.Equal(t, 1, f.client.requestCount())

	// Cursor moves while the response is in flight.
	f.view.SelectAt(editor.Position{Line: 3, Character: 0})

	f.client.respond(0, []agent.Completion{{Text: "foo()"}}, false)

	// The stale payload is dropped and exactly one follow-up request goes
	// out, carrying the new cursor.
	require.Equal(t, 2, f.client.requestCount())
	assert.Equal(t, editor.Position{Line: 3, Character: 0}, f.client.requests[1].Doc.Position)

	session := f.registry.SessionFor(f.view)
	assert.False(t, session.Visible())
	assert.Equal(t, 0, f.overlay.shows)
	assert.True(t, session.Waiting())

	// The follow-up response lands normally.
	f.client.respond(1, []agent.Completion{{
		Text:     "bar()",
		Position: editor.Position{Line: 3, Character: 0},
	}}, false)
	assert.True(t, session.Visible())
	assert.Equal(t, 1, f.overlay.shows)
}

func TestEmptyResponseIsSilent(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.controller.RequestCompletions(context.Background(), f.view)
	f.client.respond(0, nil, false)

	session := f.registry.SessionFor(f.view)
	assert.False(t, session.Waiting())
	assert.False(t, session.Visible())
	assert.Equal(t, 0, f.overlay.shows)
}

func TestFailedResponseIsSilent(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.controller.RequestCompletions(context.Background(), f.view)
	f.client.respond(0, nil, true)

	session := f.registry.SessionFor(f.view)
	assert.False(t, session.Waiting())
	assert.False(t, session.Visible())
	assert.Equal(t, 0, f.overlay.shows)
}

func TestPanelRunAccumulatesAndRendersOnce(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.controller.RequestPanelCompletions(context.Background(), f.view)

	require.Len(t, f.client.panelRequests, 1)
	panelID := f.client.panelRequests[0].PanelID
	assert.Equal(t, "wingman://1", panelID)

	session := f.registry.SessionFor(f.view)
	assert.True(t, session.PanelWaiting())

	f.controller.HandlePanelSolution(agent.PanelSolution{PanelID: panelID, CompletionText: "first"})
	f.controller.HandlePanelSolution(agent.PanelSolution{PanelID: panelID, CompletionText: "second"})
	f.controller.HandlePanelSolution(agent.PanelSolution{PanelID: panelID, CompletionText: "third"})

	// Nothing renders until the done signal arrives.
	assert.Equal(t, 0, f.panel.shows)

	f.controller.HandlePanelSolutionDone(panelID)

	assert.Equal(t, 1, f.panel.shows)
	require.Len(t, f.panel.lastSolutions, 3)
	assert.Equal(t, "first", f.panel.lastSolutions[0].CompletionText)
	assert.Equal(t, "second", f.panel.lastSolutions[1].CompletionText)
	assert.Equal(t, "third", f.panel.lastSolutions[2].CompletionText)
	assert.False(t, session.PanelWaiting())
}

func TestPanelRunClearsPreviousSolutions(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	session := f.registry.SessionFor(f.view)
	session.AppendPanelSolution(agent.PanelSolution{CompletionText: "leftover"})

	f.controller.RequestPanelCompletions(context.Background(), f.view)
	assert.Empty(t, session.PanelSolutions())
}

func TestPanelRequestSignedOut(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, false)
	f.controller.RequestPanelCompletions(context.Background(), f.view)
	assert.Empty(t, f.client.panelRequests)
}

func TestPanelSolutionUnknownPanelDropped(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.controller.RequestPanelCompletions(context.Background(), f.view)

	f.controller.HandlePanelSolution(agent.PanelSolution{PanelID: "wingman://99", CompletionText: "orphan"})
	f.controller.HandlePanelSolution(agent.PanelSolution{PanelID: "not-a-panel-id", CompletionText: "junk"})

	assert.Empty(t, f.registry.SessionFor(f.view).PanelSolutions())

	f.controller.HandlePanelSolutionDone("wingman://99")
	f.controller.HandlePanelSolutionDone("not-a-panel-id")
	assert.Equal(t, 0, f.panel.shows)
}

func TestPanelRequestFailureClearsWaiting(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t, true)
	f.controller.RequestPanelCompletions(context.Background(), f.view)

	session := f.registry.SessionFor(f.view)
	require.True(t, session.PanelWaiting())

	f.client.panelCallbacks[0](true)
	assert.False(t, session.PanelWaiting())
	assert.Equal(t, 0, f.panel.shows)
}
