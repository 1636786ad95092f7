// Package app wires the agent client, sign-in state, and completion
// controller into one embeddable unit. The host editor frontend talks to
// App; everything below it is internal plumbing.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wingmanlabs/wingman/internal/agent"
	"github.com/wingmanlabs/wingman/internal/auth"
	"github.com/wingmanlabs/wingman/internal/completion"
	"github.com/wingmanlabs/wingman/internal/config"
	"github.com/wingmanlabs/wingman/internal/editor"
	"github.com/wingmanlabs/wingman/internal/status"
	"github.com/wingmanlabs/wingman/internal/version"
)

type App struct {
	Client     *agent.Client
	Auth       *auth.State
	Registry   *completion.Registry
	Controller *completion.Controller
}

// New assembles the application from the loaded configuration. The
// renderers are supplied by the embedding frontend.
func New(ctx context.Context, overlay completion.OverlayRenderer, panel completion.PanelRenderer) (*App, error) {
	cfg := config.Get()
	if cfg == nil {
		return nil, fmt.Errorf("app: config not loaded")
	}

	authState := auth.NewState(status.GetService())
	registry := completion.NewRegistry(overlay, panel,
		completion.WithCyclic(func() bool {
			if c := config.Get(); c != nil {
				return c.Completion.Cyclic
			}
			return false
		}))

	client := agent.NewClient(cfg.Server.Command)
	controller := completion.NewController(client, authState, registry)

	return &App{
		Client:     client,
		Auth:       authState,
		Registry:   registry,
		Controller: controller,
	}, nil
}

// Start launches the language server and performs the readiness handshake:
// checkStatus decides the sign-in gate, setEditorInfo identifies the host.
// Handshake failures leave the gate closed but are not fatal; the server
// may still sign in later via a config reload and restart.
func (a *App) Start(ctx context.Context) error {
	if err := a.Client.Start(ctx); err != nil {
		return err
	}

	a.Client.OnPanelSolution(a.Controller.HandlePanelSolution)
	a.Client.OnPanelSolutionDone(a.Controller.HandlePanelSolutionDone)

	signIn, err := a.Client.CheckStatus(ctx)
	if err != nil {
		slog.Warn("Sign-in check failed", "error", err)
		a.Auth.SetSignedIn(false)
	} else {
		a.Auth.SetSignedIn(signIn.OK())
	}

	if err := a.Client.SetEditorInfo(ctx, a.editorInfo()); err != nil {
		slog.Warn("Failed to send editor info", "error", err)
	}
	return nil
}

func (a *App) editorInfo() agent.EditorInfo {
	cfg := config.Get()
	name := cfg.Editor.Name
	if name == "" {
		name = "wingman"
	}
	ver := cfg.Editor.Version
	if ver == "" {
		ver = version.Version
	}
	return agent.EditorInfo{
		EditorInfo:       agent.NameVersion{Name: name, Version: ver},
		EditorPluginInfo: agent.NameVersion{Name: "wingman", Version: version.Version},
	}
}

// SignedIn reports whether the completion backend accepted the user.
func (a *App) SignedIn() bool { return a.Auth.SignedIn() }

// RequestCompletions fetches overlay completions for the view's cursor.
func (a *App) RequestCompletions(ctx context.Context, view editor.View) {
	a.Controller.RequestCompletions(ctx, view)
}

// AcceptCompletion hides the overlay and returns the selected candidate
// for the frontend to insert. ok is false when nothing is showing.
func (a *App) AcceptCompletion(view editor.View) (agent.Completion, bool) {
	session := a.Registry.SessionFor(view)
	if !session.Visible() {
		return agent.Completion{}, false
	}
	current, ok := session.Current()
	session.Hide()
	return current, ok
}

// RejectCompletion dismisses the overlay without inserting anything.
func (a *App) RejectCompletion(view editor.View) {
	a.Registry.SessionFor(view).Hide()
}

// NextCompletion shows the next candidate.
func (a *App) NextCompletion(view editor.View) {
	a.Registry.SessionFor(view).Next()
}

// PreviousCompletion shows the previous candidate.
func (a *App) PreviousCompletion(view editor.View) {
	a.Registry.SessionFor(view).Previous()
}

// OpenPanelCompletions starts a batch completion run whose results stream
// into the view's panel.
func (a *App) OpenPanelCompletions(ctx context.Context, view editor.View) {
	a.Controller.RequestPanelCompletions(ctx, view)
}

// ActivateView clears flags a previous session may have persisted into the
// view's settings.
func (a *App) ActivateView(view editor.View) {
	a.Registry.Reset(view)
}

// CloseView drops the session for a closed view.
func (a *App) CloseView(viewID int) {
	a.Registry.Drop(viewID)
}

// Shutdown stops the language server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Client.Shutdown(ctx)
}
