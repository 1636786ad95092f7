package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/wingmanlabs/wingman/internal/logging"
	"github.com/wingmanlabs/wingman/internal/rpc"
)

// CompletionsCallback receives the decoded result of an asynchronous
// completion fetch. failed is true when the transport or server reported
// an error; the caller treats that identically to an empty result.
type CompletionsCallback func(completions []Completion, failed bool)

// DoneCallback signals completion of a fire-and-forget request.
type DoneCallback func(failed bool)

// Client owns the language-server subprocess and its transport.
type Client struct {
	command   []string
	cmd       *exec.Cmd
	transport *rpc.Transport
}

func NewClient(command []string) *Client {
	return &Client{command: command}
}

// newClientWithTransport wires a client to an existing transport. Used by
// tests and embedders that manage the server process themselves.
func newClientWithTransport(t *rpc.Transport) *Client {
	return &Client{transport: t}
}

// Start spawns the server process and begins reading its stdout. The
// process inherits stderr so server-side diagnostics stay visible.
func (c *Client) Start(ctx context.Context) error {
	if c.transport != nil {
		return fmt.Errorf("agent: client already started")
	}
	if len(c.command) == 0 {
		return fmt.Errorf("agent: no server command configured")
	}

	cmd := exec.CommandContext(ctx, c.command[0], c.command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("agent: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("agent: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("agent: start %q: %w", c.command[0], err)
	}

	c.cmd = cmd
	c.transport = rpc.NewTransport(stdout, stdin, stdin)
	c.registerDefaultHandlers()
	c.transport.Start(ctx)

	slog.Info("Language server started", "command", c.command[0], "pid", cmd.Process.Pid)
	return nil
}

// Shutdown closes the transport and waits briefly for the process to exit.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.transport != nil {
		c.transport.Close()
	}
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if err := c.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("agent: kill server process: %w", err)
		}
		return nil
	case <-time.After(5 * time.Second):
		if err := c.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("agent: kill server process: %w", err)
		}
		return nil
	}
}

// CheckStatus asks the backend whether the user is signed in.
func (c *Client) CheckStatus(ctx context.Context) (SignInStatus, error) {
	var raw json.RawMessage
	if err := c.transport.Call(ctx, MethodCheckStatus, map[string]any{}, &raw); err != nil {
		return SignInStatus{}, fmt.Errorf("checkStatus: %w", err)
	}
	return DecodeSignInStatus(raw), nil
}

// SetEditorInfo identifies the host editor to the server.
func (c *Client) SetEditorInfo(ctx context.Context, info EditorInfo) error {
	if err := c.transport.Call(ctx, MethodSetEditorInfo, info, nil); err != nil {
		return fmt.Errorf("setEditorInfo: %w", err)
	}
	return nil
}

// GetCompletionsAsync dispatches a completion request without blocking the
// caller. The callback runs on its own goroutine.
func (c *Client) GetCompletionsAsync(ctx context.Context, params *CompletionParams, callback CompletionsCallback) {
	requestID := uuid.New().String()
	go func() {
		defer logging.RecoverPanic("get-completions", nil)

		var raw json.RawMessage
		if err := c.transport.Call(ctx, MethodGetCompletions, params, &raw); err != nil {
			slog.Info("Completion request failed", "request_id", requestID, "error", err)
			callback(nil, true)
			return
		}
		callback(DecodeCompletions(raw), false)
	}()
}

// GetPanelCompletionsAsync dispatches a panel completion request. Results
// stream back as PanelSolution notifications; the response itself carries
// no completions.
func (c *Client) GetPanelCompletionsAsync(ctx context.Context, params *PanelCompletionParams, callback DoneCallback) {
	requestID := uuid.New().String()
	go func() {
		defer logging.RecoverPanic("get-panel-completions", nil)

		if err := c.transport.Call(ctx, MethodGetPanelCompletions, params, nil); err != nil {
			slog.Info("Panel completion request failed", "request_id", requestID, "error", err)
			callback(true)
			return
		}
		callback(false)
	}()
}

// OnPanelSolution registers a handler for streamed panel fragments.
func (c *Client) OnPanelSolution(handler func(PanelSolution)) {
	c.transport.OnNotification(NtfyPanelSolution, func(_ string, params json.RawMessage) {
		handler(DecodePanelSolution(params))
	})
}

// OnPanelSolutionDone registers a handler for the terminal panel signal.
func (c *Client) OnPanelSolutionDone(handler func(panelID string)) {
	c.transport.OnNotification(NtfyPanelSolutionDone, func(_ string, params json.RawMessage) {
		handler(DecodePanelID(params))
	})
}

func (c *Client) registerDefaultHandlers() {
	// Log messages and free-form status notifications are consumed only
	// for debugging.
	c.transport.OnNotification(NtfyLogMessage, func(_ string, params json.RawMessage) {
		slog.Debug("Server log message", "payload", string(params))
	})
	c.transport.OnNotification(NtfyStatusNotification, func(_ string, params json.RawMessage) {
		slog.Debug("Server status notification", "payload", string(params))
	})
}
