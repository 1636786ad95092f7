// Package agent talks to the AI completion language server: it owns the
// server subprocess, issues typed requests over JSON-RPC, and decodes the
// server's loosely-typed payloads into validated records.
package agent

import "github.com/wingmanlabs/wingman/internal/editor"

// Request and notification methods spoken by the completion server.
const (
	MethodCheckStatus         = "checkStatus"
	MethodSetEditorInfo       = "setEditorInfo"
	MethodGetCompletions      = "getCompletions"
	MethodGetPanelCompletions = "getPanelCompletions"

	NtfyLogMessage         = "LogMessage"
	NtfyPanelSolution      = "PanelSolution"
	NtfyPanelSolutionDone  = "PanelSolutionDone"
	NtfyStatusNotification = "statusNotification"
)

// PanelIDPrefix namespaces panel identifiers so the done-signal can be
// routed back to the originating view.
const PanelIDPrefix = "wingman://"

// Completion is one candidate suggestion from the server.
//
// Point and Region are derived against a specific buffer snapshot by
// PreprocessCompletions and are invalid after any intervening edit.
type Completion struct {
	UUID        string
	Text        string
	DisplayText string
	Position    editor.Position
	Range       editor.Range

	// Point is the absolute buffer offset where display begins.
	Point int
	// Region is the absolute buffer span the completion replaces.
	Region editor.Region
}

// PanelSolution is one streamed fragment of a panel (list) completion run.
type PanelSolution struct {
	PanelID        string
	CompletionText string
	DisplayText    string
	Score          int
	Range          editor.Range

	Region editor.Region
}

// SignInStatus is the response to a checkStatus request.
type SignInStatus struct {
	Status string
	User   string
}

// OK reports whether the backend considers the user signed in.
func (s SignInStatus) OK() bool { return s.Status == "OK" }
