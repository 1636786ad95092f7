package agent

import (
	"github.com/tidwall/gjson"
	"github.com/wingmanlabs/wingman/internal/editor"
)

// The server's payloads are dynamic JSON. Decoding is tolerant by policy:
// missing or malformed fields default to zero values and never produce an
// error. A bad payload is indistinguishable from an empty result.

// DecodeCompletions extracts the completion list from a getCompletions
// response payload.
func DecodeCompletions(raw []byte) []Completion {
	items := gjson.GetBytes(raw, "completions")
	if !items.IsArray() {
		return nil
	}

	var completions []Completion
	items.ForEach(func(_, item gjson.Result) bool {
		completions = append(completions, Completion{
			UUID:        item.Get("uuid").String(),
			Text:        item.Get("text").String(),
			DisplayText: item.Get("displayText").String(),
			Position:    decodePosition(item.Get("position")),
			Range:       decodeRange(item.Get("range")),
		})
		return true
	})
	return completions
}

// DecodePanelSolution extracts one streamed panel fragment.
func DecodePanelSolution(raw []byte) PanelSolution {
	item := gjson.ParseBytes(raw)
	return PanelSolution{
		PanelID:        item.Get("panelId").String(),
		CompletionText: item.Get("completionText").String(),
		DisplayText:    item.Get("displayText").String(),
		Score:          int(item.Get("score").Int()),
		Range:          decodeRange(item.Get("range")),
	}
}

// DecodePanelID extracts the panel identifier from a panel notification
// payload, or "" when absent.
func DecodePanelID(raw []byte) string {
	return gjson.GetBytes(raw, "panelId").String()
}

// DecodeSignInStatus extracts the checkStatus response fields.
func DecodeSignInStatus(raw []byte) SignInStatus {
	item := gjson.ParseBytes(raw)
	return SignInStatus{
		Status: item.Get("status").String(),
		User:   item.Get("user").String(),
	}
}

func decodePosition(v gjson.Result) editor.Position {
	return editor.Position{
		Line:      int(v.Get("line").Int()),
		Character: int(v.Get("character").Int()),
	}
}

func decodeRange(v gjson.Result) editor.Range {
	return editor.Range{
		Start: decodePosition(v.Get("start")),
		End:   decodePosition(v.Get("end")),
	}
}

// PreprocessCompletions derives each completion's absolute Point and Region
// against the view's current buffer. The derived offsets are only valid for
// this buffer snapshot.
func PreprocessCompletions(view editor.View, completions []Completion) {
	for i := range completions {
		completions[i].Point = view.TextPoint(completions[i].Position)
		completions[i].Region = regionFor(view, completions[i].Range)
	}
}

// PreprocessPanelSolutions derives each solution's absolute Region against
// the view's current buffer.
func PreprocessPanelSolutions(view editor.View, solutions []PanelSolution) {
	for i := range solutions {
		solutions[i].Region = regionFor(view, solutions[i].Range)
	}
}

func regionFor(view editor.View, r editor.Range) editor.Region {
	return editor.Region{
		Begin: view.TextPoint(r.Start),
		End:   view.TextPoint(r.End),
	}
}
