package agent

import (
	"github.com/wingmanlabs/wingman/internal/config"
	"github.com/wingmanlabs/wingman/internal/editor"
)

// DocParams describes the document state sent with a completion request.
type DocParams struct {
	Source       string          `json:"source"`
	TabSize      int             `json:"tabSize"`
	IndentSize   int             `json:"indentSize"`
	InsertSpaces bool            `json:"insertSpaces"`
	Path         string          `json:"path"`
	URI          string          `json:"uri"`
	RelativePath string          `json:"relativePath"`
	LanguageID   string          `json:"languageId"`
	Position     editor.Position `json:"position"`
}

// CompletionParams is the getCompletions request payload.
type CompletionParams struct {
	Doc DocParams `json:"doc"`
}

// PanelCompletionParams is the getPanelCompletions request payload. The
// panel id ties streamed solutions back to the requesting view.
type PanelCompletionParams struct {
	Doc     DocParams `json:"doc"`
	PanelID string    `json:"panelId"`
}

// EditorInfo is the setEditorInfo request payload.
type EditorInfo struct {
	EditorInfo       NameVersion `json:"editorInfo"`
	EditorPluginInfo NameVersion `json:"editorPluginInfo"`
}

type NameVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// BuildCompletionParams builds a request payload from the view's current
// buffer and cursor. It returns nil when no valid request can be built:
// unknown syntax or not exactly one selection.
func BuildCompletionParams(view editor.View, comp config.CompletionConfig) *CompletionParams {
	doc := buildDocParams(view, comp)
	if doc == nil {
		return nil
	}
	return &CompletionParams{Doc: *doc}
}

// BuildPanelCompletionParams is BuildCompletionParams for the panel path.
func BuildPanelCompletionParams(view editor.View, comp config.CompletionConfig, panelID string) *PanelCompletionParams {
	doc := buildDocParams(view, comp)
	if doc == nil {
		return nil
	}
	return &PanelCompletionParams{Doc: *doc, PanelID: panelID}
}

func buildDocParams(view editor.View, comp config.CompletionConfig) *DocParams {
	syntax := view.Syntax()
	sels := view.Selections()
	if syntax == "" || len(sels) != 1 {
		return nil
	}

	settings := view.Settings()
	return &DocParams{
		Source:       view.Text(),
		TabSize:      settings.GetInt("tab_size", comp.TabSize),
		IndentSize:   comp.IndentSize,
		InsertSpaces: settings.GetBool("translate_tabs_to_spaces", comp.InsertSpaces),
		Path:         view.FilePath(),
		URI:          view.FileURI(),
		RelativePath: view.RelativePath(),
		LanguageID:   syntax,
		Position:     view.RowCol(sels[0].Begin),
	}
}
