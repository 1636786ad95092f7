// Package editor models the host-editor boundary: buffer text, cursor
// selections, and the per-view persisted settings store. The host editor
// itself is an external collaborator; everything here is the data contract
// it is consumed through.
package editor

// Position is a line/character pair, both zero-based.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a start/end span expressed in line/character pairs.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Region is a half-open span of absolute buffer offsets. A zero-width
// region represents a caret.
type Region struct {
	Begin int
	End   int
}

// Empty reports whether the region is zero-width.
func (r Region) Empty() bool { return r.Begin == r.End }

// View is one open document with its own buffer, selections, and persisted
// settings. Implementations are provided by the embedding frontend;
// BufferView is the in-memory reference implementation.
type View interface {
	// ID returns a stable identifier for the view's lifetime.
	ID() int

	Text() string
	Size() int

	// Line returns the region of the full line containing offset,
	// excluding the trailing newline.
	Line(offset int) Region
	Substr(r Region) string

	// TextPoint converts a line/character position to an absolute offset,
	// clamping to the buffer like the host editor does.
	TextPoint(p Position) int
	RowCol(offset int) Position

	// Selections returns the current selections, primary first.
	// Never empty for a focused view.
	Selections() []Region

	FilePath() string
	FileURI() string
	RelativePath() string

	// Syntax returns the language identifier of the buffer, or "" when
	// the syntax is unknown.
	Syntax() string

	Settings() *Settings
}
