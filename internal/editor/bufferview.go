package editor

import (
	"path/filepath"
	"strings"
	"sync"
)

// BufferView is a complete in-memory View implementation. It backs tests
// and any embedding frontend that keeps its own buffer copy in sync with
// the host editor.
type BufferView struct {
	id       int
	mu       sync.RWMutex
	text     string
	sels     []Region
	path     string
	syntax   string
	workDir  string
	settings *Settings
}

// BufferViewOption configures a BufferView.
type BufferViewOption func(*BufferView)

func WithText(text string) BufferViewOption {
	return func(v *BufferView) { v.text = text }
}

func WithPath(path string) BufferViewOption {
	return func(v *BufferView) { v.path = path }
}

func WithSyntax(languageID string) BufferViewOption {
	return func(v *BufferView) { v.syntax = languageID }
}

func WithWorkDir(dir string) BufferViewOption {
	return func(v *BufferView) { v.workDir = dir }
}

func NewBufferView(id int, opts ...BufferViewOption) *BufferView {
	v := &BufferView{
		id:       id,
		sels:     []Region{{0, 0}},
		settings: NewSettings(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *BufferView) ID() int { return v.id }

func (v *BufferView) Text() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.text
}

func (v *BufferView) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.text)
}

// SetText replaces the buffer contents and clamps all selections into the
// new bounds.
func (v *BufferView) SetText(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.text = text
	for i, r := range v.sels {
		v.sels[i] = Region{clamp(r.Begin, 0, len(text)), clamp(r.End, 0, len(text))}
	}
}

func (v *BufferView) Line(offset int) Region {
	v.mu.RLock()
	defer v.mu.RUnlock()
	offset = clamp(offset, 0, len(v.text))

	begin := strings.LastIndexByte(v.text[:offset], '\n') + 1
	end := strings.IndexByte(v.text[offset:], '\n')
	if end < 0 {
		end = len(v.text)
	} else {
		end += offset
	}
	return Region{begin, end}
}

func (v *BufferView) Substr(r Region) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	begin := clamp(r.Begin, 0, len(v.text))
	end := clamp(r.End, begin, len(v.text))
	return v.text[begin:end]
}

func (v *BufferView) TextPoint(p Position) int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	offset := 0
	line := 0
	for line < p.Line {
		next := strings.IndexByte(v.text[offset:], '\n')
		if next < 0 {
			// Past the last line: clamp to end of buffer.
			return len(v.text)
		}
		offset += next + 1
		line++
	}

	lineEnd := strings.IndexByte(v.text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(v.text) - offset
	}
	return offset + clamp(p.Character, 0, lineEnd)
}

func (v *BufferView) RowCol(offset int) Position {
	v.mu.RLock()
	defer v.mu.RUnlock()
	offset = clamp(offset, 0, len(v.text))

	before := v.text[:offset]
	line := strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return Position{Line: line, Character: offset - lineStart}
}

func (v *BufferView) Selections() []Region {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sels := make([]Region, len(v.sels))
	copy(sels, v.sels)
	return sels
}

// SetSelections replaces all selections. An empty slice resets to a caret
// at the buffer start.
func (v *BufferView) SetSelections(sels ...Region) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(sels) == 0 {
		sels = []Region{{0, 0}}
	}
	v.sels = make([]Region, len(sels))
	copy(v.sels, sels)
}

// SelectAt places a single caret at the given line/character position.
func (v *BufferView) SelectAt(p Position) {
	offset := v.TextPoint(p)
	v.SetSelections(Region{offset, offset})
}

func (v *BufferView) FilePath() string { return v.path }

func (v *BufferView) FileURI() string {
	if v.path == "" {
		return ""
	}
	return "file://" + filepath.ToSlash(v.path)
}

func (v *BufferView) RelativePath() string {
	if v.path == "" || v.workDir == "" {
		return v.path
	}
	rel, err := filepath.Rel(v.workDir, v.path)
	if err != nil {
		return v.path
	}
	if len(rel) < len(v.path) {
		return rel
	}
	return v.path
}

func (v *BufferView) Syntax() string { return v.syntax }

// SetSyntax updates the language identifier, e.g. after the host editor
// re-detects the file type.
func (v *BufferView) SetSyntax(languageID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.syntax = languageID
}

func (v *BufferView) Settings() *Settings { return v.settings }

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
