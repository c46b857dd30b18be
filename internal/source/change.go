package source

import (
	"context"
	"strings"

	"github.com/zeebo/xxh3"

	"rubylens/internal/parser"
	"rubylens/internal/pin"
)

// Change is one text edit: replace the given range with NewText. A zero
// Range with Full set replaces the whole document.
type Change struct {
	Range   pin.Range
	NewText string
	Full    bool
}

// Updater carries a batch of edits toward a new source version.
type Updater struct {
	Filename string
	Version  int
	Changes  []Change
}

// Apply produces the edited text.
func (u Updater) Apply(text string) string {
	for _, c := range u.Changes {
		if c.Full {
			text = c.NewText
			continue
		}
		start := offsetOf(text, c.Range.Start)
		end := offsetOf(text, c.Range.End)
		if start < 0 || end < 0 || end < start {
			continue
		}
		text = text[:start] + c.NewText + text[end:]
	}
	return text
}

// Stage applies the updater's edits without reparsing, returning an
// unsynchronized source: raw text plus the pending edits, no tree and no
// pins. Queries keep answering from the last synchronized state.
func (s *Source) Stage(u Updater) *Source {
	text := u.Apply(s.Text)
	return &Source{
		Filename: s.Filename,
		Text:     text,
		Version:  u.Version,
		synced:   false,
		pending:  append(append([]Change(nil), s.pending...), u.Changes...),
		hash:     xxh3.HashString(text),
	}
}

// Synchronize applies the updater's edits and reparses, returning a fully
// synchronized source.
func (s *Source) Synchronize(u Updater) *Source {
	text := u.Apply(s.Text)
	next := &Source{
		Filename: s.Filename,
		Text:     text,
		Version:  u.Version,
		synced:   true,
		hash:     xxh3.HashString(text),
	}
	if tree, err := parser.Parse(context.Background(), []byte(text)); err == nil {
		next.tree = tree
	}
	return next
}

// offsetOf converts a line/column position to a byte offset, -1 when the
// position lies outside the text.
func offsetOf(text string, pos pin.Position) int {
	if pos.Line == 0 && pos.Column == 0 {
		return 0
	}
	line := 0
	for i := 0; i <= len(text); i++ {
		if line == pos.Line {
			off := i + pos.Column
			rest := text[i:]
			if nl := strings.IndexByte(rest, '\n'); nl >= 0 && pos.Column > nl {
				return -1
			}
			if off > len(text) {
				return -1
			}
			return off
		}
		if i < len(text) && text[i] == '\n' {
			line++
		}
	}
	return -1
}
