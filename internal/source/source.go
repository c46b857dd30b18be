// Package source models one analyzable file: its text, its syntax tree,
// and its synchronization state. A synchronized source exposes pins via
// its source map; a staged (unsynchronized) source exposes only text.
package source

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/zeebo/xxh3"

	"rubylens/internal/parser"
)

// Source is an immutable snapshot of one file. Edits produce new Sources.
type Source struct {
	Filename string
	Text     string
	Version  int

	tree    *sitter.Tree
	synced  bool
	pending []Change
	hash    uint64
	sm      *parser.SourceMap
}

// New parses text and returns a synchronized source. Unparseable text
// still yields a synchronized source; tree-sitter represents the broken
// stretches as error nodes and the map contributes whatever it can.
func New(text, filename string) *Source {
	s := &Source{
		Filename: filename,
		Text:     text,
		Version:  1,
		synced:   true,
		hash:     xxh3.HashString(text),
	}
	if tree, err := parser.Parse(context.Background(), []byte(text)); err == nil {
		s.tree = tree
	}
	return s
}

// Load reads and parses the file at path.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: load %s: %w", path, err)
	}
	return New(string(data), path), nil
}

// Synchronized reports whether the source's tree matches its text. Only
// synchronized sources contribute pins.
func (s *Source) Synchronized() bool { return s.synced }

// Hash is the content hash of the source text.
func (s *Source) Hash() uint64 { return s.hash }

// Tree returns the syntax tree, nil for staged sources.
func (s *Source) Tree() *sitter.Tree {
	if !s.synced {
		return nil
	}
	return s.tree
}

// Map returns the source's pin map, built on first use. Staged sources
// have no map.
func (s *Source) Map() *parser.SourceMap {
	if !s.synced {
		return nil
	}
	if s.sm == nil {
		s.sm = parser.MapSource(s.Filename, []byte(s.Text), s.tree)
	}
	return s.sm
}

// Pending returns the staged edits of an unsynchronized source.
func (s *Source) Pending() []Change { return s.pending }
