package workspace

import (
	"context"
	"sort"

	"rubylens/internal/source"
)

// Bundle is a catalog snapshot: the workspace's files plus the sources
// currently open in an editor. Opened sources shadow their on-disk
// counterparts.
type Bundle struct {
	Workspace *Workspace
	Opened    []*source.Source

	loaded []*source.Source
}

// NewBundle snapshots the workspace's current files together with the
// opened sources.
func NewBundle(ctx context.Context, w *Workspace, opened ...*source.Source) (*Bundle, error) {
	b := &Bundle{Workspace: w, Opened: opened}
	if w != nil {
		loaded, err := w.Sources(ctx)
		if err != nil {
			return nil, err
		}
		b.loaded = loaded
	}
	return b, nil
}

// Sources returns the bundle's effective source set in deterministic
// order, with opened sources replacing same-named loaded ones.
func (b *Bundle) Sources() []*source.Source {
	byName := make(map[string]*source.Source, len(b.loaded)+len(b.Opened))
	for _, s := range b.loaded {
		byName[s.Filename] = s
	}
	for _, s := range b.Opened {
		byName[s.Filename] = s
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*source.Source, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out
}
