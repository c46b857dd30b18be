package rubylens

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"rubylens/internal/core"
	"rubylens/internal/libcache"
	"rubylens/internal/parser"
	"rubylens/internal/pin"
	"rubylens/internal/source"
	"rubylens/internal/store"
	"rubylens/internal/workspace"
)

// ApiMap is the resolution façade. It owns two stores: the process-wide
// core store of built-in declarations, which is never invalidated, and a
// workspace store that is replaced wholesale whenever the workspace pin
// set changes identity. Queries are read-only and safe for concurrent
// use; ingestion serializes internally and publishes each rebuilt store
// with a single atomic swap.
type ApiMap struct {
	core *store.Store
	ws   atomic.Pointer[store.Store]

	mu         sync.Mutex
	maps       map[string]*parser.SourceMap
	libs       map[string][]*pin.Pin
	unresolved []string

	cache *libcache.Cache
}

// Option configures an ApiMap.
type Option func(*ApiMap)

// WithLibraryCache supplies a pin cache for required libraries that live
// outside the workspace. Without it, such requires are reported as
// unresolved.
func WithLibraryCache(c *libcache.Cache) Option {
	return func(a *ApiMap) { a.cache = c }
}

// New creates an ApiMap holding only the core pins.
func New(opts ...Option) *ApiMap {
	a := &ApiMap{
		core: core.Store(),
		maps: make(map[string]*parser.SourceMap),
		libs: make(map[string][]*pin.Pin),
	}
	a.ws.Store(store.New(nil))
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// stores returns the query order: core first, workspace last, so the
// most recently indexed pin wins single-valued lookups.
func (a *ApiMap) stores() [2]*store.Store {
	return [2]*store.Store{a.core, a.ws.Load()}
}

// StoreVersion is the workspace store's generation counter. It changes
// exactly when a rebuild happened.
func (a *ApiMap) StoreVersion() uint64 { return a.ws.Load().Version() }

// Index replaces the workspace pin set. Identical pin sets (by content
// identity) keep the current store untouched.
func (a *ApiMap) Index(pins []*pin.Pin) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.swapIfChanged(pins)
}

// Map indexes a single source, replacing any pins previously keyed to
// its filename. An unsynchronized source leaves the ApiMap unchanged;
// pins are never derived from staged text.
func (a *ApiMap) Map(src *source.Source) {
	if !src.Synchronized() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maps[src.Filename] = src.Map()
	a.rebuildLocked()
}

// Catalog replaces the tracked pin set to match the bundle snapshot: the
// bundle's sources, everything reachable through their requires, and
// nothing else. Sources staged mid-edit keep their last synchronized
// pins. Requires that match neither a workspace file nor the library
// cache are recorded for UnresolvedRequires.
func (a *ApiMap) Catalog(bundle *workspace.Bundle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.maps
	next := make(map[string]*parser.SourceMap)
	var pendingReqs []string
	for _, src := range bundle.Sources() {
		if !src.Synchronized() {
			if sm, ok := prev[src.Filename]; ok {
				next[src.Filename] = sm
			}
			continue
		}
		sm := src.Map()
		next[src.Filename] = sm
		for _, rp := range sm.RequirePins() {
			pendingReqs = append(pendingReqs, rp.Name)
		}
	}

	libs := make(map[string][]*pin.Pin)
	var unresolved []string
	seen := make(map[string]bool)
	for len(pendingReqs) > 0 {
		req := pendingReqs[0]
		pendingReqs = pendingReqs[1:]
		if seen[req] {
			continue
		}
		seen[req] = true

		if w := bundle.Workspace; w != nil {
			if path := w.PathForRequire(req); path != "" {
				if _, ok := next[path]; ok {
					continue
				}
				src, err := source.Load(path)
				if err != nil {
					slog.Warn("apimap.require.skip", "require", req, "err", err)
					continue
				}
				sm := src.Map()
				next[path] = sm
				for _, rp := range sm.RequirePins() {
					pendingReqs = append(pendingReqs, rp.Name)
				}
				continue
			}
		}
		if a.cache != nil {
			pins, err := a.cache.Load(req)
			if err != nil {
				return fmt.Errorf("rubylens: load cached library %s: %w", req, err)
			}
			if len(pins) > 0 {
				libs[req] = pins
				continue
			}
		}
		unresolved = append(unresolved, req)
	}
	sort.Strings(unresolved)

	a.maps = next
	a.libs = libs
	a.unresolved = unresolved
	a.rebuildLocked()
	return nil
}

// UnresolvedRequires returns require names from the last catalog that
// matched no known source, for diagnostic reporting.
func (a *ApiMap) UnresolvedRequires() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.unresolved))
	copy(out, a.unresolved)
	return out
}

// rebuildLocked folds the current source maps and cached libraries into
// a flat pin set and swaps the workspace store if the set changed.
// Caller holds a.mu.
func (a *ApiMap) rebuildLocked() {
	files := make([]string, 0, len(a.maps))
	for f := range a.maps {
		files = append(files, f)
	}
	sort.Strings(files)

	var pins []*pin.Pin
	for _, f := range files {
		pins = append(pins, a.maps[f].Pins...)
	}
	libs := make([]string, 0, len(a.libs))
	for l := range a.libs {
		libs = append(libs, l)
	}
	sort.Strings(libs)
	for _, l := range libs {
		pins = append(pins, a.libs[l]...)
	}
	a.swapIfChanged(pins)
}

func (a *ApiMap) swapIfChanged(pins []*pin.Pin) {
	if store.Identity(pins) == a.ws.Load().IdentityHash() {
		return
	}
	a.ws.Store(store.New(pins))
	slog.Debug("apimap.rebuild", "pins", len(pins), "version", a.ws.Load().Version())
}
