// Package workspace discovers and loads the analyzable sources under a
// project root, honoring the workspace config and .gitignore, and bundles
// them into catalog snapshots.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"rubylens/internal/source"
)

// Workspace is a project root plus its file-selection rules.
type Workspace struct {
	Root   string
	Config Config

	includes  []glob.Glob
	excludes  []glob.Glob
	gitignore *ignore.GitIgnore
}

// New opens a workspace at root, loading its config and .gitignore.
func New(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	cfg, err := LoadConfig(abs)
	if err != nil {
		return nil, err
	}
	w := &Workspace{Root: abs, Config: cfg}
	if w.includes, err = compileGlobs(cfg.Include); err != nil {
		return nil, err
	}
	if w.excludes, err = compileGlobs(cfg.Exclude); err != nil {
		return nil, err
	}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(abs, ".gitignore")); err == nil {
		w.gitignore = gi
	}
	return w, nil
}

// WouldMap reports whether the workspace's rules select the given path.
func (w *Workspace) WouldMap(path string) bool {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "..") {
		return false
	}
	if w.gitignore != nil && w.gitignore.MatchesPath(rel) {
		return false
	}
	for _, g := range w.excludes {
		if g.Match(rel) {
			return false
		}
	}
	for _, g := range w.includes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Sources loads every selected file under the root. Unreadable and
// oversized files are skipped with a diagnostic, never an error; load
// order is deterministic (sorted by path).
func (w *Workspace) Sources(ctx context.Context) ([]*source.Source, error) {
	var paths []string
	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("workspace.skip", "path", path, "err", err)
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if w.WouldMap(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("workspace: walk %s: %w", w.Root, err)
	}
	sort.Strings(paths)

	sources := make([]*source.Source, len(paths))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if info, err := os.Stat(path); err != nil || info.Size() > w.Config.MaxFileSize {
				slog.Warn("workspace.skip", "path", path, "reason", "unreadable or oversized")
				return nil
			}
			src, err := source.Load(path)
			if err != nil {
				slog.Warn("workspace.skip", "path", path, "err", err)
				return nil
			}
			mu.Lock()
			sources[i] = src
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := sources[:0]
	for _, s := range sources {
		if s != nil {
			out = append(out, s)
		}
	}
	slog.Debug("workspace.load", "root", w.Root, "sources", len(out))
	return out, nil
}

// PathForRequire maps a require string to a workspace file path, checking
// the conventional lib/ layout first. Empty when nothing matches.
func (w *Workspace) PathForRequire(req string) string {
	for _, candidate := range []string{
		filepath.Join(w.Root, "lib", req+".rb"),
		filepath.Join(w.Root, req+".rb"),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
