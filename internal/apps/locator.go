// Package apps discovers installed applications and resolves the short
// names people say ("chrome", "spotify") to something launchable.
package apps

import (
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/afero"
)

// maxSuggestDistance bounds how far a "did you mean" candidate may be from
// the query.
const maxSuggestDistance = 3

type Config struct {
	FS     afero.Fs
	GOOS   string
	Getenv func(string) string

	// ExtraDirs are scanned after the platform roots.
	ExtraDirs []string
	// Aliases map a spoken name to a path. They are applied last and win.
	Aliases map[string]string

	Logger *slog.Logger
}

// Index maps lowercase display names to launch paths. It is read-only once
// Build returns, so concurrent Find calls need no locking.
type Index struct {
	paths map[string]string
	order []string
}

func newIndex() *Index {
	return &Index{paths: make(map[string]string)}
}

// put inserts or overwrites a key. An overwritten key keeps its original
// position in the iteration order.
func (ix *Index) put(name, path string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	if _, ok := ix.paths[name]; !ok {
		ix.order = append(ix.order, name)
	}
	ix.paths[name] = path
}

func (ix *Index) Len() int { return len(ix.order) }

// Names returns the keys in iteration order.
func (ix *Index) Names() []string {
	return append([]string(nil), ix.order...)
}

// Path returns the path stored under an exact key.
func (ix *Index) Path(name string) (string, bool) {
	p, ok := ix.paths[name]
	return p, ok
}

// Find resolves a query: exact key first, then the first key (in scan
// order) containing the query.
func (ix *Index) Find(query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}

	if p, ok := ix.paths[q]; ok {
		return p, true
	}

	for _, name := range ix.order {
		if strings.Contains(name, q) {
			return ix.paths[name], true
		}
	}

	return "", false
}

// Suggest returns the closest known name for a query Find could not
// resolve. It is only used to enrich the not-found warning.
func (ix *Index) Suggest(query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}

	best, bestDist := "", maxSuggestDistance+1
	for _, name := range ix.order {
		d := levenshtein.ComputeDistance(q, name)
		if d < bestDist {
			best, bestDist = name, d
		}
	}

	if best == "" || bestDist >= len(q) {
		return "", false
	}
	return best, true
}

// Build scans the platform's application directories. Missing directories
// are skipped. When no standard root can be derived from the environment
// the index only holds extra dirs and aliases, and a warning is logged.
func Build(cfg Config) *Index {
	cfg = withDefaults(cfg)
	log := cfg.Logger

	layout := layoutFor(cfg.GOOS)
	roots := layout.roots(cfg.Getenv)
	if len(roots) == 0 {
		log.Warn("Could not find standard application directories", "os", cfg.GOOS)
	}

	ix := newIndex()
	for _, dir := range append(roots, cfg.ExtraDirs...) {
		scanDir(cfg.FS, dir, layout.exts, ix, log)
	}

	// sorted so substring matches among aliases are stable
	for _, name := range slices.Sorted(maps.Keys(cfg.Aliases)) {
		ix.put(name, cfg.Aliases[name])
	}

	log.Info("Application index built", "apps", ix.Len(), "roots", len(roots))
	return ix
}

func withDefaults(cfg Config) Config {
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	if cfg.GOOS == "" {
		cfg.GOOS = runtime.GOOS
	}
	if cfg.Getenv == nil {
		cfg.Getenv = os.Getenv
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

func scanDir(fsys afero.Fs, dir string, exts map[string]bool, ix *Index, log *slog.Logger) {
	ok, err := afero.DirExists(fsys, dir)
	if err != nil || !ok {
		log.Debug("Skipping application dir", "dir", dir)
		return
	}

	found := 0
	err = afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			log.Debug("Unreadable entry", "path", path, "err", err)
			return nil
		}
		if path == dir {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(info.Name()))
		if !exts[ext] {
			return nil
		}

		ix.put(strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())), path)
		found++

		// macOS bundles are directories; their contents are not apps.
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		log.Warn("Failed to scan application dir", "dir", dir, "err", err)
	}

	log.Debug("Scanned application dir", "dir", dir, "found", found)
}
