// SPDX-License-Identifier: MPL-2.0

// Package watch monitors module roots for on-disk changes.
//
// It watches the module root directories and the module directories
// under them, coalesces filesystem events over a debounce window, and
// invokes a callback with the set of changed module directories. The
// export index uses this to invalidate stale entries without polling.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cmdsh/pkg/modfile"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the delay before firing the callback after the
// last filesystem event. Rapid successive events (an editor writing
// then renaming a temp file) coalesce into a single callback.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores lists path patterns that never count as module
// changes: VCS metadata, editor swap files, and OS metadata files.
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the module root directories to monitor, in the
		// same order the resolution engine scans them. Missing roots
		// are skipped; they may be created later.
		Roots []string

		// Ignore are additional doublestar-compatible glob patterns
		// for paths that should never trigger the callback. Merged
		// with the built-in defaults.
		Ignore []string

		// Debounce is the quiet period after the last event before the
		// callback fires. Zero or negative values fall back to
		// defaultDebounce.
		Debounce time.Duration

		// OnModuleChange is called after the debounce window closes
		// with the deduplicated list of changed module directories.
		// A nil callback is a no-op.
		OnModuleChange func(ctx context.Context, moduleDirs []string) error

		// Stderr is the writer for informational and error messages.
		// nil defaults to os.Stderr.
		Stderr io.Writer
	}

	// Watcher monitors module roots and fires a debounced callback when
	// modules under them change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		roots    []string
		ignores  []string
		stderr   io.Writer
		debounce time.Duration
		started  atomic.Bool
	}
)

// New creates a Watcher from the given Config. It resolves the roots
// to absolute paths and registers every existing root and module
// directory with the underlying fsnotify watcher.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("watch: no module roots configured")
	}

	if err := validatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	roots := make([]string, 0, len(cfg.Roots))
	for _, root := range cfg.Roots {
		abs, absErr := filepath.Abs(root)
		if absErr != nil {
			fsw.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("watch: resolve root %q: %w", root, absErr)
		}
		roots = append(roots, abs)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		roots:    roots,
		ignores:  ignores,
		stderr:   stderr,
		debounce: debounce,
	}

	if err := w.addRoots(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			fmt.Fprintf(stderr, "watch: close after init failure: %v\n", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on clean context
// cancellation and propagates fatal watcher errors. Run must be called
// exactly once; a second call returns an error immediately.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)

	// fire drains the pending set and invokes the callback. It may be
	// scheduled by time.AfterFunc after the context is cancelled, so
	// check ctx.Err() as a best-effort guard.
	fire := func() {
		if ctx.Err() != nil {
			return
		}

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnModuleChange != nil {
			if err := w.cfg.OnModuleChange(ctx, changed); err != nil {
				fmt.Fprintf(w.stderr, "watch: callback error: %v\n", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil && !localTimer.Stop() {
			select {
			case <-localTimer.C:
			default:
			}
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			fmt.Fprintf(w.stderr, "watch: close fsnotify: %v\n", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			if w.isIgnored(evt.Name) {
				continue
			}

			// Module directories created after startup must join the
			// watch set before their content events can be seen.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			moduleDir, ok := w.moduleDirFor(evt.Name)
			if !ok {
				continue
			}

			mu.Lock()
			pending[moduleDir] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: fsnotify error: %v\n", err)
		}
	}
}

// addRoots registers every existing root and the module directories
// directly under it. Missing roots are skipped; inaccessible module
// directories are reported and skipped.
func (w *Watcher) addRoots() error {
	for _, root := range w.roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := w.fsw.Add(root); err != nil {
			return fmt.Errorf("watch: add root %q: %w", root, err)
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			fmt.Fprintf(w.stderr, "watch: skipping unreadable root %q: %v\n", root, err)
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || !strings.HasSuffix(entry.Name(), modfile.ModuleSuffix) {
				continue
			}
			dir := filepath.Join(root, entry.Name())
			if err := w.fsw.Add(dir); err != nil {
				fmt.Fprintf(w.stderr, "watch: skipping module directory %q: %v\n", dir, err)
			}
		}
	}
	return nil
}

// maybeAddDir adds path to the fsnotify watcher when it is a freshly
// created module directory under one of the roots.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if moduleDir, ok := w.moduleDirFor(path); !ok || moduleDir != path {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		fmt.Fprintf(w.stderr, "watch: add new module directory %q: %v\n", path, err)
	}
}

// moduleDirFor maps an event path to the module directory that owns
// it: the first path component below a root carrying the module
// suffix. Events on the roots themselves or on non-module entries
// report no owner.
func (w *Watcher) moduleDirFor(path string) (string, bool) {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
		if strings.HasSuffix(first, modfile.ModuleSuffix) {
			return filepath.Join(root, first), true
		}
	}
	return "", false
}

// isIgnored reports whether the event path matches an ignore pattern.
// Matching is done against the path relative to its root, normalised
// to forward slashes.
func (w *Watcher) isIgnored(path string) bool {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		normalized := filepath.ToSlash(rel)
		for _, pat := range w.ignores {
			if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
				return true
			}
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	out := make([]string, len(defaultIgnores))
	copy(out, defaultIgnores)
	return out
}

// validatePatterns checks that every ignore pattern is a valid
// doublestar glob, so invalid globs fail at construction time rather
// than silently failing to match.
func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("watch: invalid ignore pattern %q: %w", pat, err)
		}
	}
	return nil
}
