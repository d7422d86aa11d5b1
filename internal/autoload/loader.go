// SPDX-License-Identifier: MPL-2.0

// Package autoload implements on-demand module loading: the qualified
// fast path (the requested name carries its module) and the
// unqualified discovery fallback (scan the export index of every
// available module and load only the first one that exports the name).
//
// Loading is the expensive step, so both strategies are built to avoid
// it: the fast path checks the already-loaded set first, and discovery
// consults the export index instead of loading candidates. No cache
// lock is held while a load runs; results are published afterwards.
package autoload

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"cmdsh/internal/exportindex"
	"cmdsh/internal/scope"
	"cmdsh/pkg/modfile"
	"cmdsh/pkg/types"

	"github.com/charmbracelet/log"
)

// Preference is the module auto-loading preference. It gates which
// strategies the orchestrator may use.
type Preference int

const (
	// PreferenceNone disables auto-loading entirely.
	PreferenceNone Preference = iota
	// PreferenceQualified allows only the module-qualified fast path.
	PreferenceQualified
	// PreferenceAll additionally allows unqualified discovery scanning.
	PreferenceAll
)

// String returns the preference name as written in config files.
func (p Preference) String() string {
	switch p {
	case PreferenceNone:
		return "none"
	case PreferenceQualified:
		return "qualified"
	case PreferenceAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParsePreference parses a config preference value.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return PreferenceNone, nil
	case "qualified":
		return PreferenceQualified, nil
	case "", "all":
		return PreferenceAll, nil
	default:
		return 0, fmt.Errorf("invalid module_autoload preference %q (expected: none, qualified, all)", s)
	}
}

var (
	// ErrModuleNotFound is wrapped when no module matches the
	// requested identity.
	ErrModuleNotFound = errors.New("module not found")

	// ErrNoExports is wrapped when a module loads successfully but
	// exports no commands.
	ErrNoExports = errors.New("module exports no commands")

	// ErrVersionMismatch is wrapped when a qualified name pinned a
	// version the found module does not satisfy.
	ErrVersionMismatch = errors.New("module version mismatch")
)

// ModuleLoadError reports that a candidate module was identified but
// could not be turned into usable commands.
type ModuleLoadError struct {
	// Module is the module name or path that failed.
	Module string
	// Err is the underlying loader failure.
	Err error
}

// Error implements the error interface.
func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("failed to load module %q: %v", e.Module, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ModuleLoadError) Unwrap() error { return e.Err }

// ModuleImporter is the loading collaborator. Implementations locate
// the module for nameOrPath, load it, and register its exported
// descriptors into the target scope.
type ModuleImporter interface {
	ImportModule(nameOrPath string, target *scope.Scope) (*modfile.Module, error)
}

// Loader coordinates both auto-load strategies over a shared
// loaded-module set.
type Loader struct {
	index    *exportindex.Index
	importer ModuleImporter
	// roots returns the module roots in priority order; callers place
	// the system root first so trusted built-ins win discovery ties.
	roots  func() []string
	logger *log.Logger

	mu     sync.Mutex
	loaded map[string]*modfile.Module
}

// New creates a loader.
func New(index *exportindex.Index, importer ModuleImporter, roots func() []string) *Loader {
	return &Loader{
		index:    index,
		importer: importer,
		roots:    roots,
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "autoload"}),
		loaded:   make(map[string]*modfile.Module),
	}
}

// SetLogger replaces the loader's logger.
func (l *Loader) SetLogger(logger *log.Logger) { l.logger = logger }

// Loaded returns the already-loaded module with the given name, or nil.
func (l *Loader) Loaded(name string) *modfile.Module {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded[types.FoldName(name)]
}

// LoadedModules returns every loaded module, in no guaranteed order.
func (l *Loader) LoadedModules() []*modfile.Module {
	l.mu.Lock()
	defer l.mu.Unlock()
	mods := make([]*modfile.Module, 0, len(l.loaded))
	for _, m := range l.loaded {
		mods = append(mods, m)
	}
	return mods
}

// LoadQualified is the module-qualified fast path: ensure the module
// named by the qualifier is loaded, loading it on demand. A version
// token in the qualified name must match the loaded module exactly.
// Failures surface as *ModuleLoadError; they are never swallowed.
func (l *Loader) LoadQualified(q types.QualifiedName, target *scope.Scope) (*modfile.Module, error) {
	if !q.IsQualified() {
		return nil, &ModuleLoadError{Module: q.Command, Err: ErrModuleNotFound}
	}

	if mod := l.Loaded(q.Module); mod != nil {
		if err := checkVersion(mod, q.Version); err != nil {
			return nil, &ModuleLoadError{Module: q.Module, Err: err}
		}
		return mod, nil
	}

	l.logger.Debug("loading module for qualified name", "module", q.Module, "command", q.Command)

	// The import runs without any loader lock held: module loading is
	// slow (disk, manifest parsing, body validation).
	mod, err := l.importer.ImportModule(q.Module, target)
	if err != nil {
		return nil, &ModuleLoadError{Module: q.Module, Err: err}
	}
	if err := checkVersion(mod, q.Version); err != nil {
		return nil, &ModuleLoadError{Module: q.Module, Err: err}
	}

	return l.publish(mod), nil
}

// DiscoverForCommand is the unqualified fallback: walk every available
// module, consult the export index without loading, and load only the
// first module whose export set contains the command name. Returns
// (nil, nil) when no module exports the name. Index errors on
// individual candidates are recorded and scanning continues; they are
// returned as context only if nothing else matched.
func (l *Loader) DiscoverForCommand(name string, target *scope.Scope) (*modfile.Module, error) {
	key := types.FoldName(name)
	var lastErr error

	for _, dir := range modfile.DiscoverModules(l.roots()) {
		if l.isLoadedPath(dir) {
			continue
		}

		exports, err := l.index.ExportedCommands(dir, false)
		if err != nil {
			l.logger.Debug("skipping unindexable module", "dir", dir, "error", err)
			lastErr = err
			continue
		}
		if _, ok := exports[key]; !ok {
			continue
		}

		l.logger.Debug("discovered module for command", "command", name, "dir", dir)

		mod, err := l.importer.ImportModule(dir, target)
		if err != nil {
			return nil, &ModuleLoadError{Module: dir, Err: err}
		}
		return l.publish(mod), nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no module exports %q (last scan error: %w)", name, lastErr)
	}
	return nil, nil
}

// publish records a loaded module, keeping the first load when two
// contexts raced on the same module name.
func (l *Loader) publish(mod *modfile.Module) *modfile.Module {
	key := types.FoldName(mod.Name())

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.loaded[key]; ok {
		return existing
	}
	l.loaded[key] = mod
	return mod
}

func (l *Loader) isLoadedPath(dir string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.loaded {
		if m.Path == dir {
			return true
		}
	}
	return false
}

func checkVersion(mod *modfile.Module, version string) error {
	if version == "" || mod.Version() == version {
		return nil
	}
	return fmt.Errorf("%w: requested %s, found %s", ErrVersionMismatch, version, mod.Version())
}
