// SPDX-License-Identifier: MPL-2.0

// Package resolve sequences command resolution: pre-lookup hook,
// direct scope search, Get- verb retry, module-qualified auto-load,
// unqualified module discovery, and the not-found hook, in that fixed
// order. Lower-level errors met along the way are retained as context
// on the final not-found failure instead of aborting the pipeline;
// alias chain failures are the exception and surface immediately as
// their own error kind.
package resolve

import (
	"os"
	"sync"

	"cmdsh/internal/autoload"
	"cmdsh/internal/scope"
	"cmdsh/internal/search"
	"cmdsh/pkg/types"

	"github.com/charmbracelet/log"
)

// Phase identifies a tracked discovery phase for re-entrancy guarding.
type Phase int

const (
	// PhasePreLookup covers the pre-lookup hook.
	PhasePreLookup Phase = iota
	// PhaseModuleSearch covers both auto-load strategies.
	PhaseModuleSearch
	// PhaseCommandNotFound covers the not-found hook.
	PhaseCommandNotFound
	// PhasePostCommand covers the post-lookup hook.
	PhasePostCommand
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhasePreLookup:
		return "pre-lookup"
	case PhaseModuleSearch:
		return "module-search"
	case PhaseCommandNotFound:
		return "command-not-found"
	case PhasePostCommand:
		return "post-command"
	default:
		return "unknown"
	}
}

type activeKey struct {
	phase Phase
	name  string
}

// Discovery is the command resolution orchestrator.
type Discovery struct {
	searcher   search.Searcher
	loader     *autoload.Loader
	preference func() autoload.Preference
	logger     *log.Logger

	hookMu     sync.RWMutex
	preLookup  Hook
	postLookup Hook
	notFound   Hook

	activeMu sync.Mutex
	active   map[activeKey]struct{}
}

// New creates a Discovery over the given loader. preference is read
// per resolution so config changes take effect without rebuilding the
// engine; nil means PreferenceAll.
func New(loader *autoload.Loader, preference func() autoload.Preference) *Discovery {
	if preference == nil {
		preference = func() autoload.Preference { return autoload.PreferenceAll }
	}
	return &Discovery{
		loader:     loader,
		preference: preference,
		logger:     log.NewWithOptions(os.Stderr, log.Options{Prefix: "resolve"}),
		active:     make(map[activeKey]struct{}),
	}
}

// SetLogger replaces the orchestrator's logger.
func (d *Discovery) SetLogger(logger *log.Logger) { d.logger = logger }

// enter marks a phase active for a name, failing fast when the same
// phase is already active for that name. The guard is what keeps a
// hook that calls back into discovery for its own name from recursing
// forever.
func (d *Discovery) enter(phase Phase, name string) error {
	key := activeKey{phase: phase, name: types.FoldName(name)}
	d.activeMu.Lock()
	defer d.activeMu.Unlock()
	if _, busy := d.active[key]; busy {
		return &ReentrancyError{Phase: phase, Name: name}
	}
	d.active[key] = struct{}{}
	return nil
}

func (d *Discovery) exit(phase Phase, name string) {
	key := activeKey{phase: phase, name: types.FoldName(name)}
	d.activeMu.Lock()
	defer d.activeMu.Unlock()
	delete(d.active, key)
}

// Resolve turns a raw command name into a descriptor, or fails with a
// typed error: *CommandNotFoundError after exhausting every phase,
// *search.AliasError for broken alias chains, *ReentrancyError for
// guard violations.
func (d *Discovery) Resolve(name string, start *scope.Scope, origin types.CommandOrigin) (*types.CommandDescriptor, error) {
	desc, err := d.resolve(name, start, origin)
	if err != nil {
		return nil, err
	}

	// The post-lookup hook runs unconditionally after a successful
	// resolution and may replace the result, including clearing it.
	if h := d.hook(PhasePostCommand); h != nil {
		if err := d.enter(PhasePostCommand, name); err != nil {
			return nil, err
		}
		result := d.runHook(h, name, origin)
		d.exit(PhasePostCommand, name)

		switch result.Outcome {
		case HookResolved:
			if result.Descriptor == nil {
				return nil, &CommandNotFoundError{Name: name}
			}
			desc = result.Descriptor
		case HookStopFailure:
			return nil, &CommandNotFoundError{Name: name}
		}
	}

	return desc, nil
}

func (d *Discovery) resolve(name string, start *scope.Scope, origin types.CommandOrigin) (*types.CommandDescriptor, error) {
	// Phase: pre-lookup hook.
	if h := d.hook(PhasePreLookup); h != nil {
		if err := d.enter(PhasePreLookup, name); err != nil {
			return nil, err
		}
		result := d.runHook(h, name, origin)
		d.exit(PhasePreLookup, name)

		switch result.Outcome {
		case HookResolved:
			if result.Descriptor == nil {
				return nil, &CommandNotFoundError{Name: name}
			}
			return result.Descriptor, nil
		case HookStopFailure:
			return nil, &CommandNotFoundError{Name: name}
		}
	}

	// Phase: direct search.
	if desc, err := d.searchAndChase(name, start, origin); desc != nil || err != nil {
		return desc, err
	}

	// Phase: verb prefix retry. A name with neither a verb-noun
	// separator nor a module qualifier gets one extra direct search as
	// "Get-<name>", supporting the noun-only shorthand.
	if types.EligibleForVerbRetry(name) {
		retry := "Get-" + name
		d.logger.Debug("direct search missed, retrying with verb prefix", "command", name, "retry", retry)
		if desc, err := d.searchAndChase(retry, start, origin); desc != nil || err != nil {
			return desc, err
		}
	}

	// The last underlying error is carried as context on the final
	// not-found, never surfaced on its own.
	var lastErr error

	q := types.ParseQualifiedName(name)
	pref := d.preference()

	switch {
	case q.IsQualified() && pref != autoload.PreferenceNone:
		// Phase: module-qualified load. Never falls through to
		// unqualified discovery scanning, whatever the preference.
		desc, err := d.qualifiedLoad(q, start, origin)
		if desc != nil {
			return desc, nil
		}
		if _, fatal := err.(*ReentrancyError); fatal {
			return nil, err
		}
		lastErr = err

	case !q.IsQualified() && pref == autoload.PreferenceAll:
		// Phase: unqualified discovery.
		desc, err := d.unqualifiedDiscovery(name, start, origin)
		if desc != nil {
			return desc, nil
		}
		if _, fatal := err.(*ReentrancyError); fatal {
			return nil, err
		}
		lastErr = err
	}

	// Phase: not-found hook.
	if h := d.hook(PhaseCommandNotFound); h != nil {
		if err := d.enter(PhaseCommandNotFound, name); err != nil {
			return nil, err
		}
		result := d.runHook(h, name, origin)
		d.exit(PhaseCommandNotFound, name)

		if result.Outcome == HookResolved && result.Descriptor != nil {
			return result.Descriptor, nil
		}
	}

	return nil, &CommandNotFoundError{Name: name, Err: lastErr}
}

// searchAndChase runs the direct scope search and, when it lands on an
// alias, chases the chain to materialize its target. The alias
// descriptor itself is returned so callers keep the invoked identity;
// a broken chain is a distinct hard failure, not a miss.
func (d *Discovery) searchAndChase(name string, start *scope.Scope, origin types.CommandOrigin) (*types.CommandDescriptor, error) {
	desc := d.searcher.Search(name, start, origin, types.AllKinds)
	if desc == nil {
		return nil, nil
	}
	if desc.IsAlias() {
		if _, err := d.searcher.ResolveAlias(desc, start, origin); err != nil {
			return nil, err
		}
	}
	return desc, nil
}

func (d *Discovery) qualifiedLoad(q types.QualifiedName, start *scope.Scope, origin types.CommandOrigin) (*types.CommandDescriptor, error) {
	if err := d.enter(PhaseModuleSearch, q.String()); err != nil {
		return nil, err
	}
	defer d.exit(PhaseModuleSearch, q.String())

	mod, err := d.loader.LoadQualified(q, start)
	if err != nil {
		d.logger.Debug("qualified module load failed", "module", q.Module, "error", err)
		return nil, err
	}

	// Re-run the search restricted to the freshly loaded module's
	// exports: only candidates originating from that module count.
	for _, desc := range d.searcher.SearchAll(q.Command, start, origin, types.AllKinds) {
		if !types.SameName(desc.ModuleName, mod.Name()) {
			continue
		}
		if desc.IsAlias() {
			if _, err := d.searcher.ResolveAlias(desc, start, origin); err != nil {
				return nil, err
			}
		}
		return desc, nil
	}
	return nil, nil
}

func (d *Discovery) unqualifiedDiscovery(name string, start *scope.Scope, origin types.CommandOrigin) (*types.CommandDescriptor, error) {
	if err := d.enter(PhaseModuleSearch, name); err != nil {
		return nil, err
	}
	defer d.exit(PhaseModuleSearch, name)

	mod, err := d.loader.DiscoverForCommand(name, start)
	if err != nil {
		d.logger.Debug("unqualified module discovery failed", "command", name, "error", err)
		return nil, err
	}
	if mod == nil {
		return nil, nil
	}
	return d.searchAndChase(name, start, origin)
}
