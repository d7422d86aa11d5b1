// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"cmdsh/internal/pathcache"
	"cmdsh/internal/scope"
	"cmdsh/pkg/types"
)

// Session ties a scope chain, the discovery pipeline and the path
// caches into the surface the hosting execution layer consumes:
// LookupCommandInfo and LookupCommandProcessor.
type Session struct {
	// Global is the root scope of the session.
	Global *scope.Scope
	// Discovery is the resolution pipeline.
	Discovery *Discovery
	// Paths serves the tokenized lookup directories and extensions
	// used for application probing.
	Paths *pathcache.Cache

	// current is the innermost scope; child scopes push onto it.
	current *scope.Scope
}

// NewSession creates a session with the engine's bootstrap commands
// registered in the global scope. The bootstrap commands are the
// narrow, non-recursive path the module loader depends on: because
// they are plain descriptors present before any lookup, resolving
// Import-Module can never itself trigger module auto-loading.
func NewSession(discovery *Discovery, paths *pathcache.Cache) *Session {
	global := scope.NewGlobal()
	s := &Session{
		Global:    global,
		Discovery: discovery,
		Paths:     paths,
		current:   global,
	}
	s.registerBootstrap()
	return s
}

// bootstrap command and alias names registered at session start.
var bootstrapCommands = []struct {
	name  string
	alias string
}{
	{name: "Import-Module", alias: "ipmo"},
	{name: "Get-Module", alias: "gmo"},
	{name: "Get-Command", alias: "gcm"},
}

func (s *Session) registerBootstrap() {
	for _, b := range bootstrapCommands {
		cmd := &types.CommandDescriptor{
			Name:       b.name,
			Kind:       types.KindCmdlet,
			Visibility: types.Public,
		}
		s.Global.AddCommand(cmd)
		alias := &types.CommandDescriptor{
			Name:       b.alias,
			Kind:       types.KindAlias,
			Visibility: types.Public,
			Definition: b.name,
		}
		// Both the cmdlet and its alias are public, so the target can
		// be pre-materialized for either origin.
		alias.SetResolvedTarget(types.OriginInternal, cmd)
		alias.SetResolvedTarget(types.OriginRunspace, cmd)
		s.Global.AddCommand(alias)
	}
}

// CurrentScope returns the innermost scope.
func (s *Session) CurrentScope() *scope.Scope { return s.current }

// PushScope enters a new child scope and returns it.
func (s *Session) PushScope() *scope.Scope {
	s.current = s.current.NewChild()
	return s.current
}

// PopScope leaves the innermost scope. Popping the global scope is a
// no-op.
func (s *Session) PopScope() {
	if s.current.Parent() != nil {
		s.current = s.current.Parent()
	}
}

// LookupCommandInfo resolves a name to its descriptor. When the full
// pipeline misses, the lookup path directories are probed for an
// application or external script of that name before the not-found
// error is surfaced; path probing deliberately lives here, in the
// consumer, not in the path cache.
func (s *Session) LookupCommandInfo(name string, origin types.CommandOrigin) (*types.CommandDescriptor, error) {
	desc, err := s.Discovery.Resolve(name, s.current, origin)
	if err == nil {
		return desc, nil
	}

	var notFound *CommandNotFoundError
	if errors.As(err, &notFound) && s.Paths != nil {
		if app := s.probeApplication(name); app != nil {
			return app, nil
		}
	}
	return nil, err
}

// CommandProcessor is the executable unit handed to the hosting
// execution layer: a resolved descriptor plus the scope its
// invocation will run in.
type CommandProcessor struct {
	Descriptor *types.CommandDescriptor
	// Scope is the invocation scope: a fresh child when the lookup
	// requested a local scope, otherwise the current scope.
	Scope *scope.Scope
}

// LookupCommandProcessor resolves a name and wraps it with its
// invocation scope.
func (s *Session) LookupCommandProcessor(name string, origin types.CommandOrigin, useLocalScope bool) (*CommandProcessor, error) {
	desc, err := s.LookupCommandInfo(name, origin)
	if err != nil {
		return nil, err
	}
	invocationScope := s.current
	if useLocalScope {
		invocationScope = s.current.NewChild()
	}
	return &CommandProcessor{Descriptor: desc, Scope: invocationScope}, nil
}

// probeApplication scans the cached lookup directories for an
// executable file matching name, trying each cached extension when the
// name has none. Relative path entries are resolved against the
// working directory at probe time.
func (s *Session) probeApplication(name string) *types.CommandDescriptor {
	if strings.ContainsRune(name, types.QualifierSeparator) || strings.ContainsRune(name, '/') {
		return nil
	}

	var candidates []string
	if filepath.Ext(name) != "" {
		candidates = []string{name}
	} else {
		for _, ext := range s.Paths.LookupExtensions() {
			candidates = append(candidates, name+ext)
		}
		// Extensionless executables are the norm outside Windows.
		candidates = append(candidates, name)
	}

	for _, entry := range s.Paths.LookupDirectories().Entries() {
		dir := entry.Dir
		if entry.Relative {
			abs, err := filepath.Abs(dir)
			if err != nil {
				continue
			}
			dir = abs
		}
		for _, candidate := range candidates {
			path := filepath.Join(dir, candidate)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			kind := types.KindApplication
			if strings.EqualFold(filepath.Ext(candidate), pathcache.ScriptExtension) {
				kind = types.KindExternalScript
			}
			return &types.CommandDescriptor{
				Name:       name,
				Kind:       kind,
				Visibility: types.Public,
				Path:       path,
			}
		}
	}
	return nil
}
