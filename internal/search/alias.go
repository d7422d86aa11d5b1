// SPDX-License-Identifier: MPL-2.0

package search

import (
	"errors"
	"fmt"

	"cmdsh/internal/scope"
	"cmdsh/pkg/types"
)

var (
	// ErrAliasCycle is wrapped when an alias chain revisits a name.
	ErrAliasCycle = errors.New("alias cycle detected")

	// ErrAliasUnresolved is wrapped when an alias target name cannot
	// itself be found, or when visibility rules block the chain.
	ErrAliasUnresolved = errors.New("alias target could not be resolved")
)

// AliasError reports a failed alias chain resolution. It is distinct
// from a plain not-found so callers can diagnose alias configuration
// errors separately.
type AliasError struct {
	// Alias is the name resolution started from.
	Alias string
	// Target is the name that broke the chain.
	Target string
	// Err is ErrAliasCycle or ErrAliasUnresolved.
	Err error
}

// Error implements the error interface.
func (e *AliasError) Error() string {
	return fmt.Sprintf("alias %q: target %q: %v", e.Alias, e.Target, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *AliasError) Unwrap() error { return e.Err }

// ResolveAlias follows an alias chain to its terminal non-alias
// descriptor. Each name is visited at most once, so the walk is
// bounded by the number of distinct names encountered; a revisited
// name fails with ErrAliasCycle instead of looping.
//
// A materialized ResolvedTarget is followed directly; otherwise the
// textual Definition is looked up through the scope chain, and the
// result is published on the descriptor for the next resolution.
// The cache is per origin: a target found for an internal caller may
// be a private entry that a runspace caller must not reuse. Descriptors
// are shared across concurrent lookups, so publication is atomic.
//
// Private aliases are followed only for internal-origin resolution;
// for external origins they are skipped, which surfaces as an
// unresolved-alias failure rather than a silent fall-through.
func (s Searcher) ResolveAlias(desc *types.CommandDescriptor, start *scope.Scope, origin types.CommandOrigin) (*types.CommandDescriptor, error) {
	first := desc.Name
	visited := make(map[string]struct{})

	current := desc
	for current.IsAlias() {
		if !current.VisibleTo(origin) {
			return nil, &AliasError{Alias: first, Target: current.Name, Err: ErrAliasUnresolved}
		}

		key := types.FoldName(current.Name)
		if _, seen := visited[key]; seen {
			return nil, &AliasError{Alias: first, Target: current.Name, Err: ErrAliasCycle}
		}
		visited[key] = struct{}{}

		next := current.ResolvedTarget(origin)
		if next == nil {
			if current.Definition == "" {
				return nil, &AliasError{Alias: first, Target: current.Name, Err: ErrAliasUnresolved}
			}
			next = s.Search(current.Definition, start, origin, types.AllKinds)
			if next == nil {
				return nil, &AliasError{Alias: first, Target: current.Definition, Err: ErrAliasUnresolved}
			}
			current.SetResolvedTarget(origin, next)
		}
		current = next
	}

	return current, nil
}
