// SPDX-License-Identifier: MPL-2.0

// Package search implements the ordered command search over a scope
// chain, plus alias chain resolution. It contains no loading or
// retry logic; the orchestrator in internal/resolve sequences those
// around it.
package search

import (
	"cmdsh/internal/scope"
	"cmdsh/pkg/types"
)

// Searcher walks a scope chain for a command name. The zero value is
// ready to use.
type Searcher struct{}

// Search walks from the innermost scope outward and returns the best
// visible descriptor of an allowed kind, or nil on a miss.
//
// The first scope producing any candidate wins; outer scopes are not
// consulted once an inner match exists. That shadowing is intentional:
// a session-local function hides a module cmdlet of the same name.
// Within one scope, ties between kinds are already broken by the
// table's priority order.
func (Searcher) Search(name string, start *scope.Scope, origin types.CommandOrigin, kinds types.KindSet) *types.CommandDescriptor {
	for s := start; s != nil; s = s.Parent() {
		if candidates := s.LookupVisible(name, origin, kinds); len(candidates) > 0 {
			return candidates[0]
		}
	}
	return nil
}

// SearchAll collects every visible candidate for a name across the
// whole chain, innermost first. Used for diagnostics ("what would have
// been shadowed"), not by resolution itself.
func (Searcher) SearchAll(name string, start *scope.Scope, origin types.CommandOrigin, kinds types.KindSet) []*types.CommandDescriptor {
	var all []*types.CommandDescriptor
	for s := start; s != nil; s = s.Parent() {
		all = append(all, s.LookupVisible(name, origin, kinds)...)
	}
	return all
}
