// SPDX-License-Identifier: MPL-2.0

// Package scope implements the nested scope chain and the per-scope
// command table. Each scope owns one table mapping a case-folded name
// to an ordered descriptor list; inner scopes shadow outer ones during
// search, and within one scope the kind priority order decides which
// entry an unqualified lookup prefers.
package scope

import (
	"sync"

	"cmdsh/pkg/types"
)

// Scope is one level of the nested namespace. Scopes are parent-linked
// and singly owned by the execution context that created them; the
// table itself supports concurrent readers with serialized writers.
type Scope struct {
	parent *Scope

	mu    sync.RWMutex
	table map[string][]*types.CommandDescriptor
}

// NewGlobal creates a root scope with no parent.
func NewGlobal() *Scope {
	return &Scope{table: make(map[string][]*types.CommandDescriptor)}
}

// NewChild creates a scope nested inside parent.
func (s *Scope) NewChild() *Scope {
	return &Scope{
		parent: s,
		table:  make(map[string][]*types.CommandDescriptor),
	}
}

// Parent returns the enclosing scope, or nil for the global scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Global walks up to the root scope.
func (s *Scope) Global() *Scope {
	g := s
	for g.parent != nil {
		g = g.parent
	}
	return g
}

// AddCommand inserts a descriptor into this scope's table. The entry
// list for a name stays ordered by kind priority (lower value first);
// among entries of equal priority the most recently added comes first.
// An existing entry with the same kind and module origin is replaced
// in place rather than duplicated, so re-registering a module's export
// is idempotent. Collisions between different kinds never overwrite.
func (s *Scope) AddCommand(desc *types.CommandDescriptor) {
	key := types.FoldName(desc.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.table[key]
	for i, existing := range old {
		if existing.Kind == desc.Kind && types.SameName(existing.ModuleName, desc.ModuleName) {
			// Copy-on-write so concurrent readers holding the old
			// slice never observe the mutation.
			fresh := make([]*types.CommandDescriptor, len(old))
			copy(fresh, old)
			fresh[i] = desc
			s.table[key] = fresh
			return
		}
	}

	s.table[key] = insertByPriority(old, desc)
}

// AddRehydrated inserts a descriptor recreated from a remote or
// serialized session. Unlike AddCommand it never displaces a local
// mapping: if the name already resolves to an entry of equal or
// higher priority, the rehydrated entry is discarded and false is
// returned.
func (s *Scope) AddRehydrated(desc *types.CommandDescriptor) bool {
	key := types.FoldName(desc.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.table[key]
	if len(old) > 0 && old[0].Kind.LookupPriority() <= desc.Kind.LookupPriority() {
		return false
	}
	s.table[key] = insertByPriority(old, desc)
	return true
}

// insertByPriority returns a new list with desc placed before the
// first existing entry of equal or lower priority. The input list is
// never mutated.
func insertByPriority(old []*types.CommandDescriptor, desc *types.CommandDescriptor) []*types.CommandDescriptor {
	at := len(old)
	for i, existing := range old {
		if desc.Kind.LookupPriority() <= existing.Kind.LookupPriority() {
			at = i
			break
		}
	}
	fresh := make([]*types.CommandDescriptor, 0, len(old)+1)
	fresh = append(fresh, old[:at]...)
	fresh = append(fresh, desc)
	fresh = append(fresh, old[at:]...)
	return fresh
}

// RemoveCommand removes entries for name originating from the given
// module. An empty module removes session-local entries (those with no
// module origin). Removal is keyed by origin, not name alone, because
// several origins may share one name. Returns how many entries were
// removed.
func (s *Scope) RemoveCommand(name, module string) int {
	key := types.FoldName(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.table[key]
	if len(old) == 0 {
		return 0
	}

	fresh := make([]*types.CommandDescriptor, 0, len(old))
	removed := 0
	for _, existing := range old {
		if types.SameName(existing.ModuleName, module) {
			removed++
			continue
		}
		fresh = append(fresh, existing)
	}

	if removed == 0 {
		return 0
	}
	if len(fresh) == 0 {
		delete(s.table, key)
	} else {
		s.table[key] = fresh
	}
	return removed
}

// Lookup returns the ordered descriptor list for name, or nil. The
// returned slice is shared with the table and must not be mutated;
// writers replace slices wholesale, so a caller-held slice stays
// consistent.
func (s *Scope) Lookup(name string) []*types.CommandDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table[types.FoldName(name)]
}

// LookupVisible returns the entries for name that the given origin may
// see, filtered to the allowed kinds, preserving priority order.
func (s *Scope) LookupVisible(name string, origin types.CommandOrigin, kinds types.KindSet) []*types.CommandDescriptor {
	all := s.Lookup(name)
	if len(all) == 0 {
		return nil
	}
	var visible []*types.CommandDescriptor
	for _, d := range all {
		if !kinds.Has(d.Kind) {
			continue
		}
		if !d.VisibleTo(origin) {
			continue
		}
		visible = append(visible, d)
	}
	return visible
}

// Names returns all command names registered in this scope, in no
// guaranteed order.
func (s *Scope) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.table))
	for name := range s.table {
		names = append(names, name)
	}
	return names
}
