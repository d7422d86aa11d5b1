// SPDX-License-Identifier: MPL-2.0

package types

import (
	"strings"
	"sync/atomic"
)

type (
	// Visibility controls whether a descriptor can be seen by callers
	// outside the defining session.
	Visibility int

	// CommandOrigin identifies who is asking for a command. Lookups made
	// by the engine itself (Internal) may see Private descriptors;
	// lookups made on behalf of an external caller (Runspace) may not.
	CommandOrigin int

	// CommandDescriptor is the resolved identity of an invocable
	// command: its name, kind, visibility, and where it came from.
	// It stands alone for cmdlets, functions and applications; for
	// aliases it additionally carries the unresolved textual target
	// (Definition) and, once resolution has run at least once, a direct
	// reference to the target descriptor (see ResolvedTarget).
	CommandDescriptor struct {
		// Name is the invocation name, compared case-insensitively.
		Name string
		// Kind tags which executable variant this descriptor is.
		Kind CommandKind
		// Visibility is Public unless the defining scope hid the entry.
		Visibility Visibility
		// ModuleName names the module that exported this command, or ""
		// for session-local and built-in entries.
		ModuleName string
		// ModulePath is the filesystem path of the exporting module
		// directory, when known.
		ModulePath string
		// Definition holds the alias target text (aliases) or the
		// function body (functions, filters, scripts).
		Definition string
		// Path locates external scripts and applications on disk.
		Path string

		// resolved caches the materialized alias target, one slot per
		// lookup origin. Descriptors live in shared scope tables and can
		// be chased by concurrent lookups, so the slots are published
		// atomically. The slots are separate because the same chain can
		// land on different targets per origin when a private entry
		// shadows a public one for internal callers.
		resolved [2]atomic.Pointer[CommandDescriptor]
	}
)

const (
	// Public descriptors are visible to every caller.
	Public Visibility = iota
	// Private descriptors are visible only to internal-origin lookups.
	Private
)

// String returns the visibility name.
func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

const (
	// OriginInternal marks lookups issued by the engine or by trusted
	// in-process code.
	OriginInternal CommandOrigin = iota
	// OriginRunspace marks lookups issued on behalf of an external
	// caller; Private entries are filtered out.
	OriginRunspace
)

// String returns the origin name.
func (o CommandOrigin) String() string {
	if o == OriginRunspace {
		return "runspace"
	}
	return "internal"
}

// slot maps an origin onto its resolved-target cache index.
func (o CommandOrigin) slot() int {
	if o == OriginRunspace {
		return 1
	}
	return 0
}

// VisibleTo reports whether the descriptor may be returned to a lookup
// with the given origin.
func (d *CommandDescriptor) VisibleTo(origin CommandOrigin) bool {
	return d.Visibility == Public || origin == OriginInternal
}

// ResolvedTarget returns the materialized alias target for the given
// lookup origin, or nil if the chain has not been chased for that
// origin yet. Never set for non-alias kinds.
func (d *CommandDescriptor) ResolvedTarget(origin CommandOrigin) *CommandDescriptor {
	return d.resolved[origin.slot()].Load()
}

// SetResolvedTarget publishes the materialized alias target for the
// given lookup origin. Safe for concurrent use with ResolvedTarget.
func (d *CommandDescriptor) SetResolvedTarget(origin CommandOrigin, target *CommandDescriptor) {
	d.resolved[origin.slot()].Store(target)
}

// IsAlias reports whether the descriptor is an alias entry.
func (d *CommandDescriptor) IsAlias() bool { return d.Kind == KindAlias }

// FoldName normalizes a command name for case-insensitive comparison
// and map keying. Command names in this engine are ASCII-dominated, but
// folding is applied uniformly to the whole string.
func FoldName(name string) string { return strings.ToLower(name) }

// SameName reports whether two command names are equal under folding.
func SameName(a, b string) bool { return strings.EqualFold(a, b) }
