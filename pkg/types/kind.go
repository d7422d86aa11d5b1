// SPDX-License-Identifier: MPL-2.0

// Package types defines the cross-cutting value types shared by the
// resolution engine packages (descriptors, command kinds, visibility,
// origins, qualified names). It is a leaf dependency: it imports only
// the standard library. Domain packages import it; it never imports
// domain packages.
package types

import "strings"

// CommandKind identifies what sort of executable unit a descriptor
// stands for. The set is closed: resolution logic switches over it
// exhaustively.
type CommandKind int

const (
	// KindAlias is a name that forwards to another command.
	KindAlias CommandKind = iota
	// KindFunction is a session-defined function with a script body.
	KindFunction
	// KindFilter is a function variant applied per pipeline object.
	KindFilter
	// KindCmdlet is a compiled, host-provided command.
	KindCmdlet
	// KindScript is an in-session script block.
	KindScript
	// KindExternalScript is a script file on disk.
	KindExternalScript
	// KindApplication is a native executable found via the lookup path.
	KindApplication
	// KindWorkflow is a function-like unit executed by the workflow host.
	KindWorkflow
	// KindConfiguration is a configuration declaration block.
	KindConfiguration
)

// String returns a human-readable kind name.
func (k CommandKind) String() string {
	switch k {
	case KindAlias:
		return "alias"
	case KindFunction:
		return "function"
	case KindFilter:
		return "filter"
	case KindCmdlet:
		return "cmdlet"
	case KindScript:
		return "script"
	case KindExternalScript:
		return "external script"
	case KindApplication:
		return "application"
	case KindWorkflow:
		return "workflow"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// LookupPriority returns the tie-break rank used when several
// descriptors of different kinds share one name in a single scope.
// Lower values win. Aliases beat functions, functions beat cmdlets,
// cmdlets beat applications and external scripts.
func (k CommandKind) LookupPriority() int {
	switch k {
	case KindAlias:
		return 10
	case KindFunction, KindFilter, KindScript, KindWorkflow, KindConfiguration:
		return 20
	case KindCmdlet:
		return 30
	case KindApplication, KindExternalScript:
		return 40
	default:
		return 50
	}
}

// KindSet is a bitmask over CommandKind, used for allowed-kind filters
// and for export index entries (one command name may be exported as
// several kinds).
type KindSet uint16

// Set returns the KindSet containing exactly the given kinds.
func Set(kinds ...CommandKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}
	return s
}

// AllKinds matches every command kind.
const AllKinds = KindSet(1<<9 - 1)

// Has reports whether the set contains the given kind.
func (s KindSet) Has(k CommandKind) bool {
	return s&(1<<uint(k)) != 0
}

// Add returns the set extended with the given kind.
func (s KindSet) Add(k CommandKind) KindSet {
	return s | 1<<uint(k)
}

// IsEmpty reports whether the set matches no kind at all.
func (s KindSet) IsEmpty() bool { return s == 0 }

// Kinds returns the kinds in the set in declaration order.
func (s KindSet) Kinds() []CommandKind {
	var kinds []CommandKind
	for k := KindAlias; k <= KindConfiguration; k++ {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// String renders the set as a comma-separated kind list.
func (s KindSet) String() string {
	kinds := s.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}

// ParseKind parses a kind name as written in cmdfile manifests.
func ParseKind(name string) (CommandKind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "alias":
		return KindAlias, true
	case "function":
		return KindFunction, true
	case "filter":
		return KindFilter, true
	case "cmdlet":
		return KindCmdlet, true
	case "script":
		return KindScript, true
	case "externalscript", "external script":
		return KindExternalScript, true
	case "application":
		return KindApplication, true
	case "workflow":
		return KindWorkflow, true
	case "configuration":
		return KindConfiguration, true
	default:
		return 0, false
	}
}
