// SPDX-License-Identifier: MPL-2.0

package types

import (
	"strconv"
	"strings"
)

// QualifierSeparator separates a module qualifier from the command
// name, e.g. "Utils\Get-Widget".
const QualifierSeparator = '\\'

// VerbNounSeparator separates the verb from the noun in a standard
// command name, e.g. "Get-Widget".
const VerbNounSeparator = '-'

// QualifiedName is the parsed form of a possibly module-qualified
// command name. For "Utils\1.2.0\Get-Widget" Module is "Utils",
// Version is "1.2.0" and Command is "Get-Widget".
type QualifiedName struct {
	// Module is the qualifying module name, "" when unqualified.
	Module string
	// Version is the embedded module version token, "" when absent.
	Version string
	// Command is the bare command name.
	Command string
}

// IsQualified reports whether a module qualifier was present.
func (q QualifiedName) IsQualified() bool { return q.Module != "" }

// String re-renders the qualified form.
func (q QualifiedName) String() string {
	if q.Module == "" {
		return q.Command
	}
	var sb strings.Builder
	sb.WriteString(q.Module)
	sb.WriteByte(QualifierSeparator)
	if q.Version != "" {
		sb.WriteString(q.Version)
		sb.WriteByte(QualifierSeparator)
	}
	sb.WriteString(q.Command)
	return sb.String()
}

// ParseQualifiedName splits a raw name into module qualifier, optional
// version token and command name. A middle segment is treated as a
// version exactly when it parses as a dotted version; a module name
// that itself looks like a version therefore cannot appear in the
// middle position. This ambiguity is inherited from the source
// behavior and deliberately not widened.
//
// Names with more than three segments, an empty segment, or a
// non-version middle segment are returned as unqualified so the caller
// falls through to a plain not-found instead of a misleading module
// load attempt.
func ParseQualifiedName(raw string) QualifiedName {
	if !strings.ContainsRune(raw, QualifierSeparator) {
		return QualifiedName{Command: raw}
	}

	parts := strings.Split(raw, string(QualifierSeparator))
	for _, p := range parts {
		if p == "" {
			return QualifiedName{Command: raw}
		}
	}

	switch len(parts) {
	case 2:
		return QualifiedName{Module: parts[0], Command: parts[1]}
	case 3:
		if !IsVersionToken(parts[1]) {
			return QualifiedName{Command: raw}
		}
		return QualifiedName{Module: parts[0], Version: parts[1], Command: parts[2]}
	default:
		return QualifiedName{Command: raw}
	}
}

// IsVersionToken reports whether s looks like a dotted numeric version
// (2 to 4 dot-separated non-negative integers, e.g. "1.0" or
// "2.1.0.7"). A single bare integer is not a version token.
func IsVersionToken(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := strconv.ParseUint(p, 10, 32); err != nil {
			return false
		}
	}
	return true
}

// EligibleForVerbRetry reports whether a failed direct search for the
// name should be retried as "Get-<name>". The retry fires only for
// names containing neither the verb-noun separator nor the module
// qualifier separator; the exclusion list is exactly these two
// characters.
func EligibleForVerbRetry(name string) bool {
	return !strings.ContainsRune(name, VerbNounSeparator) &&
		!strings.ContainsRune(name, QualifierSeparator)
}
