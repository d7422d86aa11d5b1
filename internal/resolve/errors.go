// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
)

// ErrCommandNotFound is wrapped by every CommandNotFoundError.
var ErrCommandNotFound = errors.New("command not found")

// CommandNotFoundError is the terminal failure of the discovery
// pipeline: every phase was exhausted without producing a descriptor.
// Err carries the last lower-level error encountered while searching
// (alias, module load, path or format errors) as context; those errors
// never abort the search on their own.
type CommandNotFoundError struct {
	// Name is the originally requested command name.
	Name string
	// Err is the last underlying error, or nil when the search simply
	// found nothing.
	Err error
}

// Error implements the error interface.
func (e *CommandNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("command %q not found: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("command %q not found", e.Name)
}

// Unwrap exposes ErrCommandNotFound and, transitively, the inner
// cause.
func (e *CommandNotFoundError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCommandNotFound, e.Err}
	}
	return []error{ErrCommandNotFound}
}

// ReentrancyError reports that a discovery phase was re-entered for a
// name while already active for that same name, e.g. a
// CommandNotFoundAction resolving the very name it was invoked for.
// This is an integration defect: it fails fast instead of recursing.
type ReentrancyError struct {
	Phase Phase
	Name  string
}

// Error implements the error interface.
func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("discovery phase %v re-entered for command %q", e.Phase, e.Name)
}
