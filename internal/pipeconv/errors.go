// SPDX-License-Identifier: MPL-2.0

package pipeconv

import (
	"errors"
	"fmt"

	"mvdan.cc/sh/v3/syntax"
)

// ErrNotSupported is wrapped by every UnsupportedConstructError.
var ErrNotSupported = errors.New("construct not supported for pipeline conversion")

// Stable reason identifiers carried by UnsupportedConstructError.
// Callers branch on these, never on the message text.
const (
	ReasonDotSourcing         = "CantConvertWithDotSourcing"
	ReasonUndeclaredVariables = "CantConvertWithUndeclaredVariables"
	ReasonFileRedirection     = "CantConvertWithFileRedirection"
	ReasonStreamRedirection   = "CantConvertWithStreamRedirection"
	ReasonNestedCommand       = "CantConvertWithNestedCommand"
	ReasonScriptBlockName     = "CantConvertWithScriptBlockName"
	ReasonNonTopLevelCommand  = "CantConvertWithNonTopLevelCommand"
	ReasonBareExpression      = "CantConvertWithBareExpression"
	ReasonUntrustedCapture    = "CantConvertWithUntrustedCapture"
)

// UnsupportedConstructError reports the first construct met during the
// validation walk that cannot be translated into an argument-array
// pipeline. Conversion always fails hard on these; silently dropping a
// redirection or a nested invocation would change program semantics
// invisibly.
type UnsupportedConstructError struct {
	// Reason is one of the Reason* identifiers.
	Reason string
	// Detail describes the offending construct.
	Detail string
	// Pos locates the construct in the source body.
	Pos syntax.Pos
}

// Error implements the error interface.
func (e *UnsupportedConstructError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at %s: %s (%s)", ErrNotSupported, e.Pos, e.Detail, e.Reason)
	}
	return fmt.Sprintf("%s at %s (%s)", ErrNotSupported, e.Pos, e.Reason)
}

// Unwrap exposes ErrNotSupported.
func (e *UnsupportedConstructError) Unwrap() error { return ErrNotSupported }

func unsupported(reason string, node syntax.Node, detail string) error {
	var pos syntax.Pos
	if node != nil {
		pos = node.Pos()
	}
	return &UnsupportedConstructError{Reason: reason, Detail: detail, Pos: pos}
}
