// SPDX-License-Identifier: MPL-2.0

// Package pipeconv translates a parsed script body into a flat,
// serializable pipeline of command invocations. The translation is a
// validating tree walk: constructs that cannot be handed safely to a
// remote or argument-array execution model (dot-sourcing, nested
// invocations, file redirections, undeclared variables) fail the whole
// conversion with a typed error instead of being degraded silently.
//
// Outer-scope captures are pre-evaluated to concrete values at
// conversion time, never passed by reference: the resulting pipeline
// may be serialized and executed in a different process or on a
// different machine. Declared parameters stay symbolic (VariableRef)
// and are bound by the executing side at invocation.
package pipeconv

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

type (
	// Argument is one bound argument of a converted command. Exactly one
	// of the three shapes applies: a named flag (Name set, Value
	// optional), a positional value (Name empty), or a splat (Splat set,
	// Value holding the collection to spread).
	Argument struct {
		// Name is the parameter name for flag-style arguments, "" for
		// positional ones.
		Name string `json:"name,omitempty"`
		// Value is the concrete pre-evaluated value, or a VariableRef for
		// declared parameters bound at invocation.
		Value any `json:"value,omitempty"`
		// Text preserves the original source spelling of literal values
		// when it differs from the canonical form (hex or underscored
		// numeric literals survive round-tripping).
		Text string `json:"text,omitempty"`
		// Splat spreads a collection or map value into positional or
		// named arguments at invocation.
		Splat bool `json:"splat,omitempty"`
	}

	// Command is one invocation of the converted pipeline.
	Command struct {
		// Name is the resolved command name.
		Name string `json:"name"`
		// Arguments are the bound arguments in source order.
		Arguments []Argument `json:"arguments,omitempty"`
		// MergeUnmergedStreams folds the error stream into the output
		// stream for this invocation (the one stream redirection shape
		// that survives conversion).
		MergeUnmergedStreams bool `json:"mergeUnmergedStreams,omitempty"`
		// EndOfStatement marks the last command of a source statement;
		// the next command, if any, starts a fresh statement rather than
		// receiving this one's output.
		EndOfStatement bool `json:"endOfStatement,omitempty"`
	}

	// Pipeline is the immutable result of one conversion: an ordered
	// command sequence plus optional pipeline input wiring. It is built
	// once and never mutated afterward.
	Pipeline struct {
		// Commands is the flattened invocation sequence.
		Commands []Command `json:"commands"`
		// Input, when non-nil, is the value piped into the first command
		// (a body of the shape "$x | Foo").
		Input *Argument `json:"input,omitempty"`
	}

	// VariableRef is a symbolic reference to a declared parameter,
	// resolved by the executing side at invocation time.
	VariableRef struct {
		Name string `json:"variable"`
	}

	// VariableContext supplies concrete values for outer-scope captures.
	VariableContext interface {
		GetVariableValue(name string) (any, bool)
	}

	// MapContext is the trivial VariableContext over a map. Lookup is
	// case-insensitive, matching command and variable name folding
	// everywhere else in the engine.
	MapContext map[string]any
)

// GetVariableValue implements VariableContext.
func (m MapContext) GetVariableValue(name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// Converter converts script bodies. The zero value is not usable; use
// New.
type Converter struct {
	parser *syntax.Parser
}

// New creates a Converter.
func New() *Converter {
	return &Converter{parser: syntax.NewParser()}
}

// Convert parses body and translates it into a Pipeline.
//
// params declares the locally-bound variable names; referencing any
// other variable that the captured context cannot supply fails with
// ReasonUndeclaredVariables. When trusted is false, captured values are
// restricted to scalar types, since an untrusted body must not be able
// to exfiltrate arbitrary outer-scope structures into a serialized
// pipeline.
func (c *Converter) Convert(body string, params []string, trusted bool, captured VariableContext) (*Pipeline, error) {
	file, err := c.parser.Parse(strings.NewReader(body), "pipeline")
	if err != nil {
		return nil, fmt.Errorf("parsing script body: %w", err)
	}

	w := &walker{
		src:      body,
		trusted:  trusted,
		captured: captured,
		declared: make(map[string]struct{}, len(params)),
	}
	for _, p := range params {
		w.declared[strings.ToLower(p)] = struct{}{}
	}
	return w.file(file)
}
