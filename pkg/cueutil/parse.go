// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the shared CUE parsing flow used by the
// cmdsh manifest and config packages:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with the schema root definition
//  3. Validate and decode into a Go struct
//
// Typical use:
//
//	//go:embed cmdmod_schema.cue
//	var schema string
//
//	result, err := cueutil.Parse[Manifest](
//	    schema, data, "#Cmdmod",
//	    cueutil.WithFilename("cmdmod.cue"),
//	)
package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize caps manifest and config files at 5MB so a
// corrupt or hostile file cannot exhaust memory during parsing.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	// Result holds a successful parse: the decoded struct plus the
	// unified CUE value for callers that need to pull extra metadata.
	Result[T any] struct {
		Value   *T
		Unified cue.Value
	}

	parseOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures parsing behavior.
	Option func(*parseOptions)
)

// WithMaxFileSize overrides the DefaultMaxFileSize cap.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) { o.maxFileSize = size }
}

// WithConcrete controls whether all values must be concrete after
// unification. Defaults to true; config files with optional fields
// set it to false.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) { o.concrete = concrete }
}

// WithFilename sets the filename shown in CUE error output.
func WithFilename(name string) Option {
	return func(o *parseOptions) { o.filename = name }
}

// Parse runs the three-step schema/unify/decode flow. schemaPath names
// the root definition inside the schema, e.g. "#Cmdfile".
func Parse[T any](schema string, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	options := parseOptions{maxFileSize: DefaultMaxFileSize, concrete: true}
	for _, opt := range opts {
		opt(&options)
	}

	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	if int64(len(data)) > options.maxFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), options.maxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)

	if options.concrete {
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return nil, FormatError(err, filename)
		}
	} else if err := unified.Validate(); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &Result[T]{Value: &result, Unified: unified}, nil
}
