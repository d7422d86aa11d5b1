// SPDX-License-Identifier: MPL-2.0

package pipeconv

import (
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// walker performs the single-pass validation and translation walk.
// The first violation aborts the whole conversion.
type walker struct {
	src      string
	trusted  bool
	captured VariableContext
	declared map[string]struct{}
}

// element is one pipeline element after flattening; mergeErr records a
// |& pipe feeding the next element.
type element struct {
	stmt     *syntax.Stmt
	mergeErr bool
}

func (w *walker) file(f *syntax.File) (*Pipeline, error) {
	p := &Pipeline{}
	for i, stmt := range f.Stmts {
		if err := w.statement(p, stmt, i == 0); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (w *walker) statement(p *Pipeline, stmt *syntax.Stmt, firstStatement bool) error {
	elems, err := w.flatten(stmt)
	if err != nil {
		return err
	}

	start := len(p.Commands)
	for i, el := range elems {
		merge, err := w.redirections(el.stmt)
		if err != nil {
			return err
		}
		merge = merge || el.mergeErr

		call := el.stmt.Cmd.(*syntax.CallExpr)

		// Assignment-only statements declare local names. They produce
		// no command and are legal only as a whole statement.
		if len(call.Args) == 0 {
			if len(elems) > 1 {
				return unsupported(ReasonBareExpression, el.stmt, "assignment inside a pipeline")
			}
			return w.assignments(call)
		}
		if len(call.Assigns) > 0 {
			return unsupported(ReasonNonTopLevelCommand, call, "per-command environment assignment")
		}

		// A bare variable may only open the very first statement, where
		// it becomes the pipeline input.
		if pe, ok := singleParamExp(call.Args[0]); ok && len(call.Args) == 1 {
			if i != 0 || !firstStatement {
				return unsupported(ReasonBareExpression, call, "expression in command position")
			}
			arg, err := w.variableArgument(pe)
			if err != nil {
				return err
			}
			arg.Text = w.text(call.Args[0])
			p.Input = &arg
			continue
		}

		cmd, err := w.command(call, merge)
		if err != nil {
			return err
		}
		p.Commands = append(p.Commands, cmd)
	}

	if len(p.Commands) > start {
		p.Commands[len(p.Commands)-1].EndOfStatement = true
	}
	return nil
}

// flatten linearizes a statement's pipe chain into elements, rejecting
// every other compound shape. Conditional chaining, loops, function
// declarations and subshells all fail: their commands are not at the
// direct top level of the body.
func (w *walker) flatten(stmt *syntax.Stmt) ([]element, error) {
	if stmt.Negated {
		return nil, unsupported(ReasonNonTopLevelCommand, stmt, "negated statement")
	}
	if stmt.Background || stmt.Coprocess {
		return nil, unsupported(ReasonNonTopLevelCommand, stmt, "background statement")
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		return []element{{stmt: stmt}}, nil
	case *syntax.BinaryCmd:
		switch cmd.Op {
		case syntax.Pipe, syntax.PipeAll:
			left, err := w.flatten(cmd.X)
			if err != nil {
				return nil, err
			}
			if cmd.Op == syntax.PipeAll {
				left[len(left)-1].mergeErr = true
			}
			right, err := w.flatten(cmd.Y)
			if err != nil {
				return nil, err
			}
			return append(left, right...), nil
		default:
			return nil, unsupported(ReasonNonTopLevelCommand, cmd, "conditional statement chaining")
		}
	case *syntax.Block, *syntax.Subshell:
		return nil, unsupported(ReasonScriptBlockName, stmt.Cmd, "script block in command position")
	case nil:
		return nil, unsupported(ReasonNonTopLevelCommand, stmt, "statement without a command")
	default:
		return nil, unsupported(ReasonNonTopLevelCommand, stmt.Cmd, "only simple commands and pipelines convert")
	}
}

// redirections validates a statement's redirection list. The single
// surviving shape is 2>&1, reported as a stream merge; everything else
// is a hard failure.
func (w *walker) redirections(stmt *syntax.Stmt) (bool, error) {
	merge := false
	for _, r := range stmt.Redirs {
		switch r.Op {
		case syntax.DplOut:
			if r.N != nil && r.N.Value == "2" && r.Word != nil && r.Word.Lit() == "1" {
				merge = true
				continue
			}
			return false, unsupported(ReasonStreamRedirection, r, "only a 2>&1 merge converts")
		case syntax.DplIn:
			return false, unsupported(ReasonStreamRedirection, r, "stream duplication")
		default:
			return false, unsupported(ReasonFileRedirection, r, "file redirection")
		}
	}
	return merge, nil
}

func (w *walker) command(call *syntax.CallExpr, merge bool) (Command, error) {
	name, err := w.commandName(call.Args[0])
	if err != nil {
		return Command{}, err
	}
	if name == "." || name == "source" {
		return Command{}, unsupported(ReasonDotSourcing, call.Args[0], "dot-sourcing invocation")
	}

	cmd := Command{Name: name, MergeUnmergedStreams: merge}
	for _, word := range call.Args[1:] {
		arg, err := w.argument(word)
		if err != nil {
			return Command{}, err
		}
		cmd.Arguments = append(cmd.Arguments, arg)
	}
	return cmd, nil
}

// commandName requires the name word to be fully literal: a name built
// from a substitution or an expansion cannot be resolved ahead of
// execution.
func (w *walker) commandName(word *syntax.Word) (string, error) {
	var b strings.Builder
	for _, part := range word.Parts {
		switch part := part.(type) {
		case *syntax.Lit:
			b.WriteString(part.Value)
		case *syntax.SglQuoted:
			b.WriteString(part.Value)
		case *syntax.DblQuoted:
			for _, inner := range part.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", unsupported(ReasonScriptBlockName, inner, "computed command name")
				}
				b.WriteString(lit.Value)
			}
		case *syntax.CmdSubst, *syntax.ProcSubst:
			return "", unsupported(ReasonNestedCommand, part, "substitution in command position")
		case *syntax.ParamExp:
			return "", unsupported(ReasonBareExpression, part, "variable in command position")
		default:
			return "", unsupported(ReasonScriptBlockName, part, "computed command name")
		}
	}
	return b.String(), nil
}

func (w *walker) argument(word *syntax.Word) (Argument, error) {
	text := w.text(word)

	// A whole-word variable stays a single argument; ${name[@]} and
	// ${name[*]} spread their collection at invocation.
	if pe, ok := singleParamExp(word); ok {
		arg, err := w.variableArgument(pe)
		if err != nil {
			return Argument{}, err
		}
		arg.Splat = isSplatIndex(pe.Index)
		arg.Text = text
		return arg, nil
	}

	// Flag words: -Name or --name[=value]. A negative number keeps its
	// leading '-' and stays a positional value.
	if lit := word.Lit(); len(lit) > 1 && strings.HasPrefix(lit, "-") {
		if _, isNumber := parseNumber(lit); !isNumber {
			name, value, hasValue := strings.Cut(lit, "=")
			arg := Argument{Name: name, Text: text}
			if hasValue {
				arg.Value = value
			}
			return arg, nil
		}
	}

	value, err := w.wordValue(word)
	if err != nil {
		return Argument{}, err
	}
	return Argument{Value: value, Text: text}, nil
}

// variableArgument resolves one variable reference: captured values are
// materialized now, declared parameters stay symbolic for invocation
// binding, anything else is undeclared and fails.
func (w *walker) variableArgument(pe *syntax.ParamExp) (Argument, error) {
	if pe.Excl || pe.Length || pe.Width || pe.Slice != nil || pe.Repl != nil || pe.Exp != nil || pe.Names != 0 {
		return Argument{}, unsupported(ReasonBareExpression, pe, "parameter expansion operator")
	}
	if pe.Index != nil && !isSplatIndex(pe.Index) {
		return Argument{}, unsupported(ReasonBareExpression, pe, "indexed parameter expansion")
	}
	name := pe.Param.Value

	if w.captured != nil {
		if v, ok := w.captured.GetVariableValue(name); ok {
			if !w.trusted && !scalarValue(v) {
				return Argument{}, unsupported(ReasonUntrustedCapture, pe,
					fmt.Sprintf("captured variable %q holds a non-scalar value", name))
			}
			return Argument{Value: v}, nil
		}
	}
	if _, ok := w.declared[strings.ToLower(name)]; ok {
		return Argument{Value: VariableRef{Name: name}}, nil
	}
	return Argument{}, unsupported(ReasonUndeclaredVariables, pe, fmt.Sprintf("variable %q", name))
}

// wordValue evaluates a word to a concrete value. A single numeric
// literal keeps its parsed value; the original spelling survives in the
// argument's Text.
func (w *walker) wordValue(word *syntax.Word) (any, error) {
	if lit := word.Lit(); lit != "" {
		if n, ok := parseNumber(lit); ok {
			return n, nil
		}
		return lit, nil
	}
	var b strings.Builder
	for _, part := range word.Parts {
		s, err := w.partText(part)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (w *walker) partText(part syntax.WordPart) (string, error) {
	switch part := part.(type) {
	case *syntax.Lit:
		return part.Value, nil
	case *syntax.SglQuoted:
		return part.Value, nil
	case *syntax.DblQuoted:
		var b strings.Builder
		for _, inner := range part.Parts {
			s, err := w.partText(inner)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	case *syntax.ParamExp:
		// Interpolation into a larger word needs a concrete value now; a
		// symbolic reference cannot be spliced into half a string.
		arg, err := w.variableArgument(part)
		if err != nil {
			return "", err
		}
		if _, symbolic := arg.Value.(VariableRef); symbolic {
			return "", unsupported(ReasonUndeclaredVariables, part,
				fmt.Sprintf("parameter %q has no concrete value for interpolation", part.Param.Value))
		}
		return fmt.Sprint(arg.Value), nil
	case *syntax.CmdSubst:
		return "", unsupported(ReasonNestedCommand, part, "command substitution")
	case *syntax.ProcSubst:
		return "", unsupported(ReasonNestedCommand, part, "process substitution")
	case *syntax.ArithmExp:
		return "", unsupported(ReasonNestedCommand, part, "arithmetic expansion")
	default:
		return "", unsupported(ReasonNonTopLevelCommand, part, "unsupported word expansion")
	}
}

// assignments handles an assignment-only statement: each assigned name
// joins the locally-declared set after its value passes the same word
// validation as an argument.
func (w *walker) assignments(call *syntax.CallExpr) error {
	if len(call.Assigns) == 0 {
		return unsupported(ReasonBareExpression, call, "empty statement")
	}
	for _, as := range call.Assigns {
		if as.Append || as.Naked || as.Index != nil {
			return unsupported(ReasonNonTopLevelCommand, as, "compound assignment")
		}
		if as.Array != nil {
			for _, el := range as.Array.Elems {
				if _, err := w.wordValue(el.Value); err != nil {
					return err
				}
			}
		} else if as.Value != nil {
			if _, err := w.wordValue(as.Value); err != nil {
				return err
			}
		}
		w.declared[strings.ToLower(as.Name.Value)] = struct{}{}
	}
	return nil
}

func (w *walker) text(node syntax.Node) string {
	start, end := node.Pos().Offset(), node.End().Offset()
	if end > uint(len(w.src)) || start > end {
		return ""
	}
	return w.src[start:end]
}

func singleParamExp(word *syntax.Word) (*syntax.ParamExp, bool) {
	if len(word.Parts) != 1 {
		return nil, false
	}
	pe, ok := word.Parts[0].(*syntax.ParamExp)
	return pe, ok
}

func isSplatIndex(idx syntax.ArithmExpr) bool {
	w, ok := idx.(*syntax.Word)
	if !ok {
		return false
	}
	lit := w.Lit()
	return lit == "@" || lit == "*"
}

// parseNumber recognizes integer and float literals, including hex,
// binary and underscore-separated spellings.
func parseNumber(lit string) (any, bool) {
	if n, err := strconv.ParseInt(lit, 0, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		return f, true
	}
	return nil, false
}

func scalarValue(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}
