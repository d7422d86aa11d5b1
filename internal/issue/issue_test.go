// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		CommandNotFoundId,
		AliasCycleId,
		ModuleNotFoundId,
		ModuleLoadFailedId,
		ModuleParseErrorId,
		ConversionNotSupportedId,
		ConfigLoadFailedId,
		ReentrancyViolationId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if CommandNotFoundId != 1 {
		t.Errorf("CommandNotFoundId = %d, want 1", CommandNotFoundId)
	}
}

func TestGet_AllIdsRegistered(t *testing.T) {
	for _, id := range []Id{
		CommandNotFoundId,
		AliasCycleId,
		ModuleNotFoundId,
		ModuleLoadFailedId,
		ModuleParseErrorId,
		ConversionNotSupportedId,
		ConfigLoadFailedId,
		ReentrancyViolationId,
	} {
		issue := Get(id)
		if issue == nil {
			t.Errorf("Get(%d) returned nil", id)
			continue
		}
		if issue.Id() != id {
			t.Errorf("Get(%d).Id() = %d", id, issue.Id())
		}
		if issue.MarkdownMsg() == "" {
			t.Errorf("issue %d has an empty message", id)
		}
	}
}

func TestGet_UnknownId(t *testing.T) {
	if got := Get(Id(9999)); got != nil {
		t.Errorf("Get(unknown) = %v, want nil", got)
	}
}

func TestValues(t *testing.T) {
	if len(Values()) != len(issues) {
		t.Errorf("Values() returned %d issues, want %d", len(Values()), len(issues))
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	msg := Get(CommandNotFoundId).MarkdownMsg()
	if !strings.Contains(string(msg), "Command not found") {
		t.Error("CommandNotFound message should name the failure")
	}
	if !strings.Contains(string(msg), "cmdsh module list") {
		t.Error("CommandNotFound message should suggest listing modules")
	}
}

func TestIssue_Render(t *testing.T) {
	// Stub the renderer to keep the test independent of terminal styling.
	original := render
	defer func() { render = original }()
	render = func(in, stylePath string) (string, error) { return in, nil }

	out, err := Get(AliasCycleId).Render("auto")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "alias") {
		t.Error("rendered output should mention the alias chain")
	}
}

func TestActionableError_Error(t *testing.T) {
	cause := errors.New("manifest missing")
	err := NewErrorContext().
		WithOperation("load module").
		WithResource("tools.cmdmod").
		Wrap(cause).
		Build()

	want := "failed to load module: tools.cmdmod: manifest missing"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("ActionableError should unwrap to its cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	err := NewErrorContext().
		WithOperation("resolve command").
		WithSuggestion("Check for typos").
		WithSuggestion("Run 'cmdsh module list'").
		Wrap(errors.New("no match")).
		Build()

	plain := err.Format(false)
	if !strings.Contains(plain, "• Check for typos") {
		t.Errorf("Format(false) missing suggestions:\n%s", plain)
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "1. no match") {
		t.Errorf("Format(true) missing error chain:\n%s", verbose)
	}
}

func TestErrorContext_RequiresOperation(t *testing.T) {
	if got := NewErrorContext().WithResource("x").BuildError(); got != nil {
		t.Errorf("BuildError without operation = %v, want nil", got)
	}
}

func TestWrapWithOperation(t *testing.T) {
	if WrapWithOperation(nil, "anything") != nil {
		t.Error("wrapping nil should stay nil")
	}
	err := WrapWithOperation(errors.New("boom"), "refresh index")
	if err.Error() != "failed to refresh index: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
