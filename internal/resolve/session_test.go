// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cmdsh/internal/autoload"
	"cmdsh/internal/pathcache"
	"cmdsh/pkg/types"
)

func newTestSession(t *testing.T, env map[string]string) *Session {
	t.Helper()
	paths := &pathcache.Cache{Getenv: func(key string) string { return env[key] }}
	return NewSession(newTestDiscovery(t, autoload.PreferenceNone), paths)
}

func TestSession_BootstrapCommands(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, nil)

	for _, name := range []string{"Import-Module", "Get-Module", "Get-Command"} {
		desc, err := s.LookupCommandInfo(name, types.OriginInternal)
		if err != nil {
			t.Fatalf("bootstrap command %q not resolvable: %v", name, err)
		}
		if desc.Kind != types.KindCmdlet {
			t.Errorf("%q kind = %v, want cmdlet", name, desc.Kind)
		}
	}

	// The short aliases resolve with their targets pre-materialized.
	desc, err := s.LookupCommandInfo("ipmo", types.OriginInternal)
	if err != nil {
		t.Fatal(err)
	}
	target := desc.ResolvedTarget(types.OriginInternal)
	if !desc.IsAlias() || target == nil || target.Name != "Import-Module" {
		t.Errorf("ipmo should be an alias targeting Import-Module, got %+v", desc)
	}
}

func TestSession_ScopeStack(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, nil)
	if s.CurrentScope() != s.Global {
		t.Fatal("fresh session must start in the global scope")
	}

	child := s.PushScope()
	if s.CurrentScope() != child || child.Parent() != s.Global {
		t.Error("PushScope should enter a child of the previous scope")
	}

	s.PopScope()
	if s.CurrentScope() != s.Global {
		t.Error("PopScope should return to the parent scope")
	}
	// Popping the global scope is a no-op.
	s.PopScope()
	if s.CurrentScope() != s.Global {
		t.Error("popping the global scope must not change the session")
	}
}

func TestSession_InnerScopeShadowsOuter(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, nil)
	addCommand(s.Global, "Get-Widget", types.KindFunction)

	inner := s.PushScope()
	shadow := addCommand(inner, "Get-Widget", types.KindAlias)
	shadow.Definition = "Get-Command"

	desc, err := s.LookupCommandInfo("Get-Widget", types.OriginInternal)
	if err != nil {
		t.Fatal(err)
	}
	if desc != shadow {
		t.Errorf("inner scope definition should shadow the outer one, got %+v", desc)
	}
}

func TestSession_ApplicationProbe(t *testing.T) {
	t.Parallel()

	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, "mytool"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "deploy.cmdsh"), []byte("echo hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestSession(t, map[string]string{pathcache.PathEnvVar: binDir})

	desc, err := s.LookupCommandInfo("mytool", types.OriginInternal)
	if err != nil {
		t.Fatalf("expected application probe to find mytool: %v", err)
	}
	if desc.Kind != types.KindApplication {
		t.Errorf("mytool kind = %v, want application", desc.Kind)
	}
	if desc.Path != filepath.Join(binDir, "mytool") {
		t.Errorf("mytool path = %q", desc.Path)
	}

	desc, err = s.LookupCommandInfo("deploy", types.OriginInternal)
	if err != nil {
		t.Fatal(err)
	}
	if desc.Kind != types.KindExternalScript {
		t.Errorf("deploy kind = %v, want external script (script extension wins)", desc.Kind)
	}
}

func TestSession_ApplicationProbeMiss(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, map[string]string{pathcache.PathEnvVar: t.TempDir()})

	_, err := s.LookupCommandInfo("definitely-absent", types.OriginInternal)
	if !errors.Is(err, ErrCommandNotFound) {
		t.Errorf("want not-found when the probe misses too, got: %v", err)
	}
}

func TestSession_LookupCommandProcessor(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, nil)
	addCommand(s.Global, "Get-Widget", types.KindFunction)

	proc, err := s.LookupCommandProcessor("Get-Widget", types.OriginInternal, false)
	if err != nil {
		t.Fatal(err)
	}
	if proc.Scope != s.CurrentScope() {
		t.Error("without a local scope request the processor runs in the current scope")
	}

	proc, err = s.LookupCommandProcessor("Get-Widget", types.OriginInternal, true)
	if err != nil {
		t.Fatal(err)
	}
	if proc.Scope == s.CurrentScope() || proc.Scope.Parent() != s.CurrentScope() {
		t.Error("a local scope request gets a fresh child of the current scope")
	}
}
