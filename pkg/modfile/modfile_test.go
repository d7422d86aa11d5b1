// SPDX-License-Identifier: MPL-2.0

package modfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cmdsh/pkg/types"
)

const testManifest = `
module:      "Utils"
version:     "1.2.0"
description: "test fixtures"
`

const testCmdfile = `
commands: [
	{name: "Get-Widget", kind: "cmdlet", description: "fetch widgets"},
	{name: "Format-Widget", body: "echo formatting"},
	{name: "Invoke-Secret", body: "echo ssh", visibility: "private"},
]
aliases: [
	{name: "gw", target: "Get-Widget"},
]
`

// writeModule creates a module directory under dir and returns its path.
func writeModule(t *testing.T, dir, name, manifest, cmdfile string) string {
	t.Helper()
	modDir := filepath.Join(dir, name+ModuleSuffix)
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(modDir, ManifestName), []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if cmdfile != "" {
		if err := os.WriteFile(filepath.Join(modDir, CmdfileName), []byte(cmdfile), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return modDir
}

func TestParseManifestBytes(t *testing.T) {
	t.Parallel()

	m, err := ParseManifestBytes([]byte(testManifest), "cmdmod.cue")
	if err != nil {
		t.Fatalf("ParseManifestBytes() unexpected error: %v", err)
	}
	if m.Module != "Utils" || m.Version != "1.2.0" {
		t.Errorf("manifest = %+v, want Utils 1.2.0", m)
	}
}

func TestParseManifestBytes_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"missing module", `version: "1.0"`},
		{"missing version", `module: "Utils"`},
		{"bad version", `module: "Utils", version: "one.two"`},
		{"single component version", `module: "Utils", version: "1"`},
		{"bad module name", `module: "1bad", version: "1.0"`},
		{"reserved device name", `module: "con", version: "1.0"`},
		{"whitespace description", `module: "Utils", version: "1.0", description: "   "`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseManifestBytes([]byte(tt.data), "cmdmod.cue"); err == nil {
				t.Errorf("ParseManifestBytes(%q) expected error, got nil", tt.data)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	modDir := writeModule(t, t.TempDir(), "Utils", testManifest, testCmdfile)

	mod, err := Load(modDir)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if mod.Name() != "Utils" {
		t.Errorf("Name() = %q, want Utils", mod.Name())
	}
	if mod.Version() != "1.2.0" {
		t.Errorf("Version() = %q, want 1.2.0", mod.Version())
	}
	if mod.IsLibraryOnly {
		t.Error("module with cmdfile should not be library-only")
	}
	if len(mod.Commands.Commands) != 3 || len(mod.Commands.Aliases) != 1 {
		t.Errorf("got %d commands, %d aliases, want 3, 1",
			len(mod.Commands.Commands), len(mod.Commands.Aliases))
	}
}

func TestLoad_LibraryOnly(t *testing.T) {
	t.Parallel()

	modDir := writeModule(t, t.TempDir(), "Lib", testManifest, "")

	mod, err := Load(modDir)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !mod.IsLibraryOnly {
		t.Error("module without cmdfile should be library-only")
	}
}

func TestLoad_MissingManifest(t *testing.T) {
	t.Parallel()

	modDir := writeModule(t, t.TempDir(), "Broken", "", testCmdfile)

	_, err := Load(modDir)
	if err == nil {
		t.Fatal("Load() expected error for missing manifest")
	}
	if !errors.Is(err, ErrManifestNotFound) {
		t.Errorf("error should wrap ErrManifestNotFound, got: %v", err)
	}
}

func TestLoad_BodySyntaxError(t *testing.T) {
	t.Parallel()

	bad := `
commands: [
	{name: "Break-Things", body: "if then fi ((("},
]
`
	modDir := writeModule(t, t.TempDir(), "Bad", testManifest, bad)

	_, err := Load(modDir)
	if err == nil {
		t.Fatal("Load() expected body syntax error")
	}
	if !strings.Contains(err.Error(), "body syntax error") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestModule_Descriptors(t *testing.T) {
	t.Parallel()

	modDir := writeModule(t, t.TempDir(), "Utils", testManifest, testCmdfile)
	mod, err := Load(modDir)
	if err != nil {
		t.Fatal(err)
	}

	descs, err := mod.Descriptors()
	if err != nil {
		t.Fatalf("Descriptors() unexpected error: %v", err)
	}
	if len(descs) != 4 {
		t.Fatalf("got %d descriptors, want 4", len(descs))
	}

	byName := make(map[string]*types.CommandDescriptor)
	for _, d := range descs {
		byName[d.Name] = d
		if d.ModuleName != "Utils" {
			t.Errorf("%s: ModuleName = %q, want Utils", d.Name, d.ModuleName)
		}
	}

	if byName["Get-Widget"].Kind != types.KindCmdlet {
		t.Errorf("Get-Widget kind = %v, want cmdlet", byName["Get-Widget"].Kind)
	}
	if byName["Format-Widget"].Kind != types.KindFunction {
		t.Errorf("Format-Widget kind = %v, want function (default)", byName["Format-Widget"].Kind)
	}
	if byName["Invoke-Secret"].Visibility != types.Private {
		t.Error("Invoke-Secret should be private")
	}
	if byName["gw"].Kind != types.KindAlias || byName["gw"].Definition != "Get-Widget" {
		t.Errorf("gw = %+v, want alias of Get-Widget", byName["gw"])
	}
}

func TestParseExports(t *testing.T) {
	t.Parallel()

	modDir := writeModule(t, t.TempDir(), "Utils", testManifest, testCmdfile)

	exports, err := ParseExports(modDir)
	if err != nil {
		t.Fatalf("ParseExports() unexpected error: %v", err)
	}

	if !exports["get-widget"].Has(types.KindCmdlet) {
		t.Error("get-widget should be exported as cmdlet")
	}
	if !exports["gw"].Has(types.KindAlias) {
		t.Error("gw should be exported as alias")
	}
	if _, ok := exports["Get-Widget"]; ok {
		t.Error("export keys should be case-folded")
	}
}

func TestParseExports_SkipsBodyValidation(t *testing.T) {
	t.Parallel()

	// A module with a syntactically broken body still has a readable
	// export surface: that is the whole point of index-before-load.
	bad := `
commands: [
	{name: "Break-Things", body: "if then fi ((("},
]
`
	modDir := writeModule(t, t.TempDir(), "Bad", testManifest, bad)

	exports, err := ParseExports(modDir)
	if err != nil {
		t.Fatalf("ParseExports() unexpected error: %v", err)
	}
	if !exports["break-things"].Has(types.KindFunction) {
		t.Error("break-things should appear in exports despite broken body")
	}
}

func TestDiscoverModules(t *testing.T) {
	t.Parallel()

	systemRoot := t.TempDir()
	userRoot := t.TempDir()

	writeModule(t, systemRoot, "Zeta", testManifest, "")
	writeModule(t, systemRoot, "Alpha", testManifest, "")
	writeModule(t, userRoot, "Middle", testManifest, "")

	// Non-module clutter is ignored.
	if err := os.MkdirAll(filepath.Join(systemRoot, "not-a-module"), 0o755); err != nil {
		t.Fatal(err)
	}

	dirs := DiscoverModules([]string{systemRoot, userRoot, filepath.Join(userRoot, "missing")})
	if len(dirs) != 3 {
		t.Fatalf("got %d module dirs, want 3: %v", len(dirs), dirs)
	}

	// Root order is preserved; names sort within a root.
	wantOrder := []string{"Alpha", "Zeta", "Middle"}
	for i, dir := range dirs {
		if got := DirModuleName(dir); got != wantOrder[i] {
			t.Errorf("dirs[%d] = %s, want %s", i, got, wantOrder[i])
		}
	}
}

func TestIsModuleDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	modDir := writeModule(t, root, "Utils", testManifest, "")

	if !IsModuleDir(modDir) {
		t.Error("IsModuleDir() = false for a valid module dir")
	}
	if IsModuleDir(root) {
		t.Error("IsModuleDir() = true for a plain directory")
	}

	// Suffix without manifest is not a module.
	empty := filepath.Join(root, "Empty"+ModuleSuffix)
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	if IsModuleDir(empty) {
		t.Error("IsModuleDir() = true for a .cmdmod dir without manifest")
	}
}
