// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() with no config file should use defaults: %v", err)
	}
	if cfg.ModuleAutoload != AutoloadAll {
		t.Errorf("default module_autoload = %q, want %q", cfg.ModuleAutoload, AutoloadAll)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("default color_scheme = %q, want %q", cfg.UI.ColorScheme, ColorSchemeAuto)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
module_autoload: "qualified"
module_paths: ["/opt/team-modules"]
ui: {
	verbose: true
}
index: {
	cache_file: "/var/cache/cmdsh/exports.db"
}
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ModuleAutoload != AutoloadQualified {
		t.Errorf("module_autoload = %q, want qualified", cfg.ModuleAutoload)
	}
	if len(cfg.ModulePaths) != 1 || cfg.ModulePaths[0] != "/opt/team-modules" {
		t.Errorf("module_paths = %v", cfg.ModulePaths)
	}
	if !cfg.UI.Verbose {
		t.Error("ui.verbose should be true")
	}
	// Fields absent from the file keep their defaults.
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("ui.color_scheme = %q, want default", cfg.UI.ColorScheme)
	}
	if cfg.Index.CacheFile != "/var/cache/cmdsh/exports.db" {
		t.Errorf("index.cache_file = %q", cfg.Index.CacheFile)
	}
}

func TestLoad_ExplicitFilePath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `module_autoload: "none"`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ModuleAutoload != AutoloadNone {
		t.Errorf("module_autoload = %q, want none", cfg.ModuleAutoload)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("an explicitly requested config file must exist")
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `module_autoload: "sometimes"`)

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("schema-violating config should fail to load")
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got: %v", err)
	}
}

func TestConfig_IsValid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"defaults", *DefaultConfig(), true},
		{"bad preference", Config{ModuleAutoload: "maybe", UI: UIConfig{ColorScheme: ColorSchemeAuto}}, false},
		{"whitespace module path", Config{
			ModuleAutoload: AutoloadAll,
			ModulePaths:    []ModuleRootPath{"  "},
			UI:             UIConfig{ColorScheme: ColorSchemeAuto},
		}, false},
		{"bad color scheme", Config{ModuleAutoload: AutoloadAll, UI: UIConfig{ColorScheme: "neon"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := tt.cfg.IsValid()
			if valid != tt.want {
				t.Errorf("IsValid() = %v, want %v (errs: %v)", valid, tt.want, errs)
			}
			if !valid && !errors.Is(errs[0], ErrInvalidConfig) {
				t.Errorf("invalid config error should wrap ErrInvalidConfig, got %v", errs[0])
			}
		})
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	cfg := &Config{
		ModuleAutoload: AutoloadQualified,
		ModulePaths:    []ModuleRootPath{"/opt/mods"},
		UI:             UIConfig{ColorScheme: ColorSchemeDark, Verbose: true},
		Index:          IndexConfig{CacheFile: "/tmp/exports.db"},
	}

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(cfg))

	loaded, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated CUE should load cleanly: %v", err)
	}
	if loaded.ModuleAutoload != cfg.ModuleAutoload ||
		loaded.UI.ColorScheme != cfg.UI.ColorScheme ||
		loaded.UI.Verbose != cfg.UI.Verbose ||
		loaded.Index.CacheFile != cfg.Index.CacheFile {
		t.Errorf("round-trip mismatch: %+v", loaded)
	}
}

func TestModuleRoots_BuiltinFirst(t *testing.T) {
	cfg := &Config{ModulePaths: []ModuleRootPath{"/opt/a", "/opt/b"}}
	roots, err := ModuleRoots(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 3 {
		t.Fatalf("got %d roots, want 3", len(roots))
	}
	if !strings.HasSuffix(roots[0], filepath.Join(".cmdsh", "modules")) {
		t.Errorf("built-in root must come first, got %q", roots[0])
	}
	if roots[1] != "/opt/a" || roots[2] != "/opt/b" {
		t.Errorf("configured roots out of order: %v", roots[1:])
	}
}

func TestIndexCacheFile(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(t.TempDir())

	// Override wins.
	got, err := IndexCacheFile(&Config{Index: IndexConfig{CacheFile: "/x/exports.db"}})
	if err != nil || got != "/x/exports.db" {
		t.Errorf("IndexCacheFile(override) = %q, %v", got, err)
	}

	// Default resolves inside the config dir.
	got, err = IndexCacheFile(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != IndexFileName {
		t.Errorf("default index file = %q, want %q in config dir", got, IndexFileName)
	}
}
