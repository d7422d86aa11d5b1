// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, cfg Config) *Watcher {
	t.Helper()
	if cfg.Stderr == nil {
		cfg.Stderr = io.Discard
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return w
}

func TestNew_NoRoots(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Error("New() with no roots should fail")
	}
}

func TestNew_InvalidIgnorePattern(t *testing.T) {
	t.Parallel()

	_, err := New(Config{
		Roots:  []string{t.TempDir()},
		Ignore: []string{"[unclosed"},
	})
	if err == nil {
		t.Error("New() with an invalid ignore glob should fail")
	}
}

func TestNew_MissingRootSkipped(t *testing.T) {
	t.Parallel()

	w := newTestWatcher(t, Config{
		Roots: []string{filepath.Join(t.TempDir(), "does-not-exist-yet")},
	})
	// A missing root is not an error; it may be created later.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Errorf("Run() with cancelled context = %v, want nil", err)
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	t.Parallel()

	w := newTestWatcher(t, Config{Roots: []string{t.TempDir()}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("first Run() = %v", err)
	}
	if err := w.Run(ctx); err == nil {
		t.Error("second Run() should fail")
	}
}

func TestModuleDirFor(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, Config{Roots: []string{root}})

	tests := []struct {
		name    string
		path    string
		wantDir string
		wantOK  bool
	}{
		{"file inside module", filepath.Join(root, "acme.cmdmod", "cmdfile.cue"), filepath.Join(root, "acme.cmdmod"), true},
		{"module dir itself", filepath.Join(root, "acme.cmdmod"), filepath.Join(root, "acme.cmdmod"), true},
		{"non-module entry", filepath.Join(root, "README.md"), "", false},
		{"the root itself", root, "", false},
		{"outside the roots", filepath.Join(t.TempDir(), "x.cmdmod"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir, ok := w.moduleDirFor(tt.path)
			if ok != tt.wantOK || dir != tt.wantDir {
				t.Errorf("moduleDirFor(%q) = %q, %v; want %q, %v", tt.path, dir, ok, tt.wantDir, tt.wantOK)
			}
		})
	}
}

func TestIsIgnored(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, Config{Roots: []string{root}, Ignore: []string{"**/*.tmp"}})

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"swap file", filepath.Join(root, "acme.cmdmod", "cmdfile.cue.swp"), true},
		{"git metadata", filepath.Join(root, "acme.cmdmod", ".git", "HEAD"), true},
		{"extra pattern", filepath.Join(root, "acme.cmdmod", "scratch.tmp"), true},
		{"manifest", filepath.Join(root, "acme.cmdmod", "cmdmod.cue"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := w.isIgnored(tt.path); got != tt.want {
				t.Errorf("isIgnored(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRun_ReportsChangedModule(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	modDir := filepath.Join(root, "acme.cmdmod")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 1)
	w := newTestWatcher(t, Config{
		Roots:    []string{root},
		Debounce: 50 * time.Millisecond,
		OnModuleChange: func(_ context.Context, dirs []string) error {
			select {
			case changed <- dirs:
			default:
			}
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the event loop a moment to start before generating events.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(modDir, "cmdfile.cue"), []byte("commands: []"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case dirs := <-changed:
		if len(dirs) != 1 || dirs[0] != modDir {
			t.Errorf("changed dirs = %v, want [%s]", dirs, modDir)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the module change callback")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil after cancellation", err)
	}
}
