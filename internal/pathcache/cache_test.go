// SPDX-License-Identifier: MPL-2.0

package pathcache

import (
	"os"
	"strings"
	"sync"
	"testing"
)

// fakeEnv returns a Getenv func backed by a mutable map.
func fakeEnv(vals map[string]string) func(string) string {
	return func(key string) string { return vals[key] }
}

func joinList(dirs ...string) string {
	return strings.Join(dirs, string(os.PathListSeparator))
}

func TestCollection_Dedupe(t *testing.T) {
	t.Parallel()

	c := NewCollection([]string{"/usr/bin", "/usr/local/bin", "/USR/BIN", " /usr/bin ", ""})
	want := []string{"/usr/bin", "/usr/local/bin"}
	got := c.Directories()
	if len(got) != len(want) {
		t.Fatalf("Directories() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Directories()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if !c.Contains("/USR/LOCAL/BIN") {
		t.Error("Contains() should compare case-insensitively")
	}
}

func TestCollection_RelativeFlag(t *testing.T) {
	t.Parallel()

	c := NewCollection([]string{"./tools", "/usr/bin", "../sbin"})
	entries := c.Entries()
	if !entries[0].Relative || !entries[2].Relative {
		t.Error("dot-prefixed entries should be flagged relative")
	}
	if entries[1].Relative {
		t.Error("/usr/bin should not be flagged relative")
	}
}

func TestCache_LookupDirectories_CachedWhileUnchanged(t *testing.T) {
	t.Parallel()

	env := map[string]string{PathEnvVar: joinList("/usr/bin", "/opt/bin")}
	c := &Cache{Getenv: fakeEnv(env)}

	first := c.LookupDirectories()
	second := c.LookupDirectories()
	if first != second {
		t.Error("unchanged PATH should return the identical cached collection")
	}

	// A case-only change still counts as unchanged.
	env[PathEnvVar] = strings.ToUpper(env[PathEnvVar])
	third := c.LookupDirectories()
	if first != third {
		t.Error("case-only PATH change should not invalidate the cache")
	}
}

func TestCache_LookupDirectories_RebuiltOnChange(t *testing.T) {
	t.Parallel()

	env := map[string]string{PathEnvVar: joinList("/usr/bin")}
	c := &Cache{Getenv: fakeEnv(env)}

	first := c.LookupDirectories()

	env[PathEnvVar] = joinList("/usr/bin", "/opt/bin", "/usr/bin")
	second := c.LookupDirectories()
	if first == second {
		t.Fatal("changed PATH should rebuild the collection")
	}
	if second.Len() != 2 {
		t.Errorf("rebuilt collection should be deduplicated, got %v", second.Directories())
	}
}

func TestCache_LookupDirectories_AbsentValue(t *testing.T) {
	t.Parallel()

	c := &Cache{Getenv: fakeEnv(map[string]string{})}
	got := c.LookupDirectories()
	if got.Len() != 0 {
		t.Errorf("absent PATH should yield an empty collection, got %v", got.Directories())
	}
}

func TestCache_LookupExtensions(t *testing.T) {
	t.Parallel()

	env := map[string]string{ExtensionsEnvVar: joinList(".exe", "sh", ".EXE")}
	c := &Cache{Getenv: fakeEnv(env)}

	exts := c.LookupExtensions()
	if exts[0] != ScriptExtension {
		t.Errorf("exts[0] = %q, want the fixed script extension first", exts[0])
	}
	want := []string{ScriptExtension, ".exe", ".sh"}
	if len(exts) != len(want) {
		t.Fatalf("LookupExtensions() = %v, want %v", exts, want)
	}
	for i := range want {
		if exts[i] != want[i] {
			t.Errorf("exts[%d] = %q, want %q", i, exts[i], want[i])
		}
	}

	again := c.LookupExtensions()
	if &exts[0] != &again[0] {
		t.Error("unchanged extension list should return the cached slice")
	}
}

func TestCache_ConcurrentReads(t *testing.T) {
	t.Parallel()

	env := map[string]string{PathEnvVar: joinList("/usr/bin", "/opt/bin")}
	c := &Cache{Getenv: fakeEnv(env)}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if c.LookupDirectories().Len() != 2 {
					t.Error("unexpected collection length")
					return
				}
			}
		}()
	}
	wg.Wait()
}
