// SPDX-License-Identifier: MPL-2.0

package scope

import (
	"sync"
	"testing"

	"cmdsh/pkg/types"
)

func desc(name string, kind types.CommandKind) *types.CommandDescriptor {
	return &types.CommandDescriptor{Name: name, Kind: kind}
}

func moduleDesc(name string, kind types.CommandKind, module string) *types.CommandDescriptor {
	return &types.CommandDescriptor{Name: name, Kind: kind, ModuleName: module}
}

func TestScope_AddCommand_PriorityOrder(t *testing.T) {
	t.Parallel()

	s := NewGlobal()
	s.AddCommand(desc("widget", types.KindApplication))
	s.AddCommand(desc("widget", types.KindCmdlet))
	s.AddCommand(desc("widget", types.KindFunction))
	s.AddCommand(desc("widget", types.KindAlias))

	got := s.Lookup("widget")
	wantKinds := []types.CommandKind{types.KindAlias, types.KindFunction, types.KindCmdlet, types.KindApplication}
	if len(got) != len(wantKinds) {
		t.Fatalf("Lookup() returned %d entries, want %d", len(got), len(wantKinds))
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Errorf("Lookup()[%d].Kind = %v, want %v", i, got[i].Kind, k)
		}
	}
}

func TestScope_AddCommand_MostRecentFirstWithinPriority(t *testing.T) {
	t.Parallel()

	s := NewGlobal()
	s.AddCommand(moduleDesc("widget", types.KindFunction, "First"))
	s.AddCommand(moduleDesc("widget", types.KindFunction, "Second"))

	got := s.Lookup("widget")
	if len(got) != 2 {
		t.Fatalf("Lookup() returned %d entries, want 2", len(got))
	}
	if got[0].ModuleName != "Second" {
		t.Errorf("most recently added equal-priority entry should come first, got %q", got[0].ModuleName)
	}
}

func TestScope_AddCommand_ReplacesSameKindSameOrigin(t *testing.T) {
	t.Parallel()

	s := NewGlobal()
	s.AddCommand(moduleDesc("widget", types.KindCmdlet, "Utils"))
	updated := moduleDesc("widget", types.KindCmdlet, "Utils")
	updated.Definition = "v2"
	s.AddCommand(updated)

	got := s.Lookup("widget")
	if len(got) != 1 {
		t.Fatalf("re-registration should replace, not duplicate: got %d entries", len(got))
	}
	if got[0].Definition != "v2" {
		t.Error("re-registration should install the new descriptor")
	}
}

func TestScope_AddRehydrated(t *testing.T) {
	t.Parallel()

	s := NewGlobal()
	s.AddCommand(desc("widget", types.KindFunction))

	// Equal priority: discarded.
	if s.AddRehydrated(desc("widget", types.KindScript)) {
		t.Error("rehydrated equal-priority entry should be discarded")
	}
	// Lower priority (higher number): discarded.
	if s.AddRehydrated(desc("widget", types.KindCmdlet)) {
		t.Error("rehydrated lower-priority entry should be discarded")
	}
	// Higher priority: accepted.
	if !s.AddRehydrated(desc("widget", types.KindAlias)) {
		t.Error("rehydrated higher-priority entry should be inserted")
	}

	got := s.Lookup("widget")
	if len(got) != 2 || got[0].Kind != types.KindAlias {
		t.Errorf("unexpected table state after rehydration: %v", got)
	}
}

func TestScope_CaseInsensitiveLookup(t *testing.T) {
	t.Parallel()

	s := NewGlobal()
	s.AddCommand(desc("Get-Widget", types.KindCmdlet))

	if got := s.Lookup("get-widget"); len(got) != 1 {
		t.Error("lookup should be case-insensitive")
	}
	if got := s.Lookup("GET-WIDGET"); len(got) != 1 {
		t.Error("lookup should be case-insensitive")
	}
}

func TestScope_RemoveCommand_ByModuleOrigin(t *testing.T) {
	t.Parallel()

	s := NewGlobal()
	s.AddCommand(moduleDesc("widget", types.KindCmdlet, "Utils"))
	s.AddCommand(moduleDesc("widget", types.KindCmdlet, "Other"))
	s.AddCommand(desc("widget", types.KindFunction)) // session-local

	if n := s.RemoveCommand("widget", "Utils"); n != 1 {
		t.Fatalf("RemoveCommand(Utils) removed %d, want 1", n)
	}

	remaining := s.Lookup("widget")
	if len(remaining) != 2 {
		t.Fatalf("got %d entries after removal, want 2", len(remaining))
	}
	for _, d := range remaining {
		if d.ModuleName == "Utils" {
			t.Error("Utils entry should be gone")
		}
	}

	// Empty module qualifier removes only session-local entries.
	if n := s.RemoveCommand("widget", ""); n != 1 {
		t.Fatalf("RemoveCommand(\"\") removed %d, want 1", n)
	}
	if got := s.Lookup("widget"); len(got) != 1 || got[0].ModuleName != "Other" {
		t.Errorf("unexpected remaining entries: %v", got)
	}
}

func TestScope_RemoveCommand_Miss(t *testing.T) {
	t.Parallel()

	s := NewGlobal()
	s.AddCommand(moduleDesc("widget", types.KindCmdlet, "Utils"))

	if n := s.RemoveCommand("widget", "NoSuchModule"); n != 0 {
		t.Errorf("RemoveCommand() removed %d entries for unknown origin, want 0", n)
	}
	if n := s.RemoveCommand("nosuchname", "Utils"); n != 0 {
		t.Errorf("RemoveCommand() removed %d entries for unknown name, want 0", n)
	}
}

func TestScope_LookupVisible(t *testing.T) {
	t.Parallel()

	s := NewGlobal()
	private := desc("widget", types.KindFunction)
	private.Visibility = types.Private
	s.AddCommand(private)
	s.AddCommand(desc("widget", types.KindCmdlet))

	// Runspace origin cannot see the private function.
	got := s.LookupVisible("widget", types.OriginRunspace, types.AllKinds)
	if len(got) != 1 || got[0].Kind != types.KindCmdlet {
		t.Errorf("runspace origin should only see the public cmdlet, got %v", got)
	}

	// Internal origin sees both.
	got = s.LookupVisible("widget", types.OriginInternal, types.AllKinds)
	if len(got) != 2 {
		t.Errorf("internal origin should see both entries, got %d", len(got))
	}

	// Kind filter applies.
	got = s.LookupVisible("widget", types.OriginInternal, types.Set(types.KindCmdlet))
	if len(got) != 1 || got[0].Kind != types.KindCmdlet {
		t.Errorf("kind filter should restrict results, got %v", got)
	}
}

func TestScope_ChildParentLinks(t *testing.T) {
	t.Parallel()

	global := NewGlobal()
	mid := global.NewChild()
	leaf := mid.NewChild()

	if leaf.Parent() != mid || mid.Parent() != global || global.Parent() != nil {
		t.Error("parent links are wrong")
	}
	if leaf.Global() != global {
		t.Error("Global() should find the root scope")
	}
}

func TestScope_ConcurrentReadersAndWriters(t *testing.T) {
	t.Parallel()

	s := NewGlobal()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.AddCommand(moduleDesc("widget", types.KindCmdlet, "Utils"))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				for _, d := range s.Lookup("widget") {
					_ = d.Kind
				}
			}
		}()
	}
	wg.Wait()
}
