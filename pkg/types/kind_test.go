// SPDX-License-Identifier: MPL-2.0

package types

import "testing"

func TestCommandKind_LookupPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind CommandKind
		want int
	}{
		{KindAlias, 10},
		{KindFunction, 20},
		{KindFilter, 20},
		{KindScript, 20},
		{KindWorkflow, 20},
		{KindConfiguration, 20},
		{KindCmdlet, 30},
		{KindApplication, 40},
		{KindExternalScript, 40},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()
			if got := tt.kind.LookupPriority(); got != tt.want {
				t.Errorf("%v.LookupPriority() = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestCommandKind_PriorityOrdering(t *testing.T) {
	t.Parallel()

	// The ordering contract: alias beats function beats cmdlet beats
	// application. Lower value wins.
	if !(KindAlias.LookupPriority() < KindFunction.LookupPriority()) {
		t.Error("alias should be preferred over function")
	}
	if !(KindFunction.LookupPriority() < KindCmdlet.LookupPriority()) {
		t.Error("function should be preferred over cmdlet")
	}
	if !(KindCmdlet.LookupPriority() < KindApplication.LookupPriority()) {
		t.Error("cmdlet should be preferred over application")
	}
}

func TestKindSet(t *testing.T) {
	t.Parallel()

	s := Set(KindAlias, KindFunction)
	if !s.Has(KindAlias) || !s.Has(KindFunction) {
		t.Error("Set() did not record its members")
	}
	if s.Has(KindCmdlet) {
		t.Error("Set() contains a kind it was not given")
	}

	s = s.Add(KindCmdlet)
	if !s.Has(KindCmdlet) {
		t.Error("Add() did not record the new kind")
	}

	if KindSet(0).IsEmpty() != true {
		t.Error("zero KindSet should be empty")
	}

	for k := KindAlias; k <= KindConfiguration; k++ {
		if !AllKinds.Has(k) {
			t.Errorf("AllKinds should contain %v", k)
		}
	}
}

func TestKindSet_String(t *testing.T) {
	t.Parallel()

	got := Set(KindAlias, KindCmdlet).String()
	want := "alias, cmdlet"
	if got != want {
		t.Errorf("KindSet.String() = %q, want %q", got, want)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want CommandKind
		ok   bool
	}{
		{"alias", KindAlias, true},
		{"Function", KindFunction, true},
		{"  cmdlet ", KindCmdlet, true},
		{"externalscript", KindExternalScript, true},
		{"application", KindApplication, true},
		{"bogus", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseKind(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseKind(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
