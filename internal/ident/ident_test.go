package ident

import (
	"sort"
	"testing"
)

func TestNew_Shape(t *testing.T) {
	id, err := New(PrefixSession)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !Valid(PrefixSession, id) {
		t.Errorf("Valid(%q) = false, want true", id)
	}
	if Prefix(id) != PrefixSession {
		t.Errorf("Prefix(%q) = %q, want %q", id, Prefix(id), PrefixSession)
	}
}

func TestNew_Monotonic(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		id, err := New(PrefixMessage)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		ids[i] = id
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatal("ids generated in sequence are not lexicographically sorted")
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("duplicate id generated: %q", ids[i])
		}
	}
}

func TestValid_RejectsWrongPrefix(t *testing.T) {
	id, err := New(PrefixPart)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if Valid(PrefixMessage, id) {
		t.Errorf("Valid(msg, %q) = true, want false", id)
	}
	if Valid(PrefixPart, "prt_short") {
		t.Error("Valid accepted malformed id")
	}
}
