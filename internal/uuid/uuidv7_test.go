package uuid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	id := New()
	if !IsValid(id) {
		t.Fatalf("expected valid uuid, got %q", id)
	}
	if id[14] != '7' {
		t.Errorf("expected version 7, got %q", id)
	}
	if New() == id {
		t.Error("expected distinct ids")
	}
}

func TestNewIsTimeOrdered(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		if strings.Compare(next, prev) <= 0 {
			t.Fatalf("expected %s > %s", next, prev)
		}
		prev = next
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("0190A6F4-9C1B-7A00-8000-000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0190a6f4-9c1b-7a00-8000-000000000001" {
		t.Errorf("expected lowercase canonical form, got %s", got)
	}

	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid uuid")
	}
	if IsValid("123") {
		t.Error("expected 123 to be invalid")
	}
}
