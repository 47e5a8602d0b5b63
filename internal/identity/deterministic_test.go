package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestPostUUIDIsStable(t *testing.T) {
	first := PostUUID("hello-world")
	second := PostUUID("  Hello-World ")
	if first == uuid.Nil {
		t.Fatalf("expected non-nil id")
	}
	if first != second {
		t.Fatalf("expected normalised slugs to share an id, got %s and %s", first, second)
	}
	if PostUUID("other") == first {
		t.Fatalf("expected distinct slugs to yield distinct ids")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("expected nil uuid, got %s", got)
	}
}
