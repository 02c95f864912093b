package utils

import "testing"

func TestHashString(t *testing.T) {
	a := HashString("some normalized record text")
	b := HashString("some normalized record text")
	c := HashString("different text")

	if a != b {
		t.Fatalf("same input hashed differently: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("different inputs collided: %s", a)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(a))
	}
}
