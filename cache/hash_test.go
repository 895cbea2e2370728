package cache

import (
	"strings"
	"testing"
)

func TestContentHashStable(t *testing.T) {
	a, err := ContentHash([]byte("lease agreement"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, _ := ContentHash([]byte("lease agreement"))
	c, _ := ContentHash([]byte("lease agreement."))

	if a != b {
		t.Fatalf("hash not stable: %s != %s", a, b)
	}
	if a == c {
		t.Fatalf("different content produced the same hash %s", a)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", a)
	}
}

func TestKeyIncludesRoleAndLanguage(t *testing.T) {
	h, _ := ContentHash([]byte("x"))

	if Key(h, "Tenant", "EN") != Key(h, "tenant", "en") {
		t.Fatalf("key should be case-insensitive for role and language")
	}
	if Key(h, "tenant", "en") == Key(h, "landlord", "en") {
		t.Fatalf("role must change the key")
	}
	if Key(h, "tenant", "en") == Key(h, "tenant", "hi") {
		t.Fatalf("language must change the key")
	}
}

func TestKeyUnambiguous(t *testing.T) {
	h, _ := ContentHash([]byte("x"))

	if Key(h, "tenant:hi", "en") == Key(h, "tenant", "hi:en") {
		t.Fatalf("separator inside a field must not collide with another pair")
	}
	if Key(h, "tenant", "en") == Key(h, "tenan", "ten") {
		t.Fatalf("field boundaries must change the key")
	}
	if !strings.HasPrefix(Key(h, "tenant", "en"), h+":") {
		t.Fatalf("key should start with the content hash: %s", Key(h, "tenant", "en"))
	}
}
