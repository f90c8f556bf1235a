package auth

import (
	"testing"
	"time"

	"torrentcore/internal/domain/ports"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(time.Hour)

	id, err := r.Create(ports.AuthLevelNormal)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !r.IsValid(id) {
		t.Fatal("fresh session should be valid")
	}
	if r.Level(id) != ports.AuthLevelNormal {
		t.Fatalf("level = %v, want Normal", r.Level(id))
	}

	r.Revoke(id)
	if r.IsValid(id) {
		t.Fatal("revoked session should be invalid")
	}
	if r.Level(id) != ports.AuthLevelNone {
		t.Fatal("revoked session should have no privilege")
	}
}

func TestRegistryExpiry(t *testing.T) {
	r := NewRegistry(time.Minute)
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return current }

	id, err := r.Create(ports.AuthLevelAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !r.IsValid(id) {
		t.Fatal("session should be valid before expiry")
	}

	current = current.Add(2 * time.Minute)
	if r.IsValid(id) {
		t.Fatal("session should expire")
	}

	if removed := r.Prune(); removed != 1 {
		t.Fatalf("Prune removed %d, want 1", removed)
	}
}

func TestRegistryUniqueIDs(t *testing.T) {
	r := NewRegistry(time.Hour)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := r.Create(ports.AuthLevelNormal)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[id] {
			t.Fatal("duplicate session id")
		}
		seen[id] = true
	}
}
