package token

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryRegistryRevokeIsIdempotent(t *testing.T) {
	registry := NewMemoryRegistry(time.Hour)
	defer registry.Close()

	expiry := time.Now().Add(time.Hour)
	registry.Revoke("jti-1", expiry)
	registry.Revoke("jti-1", expiry)

	if !registry.IsRevoked("jti-1") {
		t.Fatalf("expected jti-1 to be revoked")
	}
	if registry.IsRevoked("jti-2") {
		t.Fatalf("expected jti-2 to be absent")
	}
}

func TestMemoryRegistryConcurrentRevocations(t *testing.T) {
	registry := NewMemoryRegistry(time.Hour).(*memoryRegistry)
	defer registry.Close()

	expiry := time.Now().Add(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.Revoke("shared-jti", expiry)
		}()
	}
	wg.Wait()

	if !registry.IsRevoked("shared-jti") {
		t.Fatalf("expected shared-jti to be revoked")
	}
	registry.mu.Lock()
	entries := len(registry.entries)
	registry.mu.Unlock()
	if entries != 1 {
		t.Fatalf("expected exactly one entry, got %d", entries)
	}
}

func TestMemoryRegistryPrunesExpiredEntries(t *testing.T) {
	registry := NewMemoryRegistry(time.Hour).(*memoryRegistry)
	defer registry.Close()

	now := time.Now()
	registry.Revoke("stale", now.Add(-time.Minute))
	registry.Revoke("live", now.Add(time.Hour))

	registry.cleanup(now)

	if registry.IsRevoked("stale") {
		t.Fatalf("expected stale entry to be pruned")
	}
	if !registry.IsRevoked("live") {
		t.Fatalf("expected live entry to survive the sweep")
	}
}

func TestMemoryRegistryIgnoresEmptyJTI(t *testing.T) {
	registry := NewMemoryRegistry(time.Hour).(*memoryRegistry)
	defer registry.Close()

	registry.Revoke("", time.Now().Add(time.Hour))

	registry.mu.Lock()
	entries := len(registry.entries)
	registry.mu.Unlock()
	if entries != 0 {
		t.Fatalf("expected no entries, got %d", entries)
	}
}
