package main

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50: expected 5, got %d", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100: expected 10, got %d", got)
	}
	if got := percentile(nil, 99); got != 0 {
		t.Fatalf("empty: expected 0, got %d", got)
	}
}

func TestRunPhaseAgainstFileStore(t *testing.T) {
	store, cleanup, err := openStore(filepath.Join(t.TempDir(), "sessions.json"), "", "as", time.Hour)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer cleanup()

	stats := runPhase(20, 4, 13, func(_ *rand.Rand, i int) error {
		token, err := store.Create(t.Context(), ownerFor(i))
		if err != nil {
			return err
		}
		if _, err := store.Validate(t.Context(), token); err != nil {
			return err
		}
		return store.Destroy(t.Context(), token)
	})

	if stats.ops != 20 || stats.failures != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestOpenStoreMiniredis(t *testing.T) {
	store, cleanup, err := openStore("", "", "lt", 30*time.Minute)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer cleanup()

	if store.TTL() != 30*time.Minute {
		t.Fatalf("unexpected ttl %s", store.TTL())
	}
}
