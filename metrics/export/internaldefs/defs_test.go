package internaldefs

import (
	"strings"
	"testing"
)

func TestCounterDefsAreUniqueAndPrefixed(t *testing.T) {
	names := map[string]bool{}
	for _, def := range CounterDefs {
		if !strings.HasPrefix(def.Name, "goaccount_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("bad counter name %q", def.Name)
		}
		if names[def.Name] {
			t.Fatalf("duplicate counter name %q", def.Name)
		}
		names[def.Name] = true
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 0, 2}))
	want := [8]uint64{1, 1, 3, 3, 3, 3, 3, 3}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(HistogramBounds) != len(got) || len(HistogramBoundSuffix) != len(got) {
		t.Fatal("bucket bounds out of sync with bucket count")
	}
}
