package sparsemap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMapTotals(t *testing.T) {
	m := Map{Segments: []Segment{
		{Kind: Data, Length: 100},
		{Kind: Hole, Length: 50},
		{Kind: Data, Length: 25},
	}}

	if got := m.DataSize(); got != 125 {
		t.Errorf("DataSize() = %d, want 125", got)
	}
	if got := m.TotalSize(); got != 175 {
		t.Errorf("TotalSize() = %d, want 175", got)
	}
	if got := m.EndingHoleSize(); got != 0 {
		t.Errorf("EndingHoleSize() = %d, want 0 (map ends in Data)", got)
	}
}

func TestMapEndingHole(t *testing.T) {
	m := Map{Segments: []Segment{
		{Kind: Data, Length: 100},
		{Kind: Hole, Length: 50},
	}}

	if got := m.EndingHoleSize(); got != 50 {
		t.Errorf("EndingHoleSize() = %d, want 50", got)
	}
	if got := m.TotalSize(); got != 150 {
		t.Errorf("TotalSize() = %d, want 150", got)
	}
}

func TestEmptyMap(t *testing.T) {
	var m Map
	if m.DataSize() != 0 || m.TotalSize() != 0 || m.EndingHoleSize() != 0 {
		t.Error("expected all zero quantities for an empty map")
	}
}

func TestKindString(t *testing.T) {
	if Data.String() != "data" {
		t.Errorf("Data.String() = %q, want data", Data.String())
	}
	if Hole.String() != "hole" {
		t.Errorf("Hole.String() = %q, want hole", Hole.String())
	}
}

// TestDerivedQuantitiesNeverCached guards the reason Map has no cached
// total fields: mutating Segments in place must be reflected immediately.
func TestDerivedQuantitiesNeverCached(t *testing.T) {
	m := Map{Segments: []Segment{{Kind: Data, Length: 10}}}
	if got := m.DataSize(); got != 10 {
		t.Fatalf("DataSize() = %d, want 10", got)
	}
	m.Segments = append(m.Segments, Segment{Kind: Data, Length: 20})
	if got := m.DataSize(); got != 30 {
		t.Errorf("DataSize() after append = %d, want 30", got)
	}
}

// TestSegmentsUnchangedByReads guards against a derived-quantity method
// mutating Segments as a side effect, which would be invisible from the
// totals alone since DataSize/TotalSize/EndingHoleSize are pure sums.
func TestSegmentsUnchangedByReads(t *testing.T) {
	want := []Segment{
		{Kind: Data, Length: 100},
		{Kind: Hole, Length: 50},
		{Kind: Data, Length: 25},
	}
	m := Map{Segments: append([]Segment(nil), want...)}

	m.DataSize()
	m.TotalSize()
	m.EndingHoleSize()

	if diff := cmp.Diff(want, m.Segments); diff != "" {
		t.Errorf("Segments changed after reading derived quantities (-want +got):\n%s", diff)
	}
}
