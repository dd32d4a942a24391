// Package sparsemap describes a resource's logical layout as an ordered
// sequence of data and hole segments, and derives the totals actions need
// without ever letting them drift out of sync with the segment list.
package sparsemap

// Kind is the kind of one segment of a sparse map.
type Kind int

const (
	// Data segments carry bytes that must be read from the resource
	// stream and written to the destination.
	Data Kind = iota
	// Hole segments are logical zero regions the resource stream never
	// emits bytes for.
	Hole
)

func (k Kind) String() string {
	if k == Hole {
		return "hole"
	}
	return "data"
}

// Segment is one run of a sparse map.
type Segment struct {
	Kind   Kind
	Length int64
}

// Map is a resource's sparse layout: an ordered sequence of data and hole
// segments. All derived quantities are methods, not precomputed fields, so
// they can never drift out of sync with Segments.
type Map struct {
	Segments []Segment
}

// DataSize is the sum of all Data segment lengths: the number of bytes the
// resource reader will actually emit.
func (m Map) DataSize() int64 {
	var total int64
	for _, s := range m.Segments {
		if s.Kind == Data {
			total += s.Length
		}
	}
	return total
}

// TotalSize is the sum of every segment's length: the resource's logical
// size once holes are expanded back to zeroes.
func (m Map) TotalSize() int64 {
	var total int64
	for _, s := range m.Segments {
		total += s.Length
	}
	return total
}

// EndingHoleSize is the length of a trailing Hole segment, or 0 if the map
// is empty or ends in a Data segment.
func (m Map) EndingHoleSize() int64 {
	if len(m.Segments) == 0 {
		return 0
	}
	last := m.Segments[len(m.Segments)-1]
	if last.Kind == Hole {
		return last.Length
	}
	return 0
}
