// Package ifaces defines the external collaborator contracts the dispatcher
// consumes. These are kept separate from the root package so that both the
// root package and internal/actions can depend on them without a cycle.
package ifaces

import "github.com/lkc-technologies/fwact/internal/sparsemap"

// BlockCache is a bounded cache over a byte-offset-addressable destination
// (disk, image file, or named device). allowGaps controls whether a write
// may leave uninitialized intra-block regions.
type BlockCache interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64, allowGaps bool) (int, error)
	Trim(off, length int64, allowGaps bool) error
	Flush() error
}

// Chunk is one slice of a resource's decompressed stream, at its logical
// offset within that resource.
type Chunk struct {
	Buf    []byte
	Len    int
	Offset int64
}

// ResourceReader yields successive chunks of a named resource. A Len == 0
// chunk signals end of stream.
type ResourceReader interface {
	Read() (Chunk, error)
}

// Section identifies a named block within the manifest tree, e.g.
// ("file-resource", "rootfs.img") or ("mbr", "main").
type Section struct {
	Kind string
	Name string
}

// ManifestTree is the read-only configuration the dispatcher consults for
// section existence and key lookups. It never mutates and may be shared by
// reference across the whole apply.
type ManifestTree interface {
	// Section looks up a named section of the given kind, e.g. "file-resource".
	Section(kind, name string) (Section, bool)
	// String reads a string value out of a previously-resolved section.
	String(sec Section, key string) (string, bool)
	// NthString reads the index'th flat string out of an action-list-shaped
	// option (arity-prefixed argv encoding).
	NthString(list []string, index int) (string, bool)
	// SparseMap returns the sparse layout of a file-resource section.
	SparseMap(sec Section) (sparsemap.Map, bool)
}

// Logger is the minimal logging surface the dispatcher and its actions use
// for user-visible warnings (the info() action) and debug tracing.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// ProgressObserver receives progress updates as actions run. Implementations
// must be safe to call from the apply loop; the dispatcher itself never
// calls an observer from more than one goroutine.
type ProgressObserver interface {
	ObserveProgress(unitsDone, totalUnits uint64)
}
