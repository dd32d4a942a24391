package fwact

import (
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/blake2b"

	"github.com/lkc-technologies/fwact/internal/ifaces"
	"github.com/lkc-technologies/fwact/internal/sparsemap"
)

func blakeSum(data []byte) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// fakeManifest is a minimal ifaces.ManifestTree for exercising the public
// facade end to end, the way a real caller assembles one from a parsed
// manifest document.
type fakeManifest struct {
	hash string
	segs []sparsemap.Segment
}

func (m *fakeManifest) Section(kind, name string) (ifaces.Section, bool) {
	if kind == "file-resource" && name == "img" {
		return ifaces.Section{Kind: kind, Name: name}, true
	}
	return ifaces.Section{}, false
}

func (m *fakeManifest) String(sec ifaces.Section, key string) (string, bool) {
	if key == "blake2b-256" {
		return m.hash, m.hash != ""
	}
	return "", false
}

func (m *fakeManifest) NthString(list []string, index int) (string, bool) {
	if index < 0 || index >= len(list) {
		return "", false
	}
	return list[index], true
}

func (m *fakeManifest) SparseMap(sec ifaces.Section) (sparsemap.Map, bool) {
	return sparsemap.Map{Segments: m.segs}, true
}

var _ ifaces.ManifestTree = (*fakeManifest)(nil)

func TestFacadeNamesAndLookup(t *testing.T) {
	if _, ok := Lookup("raw_write"); !ok {
		t.Fatal("expected raw_write to be a known action through the facade")
	}
	found := false
	for _, n := range Names() {
		if n == "trim" {
			found = true
		}
	}
	if !found {
		t.Error("expected trim in the facade's Names()")
	}
}

func TestFacadeGlobalActionApply(t *testing.T) {
	cache := NewMockBlockCache(1 << 16)
	ctx := &Context{
		Kind:     KindGlobal,
		Cfg:      &fakeManifest{},
		Output:   cache,
		Progress: NewProgress(NoOpObserver{}),
		Options:  ApplyOptions{AllowUnsafe: true},
	}

	list := []Action{{Name: "raw_memset", Argc: 3}}
	list[0].Argv[0] = "0"
	list[0].Argv[1] = "2"
	list[0].Argv[2] = "5"

	if err := Validate(ctx, list); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := ComputeProgress(ctx, list); err != nil {
		t.Fatalf("ComputeProgress: %v", err)
	}
	if err := Run(ctx, list); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := int64(2) * BlockSize
	got := cache.Bytes()[:want]
	for i, b := range got {
		if b != 5 {
			t.Fatalf("byte %d = %d, want 5", i, b)
		}
	}
	if cache.CallCounts()["write"] == 0 {
		t.Error("expected at least one WriteAt call recorded")
	}
}

func TestFacadeFileActionApply(t *testing.T) {
	data := []byte("complete firmware slice")
	hash := blakeSum(data)

	m := &fakeManifest{hash: hash, segs: []sparsemap.Segment{{Kind: sparsemap.Data, Length: int64(len(data))}}}
	cache := NewMockBlockCache(4096)

	var off int
	read := func() (ifaces.Chunk, error) {
		if off >= len(data) {
			return ifaces.Chunk{}, nil
		}
		buf := make([]byte, 5)
		n := copy(buf, data[off:])
		chunk := ifaces.Chunk{Buf: buf, Len: n, Offset: int64(off)}
		off += n
		return chunk, nil
	}

	ctx := &Context{
		Kind:     KindFile,
		Cfg:      m,
		Event:    &Event{Title: "img"},
		Read:     read,
		Output:   cache,
		Progress: NewProgress(NoOpObserver{}),
	}

	list := []Action{{Name: "raw_write", Argc: 1}}
	list[0].Argv[0] = "0"

	if err := Validate(ctx, list); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := ComputeProgress(ctx, list); err != nil {
		t.Fatalf("ComputeProgress: %v", err)
	}
	if err := Run(ctx, list); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := cache.Bytes()[:len(data)]
	if string(got) != string(data) {
		t.Errorf("written data = %q, want %q", got, data)
	}
}
