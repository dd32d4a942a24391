package actions

import (
	"sync"

	"github.com/lkc-technologies/fwact/internal/ifaces"
	"github.com/lkc-technologies/fwact/internal/progress"
	"github.com/lkc-technologies/fwact/internal/sparsemap"
)

// fakeCache is a minimal in-memory ifaces.BlockCache for exercising
// actions in isolation, without pulling in the root package's
// MockBlockCache (which would make internal/actions import its own
// importer).
type fakeCache struct {
	mu         sync.Mutex
	data       []byte
	trimCalls  []([2]int64)
	flushCalls int
}

func newFakeCache(size int64) *fakeCache {
	return &fakeCache{data: make([]byte, size)}
}

func (c *fakeCache) grow(to int64) {
	if to <= int64(len(c.data)) {
		return
	}
	grown := make([]byte, to)
	copy(grown, c.data)
	c.data = grown
}

func (c *fakeCache) ReadAt(p []byte, off int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if off >= int64(len(c.data)) {
		return 0, nil
	}
	return copy(p, c.data[off:]), nil
}

func (c *fakeCache) WriteAt(p []byte, off int64, allowGaps bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grow(off + int64(len(p)))
	return copy(c.data[off:], p), nil
}

func (c *fakeCache) Trim(off, length int64, allowGaps bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trimCalls = append(c.trimCalls, [2]int64{off, length})
	end := off + length
	if end > int64(len(c.data)) {
		end = int64(len(c.data))
	}
	for i := off; i < end; i++ {
		c.data[i] = 0
	}
	return nil
}

func (c *fakeCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushCalls++
	return nil
}

func (c *fakeCache) bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.data...)
}

var _ ifaces.BlockCache = (*fakeCache)(nil)

// fileRes is one file-resource entry a fakeTree serves.
type fileRes struct {
	hash string
	segs []sparsemap.Segment
}

// fakeTree is a minimal ifaces.ManifestTree backing the action unit tests:
// just enough section/string/sparse-map lookups to drive validate,
// compute_progress and run without parsing an actual manifest document.
type fakeTree struct {
	resources map[string]fileRes
	mbrs      map[string]map[string]string
	ubootEnvs map[string]map[string]string
}

func newFakeTree() *fakeTree {
	return &fakeTree{
		resources: map[string]fileRes{},
		mbrs:      map[string]map[string]string{},
		ubootEnvs: map[string]map[string]string{},
	}
}

func (t *fakeTree) Section(kind, name string) (ifaces.Section, bool) {
	switch kind {
	case "file-resource":
		if _, ok := t.resources[name]; ok {
			return ifaces.Section{Kind: kind, Name: name}, true
		}
	case "mbr":
		if _, ok := t.mbrs[name]; ok {
			return ifaces.Section{Kind: kind, Name: name}, true
		}
	case "uboot-environment":
		if _, ok := t.ubootEnvs[name]; ok {
			return ifaces.Section{Kind: kind, Name: name}, true
		}
	}
	return ifaces.Section{}, false
}

func (t *fakeTree) String(sec ifaces.Section, key string) (string, bool) {
	switch sec.Kind {
	case "file-resource":
		if key != "blake2b-256" {
			return "", false
		}
		r, ok := t.resources[sec.Name]
		return r.hash, ok
	case "mbr":
		v, ok := t.mbrs[sec.Name][key]
		return v, ok
	case "uboot-environment":
		v, ok := t.ubootEnvs[sec.Name][key]
		return v, ok
	}
	return "", false
}

func (t *fakeTree) NthString(list []string, index int) (string, bool) {
	if index < 0 || index >= len(list) {
		return "", false
	}
	return list[index], true
}

func (t *fakeTree) SparseMap(sec ifaces.Section) (sparsemap.Map, bool) {
	if sec.Kind != "file-resource" {
		return sparsemap.Map{}, false
	}
	r, ok := t.resources[sec.Name]
	if !ok {
		return sparsemap.Map{}, false
	}
	return sparsemap.Map{Segments: r.segs}, true
}

var _ ifaces.ManifestTree = (*fakeTree)(nil)

// chunkReader turns a fixed byte slice into a Context.Read closure that
// hands out chunkSize-sized pieces, the shape a real archive.Reader
// returns.
func chunkReader(data []byte, chunkLen int) func() (ifaces.Chunk, error) {
	var off int
	buf := make([]byte, chunkLen)
	return func() (ifaces.Chunk, error) {
		if off >= len(data) {
			return ifaces.Chunk{}, nil
		}
		n := copy(buf, data[off:])
		if n > chunkLen {
			n = chunkLen
		}
		chunk := ifaces.Chunk{Buf: buf, Len: n, Offset: int64(off)}
		off += n
		return chunk, nil
	}
}

// newTestContext builds a Context wired to a fakeCache and fakeTree, ready
// for an action's validate/compute_progress/run to bind an Action onto.
func newTestContext(kind ExecutionKind, cache *fakeCache, tree *fakeTree) *Context {
	return &Context{
		Kind:     kind,
		Cfg:      tree,
		Output:   cache,
		Progress: progress.New(nil),
		Options:  ApplyOptions{AllowUnsafe: true},
	}
}

func bindAction(ctx *Context, name string, argv ...string) {
	var a Action
	a.Name = name
	a.Argc = len(argv)
	for i, v := range argv {
		a.Argv[i] = v
	}
	ctx.bind(a)
}
