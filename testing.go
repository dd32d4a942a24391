package fwact

import (
	"sync"

	"github.com/lkc-technologies/fwact/internal/ifaces"
)

// MockBlockCache is an in-memory ifaces.BlockCache for exercising actions
// in tests without a real block device. It tracks call counts the way
// the teacher's MockBackend does, for assertions about which operations
// an action actually performed.
type MockBlockCache struct {
	mu   sync.Mutex
	data []byte

	readCalls  int
	writeCalls int
	trimCalls  int
	flushCalls int
}

// NewMockBlockCache returns a MockBlockCache backed by size zeroed bytes.
func NewMockBlockCache(size int64) *MockBlockCache {
	return &MockBlockCache{data: make([]byte, size)}
}

// Bytes returns the cache's current contents. The caller must not mutate
// the returned slice.
func (m *MockBlockCache) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}

func (m *MockBlockCache) grow(to int64) {
	if to <= int64(len(m.data)) {
		return
	}
	grown := make([]byte, to)
	copy(grown, m.data)
	m.data = grown
}

// ReadAt implements ifaces.BlockCache.
func (m *MockBlockCache) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++

	if off >= int64(len(m.data)) {
		return 0, nil
	}
	n := copy(p, m.data[off:])
	return n, nil
}

// WriteAt implements ifaces.BlockCache. allowGaps is accepted but not
// enforced: the mock never distinguishes an uninitialized hole from an
// explicit zero.
func (m *MockBlockCache) WriteAt(p []byte, off int64, allowGaps bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++

	m.grow(off + int64(len(p)))
	n := copy(m.data[off:], p)
	return n, nil
}

// Trim implements ifaces.BlockCache by zeroing the named range.
func (m *MockBlockCache) Trim(off, length int64, allowGaps bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimCalls++

	if off >= int64(len(m.data)) {
		return nil
	}
	end := off + length
	if end > int64(len(m.data)) {
		end = int64(len(m.data))
	}
	for i := off; i < end; i++ {
		m.data[i] = 0
	}
	return nil
}

// Flush implements ifaces.BlockCache as a no-op call-counter.
func (m *MockBlockCache) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushCalls++
	return nil
}

// CallCounts returns how many times each operation has been invoked.
func (m *MockBlockCache) CallCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{
		"read":  m.readCalls,
		"write": m.writeCalls,
		"trim":  m.trimCalls,
		"flush": m.flushCalls,
	}
}

var _ ifaces.BlockCache = (*MockBlockCache)(nil)
