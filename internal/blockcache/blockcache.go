// Package blockcache implements ifaces.BlockCache over any destination
// satisfying Destination (io.ReaderAt + io.WriterAt + Sync + Fd): an image file opened
// with os.OpenFile, or a block device node. It shards its locking the
// way the teacher's in-memory backend does, so concurrent future callers
// aren't serialized behind one mutex, even though the dispatcher itself
// drives it strictly sequentially.
package blockcache

import (
	"io"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/lkc-technologies/fwact/internal/constants"
	"github.com/lkc-technologies/fwact/internal/ferrors"
)

// shardSpan is the byte range one lock in Cache.shards covers.
const shardSpan = 64 * 1024

// Destination is the minimal file-shaped contract Cache needs.
type Destination interface {
	io.ReaderAt
	io.WriterAt
	Sync() error
	Fd() uintptr
}

// Cache wraps a Destination with sharded locking and best-effort TRIM.
type Cache struct {
	dest   Destination
	shards []sync.RWMutex
}

// New wraps dest, sized so its shard count covers a destination of size
// bytes. size may be 0 for a destination that can grow (a plain file).
// The shard count is fixed here (at least one); ranges beyond size map
// onto the existing shards by index modulo the shard count.
func New(dest Destination, size int64) *Cache {
	numShards := int((size + shardSpan - 1) / shardSpan)
	if numShards < 1 {
		numShards = 1
	}
	return &Cache{dest: dest, shards: make([]sync.RWMutex, numShards)}
}

func (c *Cache) shardRange(off, length int64) (start, end int) {
	start = int(off / shardSpan)
	end = int((off + length - 1) / shardSpan)
	if end >= len(c.shards) {
		end = len(c.shards) - 1
	}
	if end < start {
		end = start
	}
	return start, end
}

// ReadAt implements ifaces.BlockCache.
func (c *Cache) ReadAt(p []byte, off int64) (int, error) {
	start, end := c.shardRange(off, int64(len(p)))
	for i := start; i <= end; i++ {
		c.shards[i%len(c.shards)].RLock()
	}
	defer func() {
		for i := start; i <= end; i++ {
			c.shards[i%len(c.shards)].RUnlock()
		}
	}()

	n, err := c.dest.ReadAt(p, off)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

// WriteAt implements ifaces.BlockCache. allowGaps is accepted for
// contract symmetry with the pad-to-block writer; this destination has
// no intra-block cache to leave sparse, so every write lands verbatim.
func (c *Cache) WriteAt(p []byte, off int64, allowGaps bool) (int, error) {
	start, end := c.shardRange(off, int64(len(p)))
	for i := start; i <= end; i++ {
		c.shards[i%len(c.shards)].Lock()
	}
	defer func() {
		for i := start; i <= end; i++ {
			c.shards[i%len(c.shards)].Unlock()
		}
	}()

	return c.dest.WriteAt(p, off)
}

// Trim discards the byte range [off, off+length) by punching a hole with
// fallocate(FALLOC_FL_PUNCH_HOLE) when the destination supports it (a
// regular file, or a block device that implements the same fallocate
// semantics), falling back to an explicit zero-fill otherwise. A failed
// fallocate is tolerated and leads to the zero-fill; a failed zero-fill
// write is returned as an error.
func (c *Cache) Trim(off, length int64, allowGaps bool) error {
	if err := unix.Fallocate(int(c.dest.Fd()), unix.FALLOC_FL_PUNCH_HOLE|unix.FALLOC_FL_KEEP_SIZE, off, length); err == nil {
		return nil
	}
	// Hole punching is not available on this destination; fall back to
	// an explicit zero-fill so the region reads as a hole regardless.
	zero := make([]byte, constants.BlockSize)
	for done := int64(0); done < length; done += int64(len(zero)) {
		n := int64(len(zero))
		if done+n > length {
			n = length - done
		}
		if _, err := c.WriteAt(zero[:n], off+done, allowGaps); err != nil {
			return ferrors.WrapIO("trim", err)
		}
	}
	return nil
}

// Flush implements ifaces.BlockCache as an fsync.
func (c *Cache) Flush() error {
	return c.dest.Sync()
}
