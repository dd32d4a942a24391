package actions

import "github.com/lkc-technologies/fwact/internal/ifaces"

// padWriter sits between the write-with-hash helper and the block cache.
// It buffers writes that do not start or end on a block boundary,
// coalesces them with neighbouring writes landing in the same block, and
// flushes whole blocks to the cache. Every byte passed to Write appears
// exactly once at its destination offset once Flush returns.
type padWriter struct {
	out       ifaces.BlockCache
	blockSize int64

	hasPending   bool
	pendingBlock int64
	pending      []byte
	lo, hi       int64 // filled range within pending, [lo, hi)
	allowGaps    bool
}

func newPadWriter(out ifaces.BlockCache, blockSize int64) *padWriter {
	return &padWriter{out: out, blockSize: blockSize}
}

// Write stages p at destination offset off. allowGaps governs the block
// this write lands in; if any write into a block requests allowGaps, the
// whole block is flushed with allowGaps=true.
func (w *padWriter) Write(p []byte, off int64, allowGaps bool) error {
	for len(p) > 0 {
		blockIdx := off / w.blockSize
		blockOff := off % w.blockSize

		if w.hasPending && w.pendingBlock != blockIdx {
			if err := w.Flush(); err != nil {
				return err
			}
		}
		if !w.hasPending {
			w.pending = getBuffer(int(w.blockSize))
			w.pendingBlock = blockIdx
			w.lo = w.blockSize
			w.hi = 0
			w.allowGaps = false
			w.hasPending = true
		}

		n := int64(len(p))
		if room := w.blockSize - blockOff; n > room {
			n = room
		}
		copy(w.pending[blockOff:blockOff+n], p[:n])
		if blockOff < w.lo {
			w.lo = blockOff
		}
		if blockOff+n > w.hi {
			w.hi = blockOff + n
		}
		w.allowGaps = w.allowGaps || allowGaps

		p = p[n:]
		off += n
	}
	return nil
}

// Flush writes the pending block, if any, to the cache and releases its
// scratch buffer back to the pool.
func (w *padWriter) Flush() error {
	if !w.hasPending {
		return nil
	}
	buf := w.pending
	blockOff := w.pendingBlock * w.blockSize
	allowGaps := w.allowGaps || w.lo != 0 || w.hi != w.blockSize

	_, err := w.out.WriteAt(buf, blockOff, allowGaps)

	putBuffer(buf)
	w.pending = nil
	w.hasPending = false
	if err != nil {
		return err
	}
	return nil
}
