// Package archive implements ifaces.ResourceReader over an io.Reader of
// concatenated, length-prefixed resource chunks — standing in for the
// compressed archive format spec.md places out of scope. It honors
// sparse maps: a Hole segment advances the logical offset without
// consuming any stream bytes, keeping offsets monotonically
// non-decreasing the way the dispatcher requires.
package archive

import (
	"encoding/binary"
	"io"

	"github.com/lkc-technologies/fwact/internal/ferrors"
	"github.com/lkc-technologies/fwact/internal/ifaces"
	"github.com/lkc-technologies/fwact/internal/sparsemap"
)

// chunkSize is the maximum number of data bytes returned by one Read.
const chunkSize = 64 * 1024

// Reader streams one resource's data-run bytes out of r, interleaving
// Hole segments as pure offset advances.
type Reader struct {
	r    io.Reader
	segs []sparsemap.Segment
	buf  []byte

	segIdx      int
	segRemain   int64
	logicalOff  int64
	emittedHole bool
}

// New returns a Reader over r for the resource described by m.
func New(r io.Reader, m sparsemap.Map) *Reader {
	return &Reader{
		r:    r,
		segs: m.Segments,
		buf:  make([]byte, chunkSize),
	}
}

// Read implements ifaces.ResourceReader: it returns the next chunk of
// data bytes at its logical offset, advancing past any Hole segments
// without reading from r. A Len == 0 chunk signals end of stream.
func (rd *Reader) Read() (ifaces.Chunk, error) {
	for {
		if rd.segIdx >= len(rd.segs) {
			return ifaces.Chunk{}, nil
		}

		seg := rd.segs[rd.segIdx]
		if rd.segRemain == 0 {
			rd.segRemain = seg.Length
			rd.emittedHole = false
		}

		if seg.Kind == sparsemap.Hole {
			rd.logicalOff += rd.segRemain
			rd.segRemain = 0
			rd.segIdx++
			continue
		}

		if rd.segRemain == 0 {
			rd.segIdx++
			continue
		}

		want := int64(len(rd.buf))
		if want > rd.segRemain {
			want = rd.segRemain
		}

		n, err := io.ReadFull(rd.r, rd.buf[:want])
		if err != nil {
			return ifaces.Chunk{}, ferrors.WrapIO("archive", err)
		}

		off := rd.logicalOff
		rd.logicalOff += int64(n)
		rd.segRemain -= int64(n)
		if rd.segRemain == 0 {
			rd.segIdx++
		}

		return ifaces.Chunk{Buf: rd.buf, Len: n, Offset: off}, nil
	}
}

// length-prefixed framing used when resource payloads are concatenated
// in a single archive stream ahead of time: each resource's data-run
// bytes are preceded by a uint64 little-endian byte count. FrameLen
// reads that count so a caller can size an io.LimitReader around one
// resource's bytes before constructing a Reader over it.
func FrameLen(r io.Reader) (int64, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, ferrors.WrapIO("archive", err)
	}
	return int64(binary.LittleEndian.Uint64(lenBuf[:])), nil
}
