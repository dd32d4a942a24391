package actions

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/lkc-technologies/fwact/internal/constants"
	"github.com/lkc-technologies/fwact/internal/ferrors"
	"github.com/lkc-technologies/fwact/internal/sparsemap"
)

// hashSink is the destination write-with-hash streams bytes into. Each
// File-kind action family supplies the sink that fits its destination:
// raw_write writes positionally into the block cache, fat_write writes
// positionally into a FAT file, path_write and pipe_write write
// sequentially into a plain fd or pipe.
type hashSink interface {
	// WriteAt delivers p, a slice of the resource's data bytes, at the
	// resource-relative logicalOffset. Sequential sinks may ignore
	// logicalOffset since chunks always arrive in non-decreasing order.
	WriteAt(p []byte, logicalOffset int64, allowGaps bool) error
	// Extend is called once, after the read loop ends, only when the
	// resource's sparse map has a trailing hole. It must make the
	// destination's apparent size reach totalSize; seeking alone does
	// not grow a regular file or pipe.
	Extend(totalSize int64) error
	// Flush releases any buffered, not-yet-written bytes.
	Flush() error
}

// resolvedResource is what writeWithHash needs out of the manifest for the
// File-kind action's bound event.
type resolvedResource struct {
	Title        string
	ExpectedHash string
	Map          sparsemap.Map
}

// resolveResource implements steps 1-3 of the write-with-hash algorithm:
// look up the bound event's resource, its expected digest, and its sparse
// map.
func resolveResource(ctx *Context) (resolvedResource, error) {
	if ctx.Event == nil {
		return resolvedResource{}, ferrors.NewAction(ctx.Name, ferrors.KindContextMismatch, "no bound resource event")
	}
	title := ctx.Event.Title

	sec, ok := ctx.Cfg.Section("file-resource", title)
	if !ok {
		return resolvedResource{}, ferrors.NewActionf(ctx.Name, ferrors.KindReference, "no such file-resource %q", title)
	}

	hash, ok := ctx.Cfg.String(sec, "blake2b-256")
	if !ok || len(hash) != constants.Blake2b256HexLen {
		return resolvedResource{}, ferrors.NewActionf(ctx.Name, ferrors.KindDomain, "file-resource %q has no valid blake2b-256", title)
	}

	m, ok := ctx.Cfg.SparseMap(sec)
	if !ok {
		return resolvedResource{}, ferrors.NewActionf(ctx.Name, ferrors.KindReference, "file-resource %q has no sparse map", title)
	}

	return resolvedResource{Title: title, ExpectedHash: hash, Map: m}, nil
}

// writeWithHash implements the 9-step algorithm shared by raw_write,
// fat_write, path_write and pipe_write: stream the bound resource through
// a BLAKE2b-256 digest while delivering each chunk to sink, then verify
// both the byte count and the digest against the resource's declaration.
func writeWithHash(ctx *Context, sink hashSink) error {
	res, err := resolveResource(ctx)
	if err != nil {
		return err
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}

	var bytesConsumed int64
	for {
		if cerr := ctx.cancelled(); cerr != nil {
			return ferrors.WrapIO(ctx.Name, cerr)
		}

		chunk, rerr := ctx.Read()
		if rerr != nil {
			return ferrors.WrapIO(ctx.Name, rerr)
		}
		if chunk.Len == 0 {
			break
		}
		buf := chunk.Buf[:chunk.Len]

		if _, werr := h.Write(buf); werr != nil {
			return ferrors.WrapIO(ctx.Name, werr)
		}
		if werr := sink.WriteAt(buf, chunk.Offset, false); werr != nil {
			return ferrors.WrapIO(ctx.Name, werr)
		}

		bytesConsumed += int64(chunk.Len)
		ctx.Progress.Report(uint64(chunk.Len))
	}

	// A trailing hole never passes through the read loop above (the
	// reader advances the logical offset without emitting bytes for it),
	// so the final zero-fill write here is deliberately excluded from
	// bytesConsumed for every caller, not just path_write.
	if res.Map.EndingHoleSize() > 0 {
		if eerr := sink.Extend(res.Map.TotalSize()); eerr != nil {
			return ferrors.WrapIO(ctx.Name, eerr)
		}
	}

	if ferr := sink.Flush(); ferr != nil {
		return ferrors.WrapIO(ctx.Name, ferr)
	}

	dataSize := res.Map.DataSize()
	if bytesConsumed != dataSize {
		if bytesConsumed == 0 {
			return ferrors.NewIntegrity(ctx.Name, res.Title, ferrors.SymptomLength, "didn't write anything; invoked twice?")
		}
		return ferrors.NewIntegrityf(ctx.Name, res.Title, ferrors.SymptomLength, "wrote %d, expected %d", bytesConsumed, dataSize)
	}

	got := hex.EncodeToString(h.Sum(nil))
	if got != res.ExpectedHash {
		return ferrors.NewIntegrity(ctx.Name, res.Title, ferrors.SymptomDigest, "digest mismatch")
	}

	return nil
}
