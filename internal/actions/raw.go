package actions

import (
	"github.com/lkc-technologies/fwact/internal/constants"
	"github.com/lkc-technologies/fwact/internal/ferrors"
)

func init() {
	register("raw_write", Info{
		Validate:        rawWriteValidate,
		ComputeProgress: rawWriteComputeProgress,
		Run:             rawWriteRun,
	})
	register("raw_memset", Info{
		Validate:        rawMemsetValidate,
		ComputeProgress: rawMemsetComputeProgress,
		Run:             rawMemsetRun,
	})
}

type parsedRawWrite struct {
	OffsetBlocks int64
}

func rawWriteValidate(ctx *Context) error {
	if err := requireKind(ctx, KindFile); err != nil {
		return err
	}
	if err := requireArgc(ctx, 1); err != nil {
		return err
	}
	offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	if err != nil {
		return err
	}
	ctx.SetParsed(parsedRawWrite{OffsetBlocks: offset})
	return nil
}

func rawWriteComputeProgress(ctx *Context) error {
	res, err := resolveResource(ctx)
	if err != nil {
		return err
	}
	ctx.Progress.AddTotal(uint64(res.Map.DataSize()))
	return nil
}

func rawWriteRun(ctx *Context) error {
	p, ok := ctx.Parsed().(parsedRawWrite)
	if !ok {
		var err error
		p, err = parseRawWriteArgs(ctx)
		if err != nil {
			return err
		}
	}

	sink := &rawSink{
		baseOff: p.OffsetBlocks * constants.BlockSize,
		pad:     newPadWriter(ctx.Output, constants.BlockSize),
	}
	return writeWithHash(ctx, sink)
}

func parseRawWriteArgs(ctx *Context) (parsedRawWrite, error) {
	if err := requireArgc(ctx, 1); err != nil {
		return parsedRawWrite{}, err
	}
	offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	if err != nil {
		return parsedRawWrite{}, err
	}
	return parsedRawWrite{OffsetBlocks: offset}, nil
}

// rawSink streams write-with-hash's output into the block cache at
// baseOff + logicalOffset, through the pad-to-block coalescing writer.
type rawSink struct {
	pad     *padWriter
	baseOff int64
}

func (s *rawSink) WriteAt(p []byte, logicalOffset int64, allowGaps bool) error {
	return s.pad.Write(p, s.baseOff+logicalOffset, allowGaps)
}

func (s *rawSink) Extend(totalSize int64) error {
	if totalSize <= 0 {
		return nil
	}
	zero := getBuffer(1)
	defer putBuffer(zero)
	return s.pad.Write(zero, s.baseOff+totalSize-1, true)
}

func (s *rawSink) Flush() error {
	return s.pad.Flush()
}

type parsedRawMemset struct {
	OffsetBlocks int64
	CountBlocks  int64
	ByteValue    byte
}

func rawMemsetValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 3); err != nil {
		return err
	}
	offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	if err != nil {
		return err
	}
	count, err := parseNonNegInt(ctx.Name, ctx.Argv[1])
	if err != nil {
		return err
	}
	if count > constants.MaxMemsetBlocks {
		return ferrors.NewActionf(ctx.Name, ferrors.KindDomain, "count_blocks %d exceeds maximum %d", count, constants.MaxMemsetBlocks)
	}
	value, err := parseByteValue(ctx.Name, ctx.Argv[2])
	if err != nil {
		return err
	}
	ctx.SetParsed(parsedRawMemset{OffsetBlocks: offset, CountBlocks: count, ByteValue: value})
	return nil
}

func rawMemsetComputeProgress(ctx *Context) error {
	p, err := parsedMemsetArgs(ctx)
	if err != nil {
		return err
	}
	ctx.Progress.AddTotal(uint64(p.CountBlocks * constants.BlockSize))
	return nil
}

func rawMemsetRun(ctx *Context) error {
	p, err := parsedMemsetArgs(ctx)
	if err != nil {
		return err
	}

	buf := getBuffer(constants.BlockSize)
	defer putBuffer(buf)
	for i := range buf {
		buf[i] = p.ByteValue
	}

	for i := int64(0); i < p.CountBlocks; i++ {
		if cerr := ctx.cancelled(); cerr != nil {
			return ferrors.WrapIO(ctx.Name, cerr)
		}
		off := (p.OffsetBlocks + i) * constants.BlockSize
		if _, werr := ctx.Output.WriteAt(buf, off, false); werr != nil {
			return ferrors.WrapIO(ctx.Name, werr)
		}
		ctx.Progress.Report(constants.BlockSize)
	}
	return nil
}

func parsedMemsetArgs(ctx *Context) (parsedRawMemset, error) {
	if p, ok := ctx.Parsed().(parsedRawMemset); ok {
		return p, nil
	}
	if err := requireArgc(ctx, 3); err != nil {
		return parsedRawMemset{}, err
	}
	offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	if err != nil {
		return parsedRawMemset{}, err
	}
	count, err := parseNonNegInt(ctx.Name, ctx.Argv[1])
	if err != nil {
		return parsedRawMemset{}, err
	}
	value, err := parseByteValue(ctx.Name, ctx.Argv[2])
	if err != nil {
		return parsedRawMemset{}, err
	}
	return parsedRawMemset{OffsetBlocks: offset, CountBlocks: count, ByteValue: value}, nil
}
