package actions

import (
	"github.com/lkc-technologies/fwact/internal/fatfs"
)

func init() {
	register("fat_mkfs", Info{Validate: fatMkfsValidate, ComputeProgress: oneUnit, Run: fatMkfsRun})
	register("fat_attrib", Info{Validate: fatAttribValidate, ComputeProgress: oneUnit, Run: fatAttribRun})
	register("fat_write", Info{Validate: fatWriteValidate, ComputeProgress: fatWriteComputeProgress, Run: fatWriteRun})

	register("fat_mv", Info{Validate: fatMvValidate(false), ComputeProgress: oneUnit, Run: fatMvRun(false)})
	register("fat_mv!", Info{Validate: fatMvValidate(true), ComputeProgress: oneUnit, Run: fatMvRun(true), Strict: true})

	register("fat_rm", Info{Validate: fatRmValidate(false), ComputeProgress: oneUnit, Run: fatRmRun(false)})
	register("fat_rm!", Info{Validate: fatRmValidate(true), ComputeProgress: oneUnit, Run: fatRmRun(true), Strict: true})

	register("fat_cp", Info{Validate: fatCpValidate, ComputeProgress: oneUnit, Run: fatCpRun})
	register("fat_mkdir", Info{Validate: fatMkdirValidate, ComputeProgress: oneUnit, Run: fatMkdirRun})
	register("fat_setlabel", Info{Validate: fatSetlabelValidate, ComputeProgress: oneUnit, Run: fatSetlabelRun})
	register("fat_touch", Info{Validate: fatTouchValidate, ComputeProgress: oneUnit, Run: fatTouchRun})
}

// oneUnit is the compute_progress shared by every fat_* action that only
// ever emits a flat +1, regardless of what run does.
func oneUnit(ctx *Context) error {
	ctx.Progress.AddTotal(1)
	return nil
}

type parsedFatMkfs struct {
	OffsetBlocks int64
	CountBlocks  int64
}

func fatMkfsValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 2); err != nil {
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
	ctx.SetParsed(parsedFatMkfs{OffsetBlocks: offset, CountBlocks: count})
	return nil
}

func fatMkfsRun(ctx *Context) error {
	p, ok := ctx.Parsed().(parsedFatMkfs)
	if !ok {
		offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
		if err != nil {
			return err
		}
		count, err := parseNonNegInt(ctx.Name, ctx.Argv[1])
		if err != nil {
			return err
		}
		p = parsedFatMkfs{OffsetBlocks: offset, CountBlocks: count}
	}
	if _, err := fatfs.Mkfs(ctx.Output, p.OffsetBlocks, p.CountBlocks); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}

type parsedFatAttrib struct {
	OffsetBlocks int64
	Path         string
	Flags        string
}

func fatAttribValidate(ctx *Context) error {
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
	if err := validateFlagChars(ctx.Name, ctx.Argv[2], "SsHhRr"); err != nil {
		return err
	}
	ctx.SetParsed(parsedFatAttrib{OffsetBlocks: offset, Path: ctx.Argv[1], Flags: ctx.Argv[2]})
	return nil
}

func fatAttribRun(ctx *Context) error {
	p, ok := ctx.Parsed().(parsedFatAttrib)
	if !ok {
		offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
		if err != nil {
			return err
		}
		p = parsedFatAttrib{OffsetBlocks: offset, Path: ctx.Argv[1], Flags: ctx.Argv[2]}
	}
	fs, err := fatfs.Open(ctx.Output, p.OffsetBlocks)
	if err != nil {
		return err
	}
	if err := fs.Attrib(p.Path, p.Flags); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}

type parsedFatWrite struct {
	OffsetBlocks int64
	Path         string
}

func fatWriteValidate(ctx *Context) error {
	if err := requireKind(ctx, KindFile); err != nil {
		return err
	}
	if err := requireArgc(ctx, 2); err != nil {
		return err
	}
	offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	if err != nil {
		return err
	}
	ctx.SetParsed(parsedFatWrite{OffsetBlocks: offset, Path: ctx.Argv[1]})
	return nil
}

func fatWriteComputeProgress(ctx *Context) error {
	res, err := resolveResource(ctx)
	if err != nil {
		return err
	}
	units := res.Map.DataSize()
	if units < 1 {
		units = 1
	}
	ctx.Progress.AddTotal(uint64(units))
	return nil
}

func fatWriteRun(ctx *Context) error {
	p, ok := ctx.Parsed().(parsedFatWrite)
	if !ok {
		offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
		if err != nil {
			return err
		}
		p = parsedFatWrite{OffsetBlocks: offset, Path: ctx.Argv[1]}
	}

	res, err := resolveResource(ctx)
	if err != nil {
		return err
	}

	fs, err := fatfs.Open(ctx.Output, p.OffsetBlocks)
	if err != nil {
		return err
	}

	if res.Map.TotalSize() == 0 {
		fh, err := fs.CreateForWrite(p.Path)
		if err != nil {
			return err
		}
		if err := fh.Close(); err != nil {
			return err
		}
		ctx.Progress.Report(1)
		return nil
	}

	fh, err := fs.CreateForWrite(p.Path)
	if err != nil {
		return err
	}
	sink := &fatSink{file: fh}
	return writeWithHash(ctx, sink)
}

// fatSink adapts a fatfs.File to hashSink for fat_write's positional
// writes, with the file's own Truncate extending it past a trailing hole.
type fatSink struct {
	file *fatfs.File
}

func (s *fatSink) WriteAt(p []byte, logicalOffset int64, allowGaps bool) error {
	_, err := s.file.WriteAt(p, logicalOffset)
	return err
}

func (s *fatSink) Extend(totalSize int64) error {
	return s.file.Truncate(totalSize)
}

func (s *fatSink) Flush() error {
	return s.file.Close()
}

func fatMvValidate(force bool) Fn {
	return func(ctx *Context) error {
		if err := requireKind(ctx, KindGlobal); err != nil {
			return err
		}
		if err := requireArgc(ctx, 3); err != nil {
			return err
		}
		if _, err := parseNonNegInt(ctx.Name, ctx.Argv[0]); err != nil {
			return err
		}
		return nil
	}
}

func fatMvRun(force bool) Fn {
	return func(ctx *Context) error {
		offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
		if err != nil {
			return err
		}
		fs, err := fatfs.Open(ctx.Output, offset)
		if err != nil {
			return err
		}
		if err := fs.Rename(ctx.Argv[1], ctx.Argv[2], force); err != nil {
			return err
		}
		ctx.Progress.Report(1)
		return nil
	}
}

func fatRmValidate(mustExist bool) Fn {
	return func(ctx *Context) error {
		if err := requireKind(ctx, KindGlobal); err != nil {
			return err
		}
		if err := requireArgc(ctx, 2); err != nil {
			return err
		}
		if _, err := parseNonNegInt(ctx.Name, ctx.Argv[0]); err != nil {
			return err
		}
		return nil
	}
}

func fatRmRun(mustExist bool) Fn {
	return func(ctx *Context) error {
		offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
		if err != nil {
			return err
		}
		fs, err := fatfs.Open(ctx.Output, offset)
		if err != nil {
			return err
		}
		if err := fs.Remove(ctx.Argv[1], mustExist); err != nil {
			return err
		}
		ctx.Progress.Report(1)
		return nil
	}
}

func fatCpValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 3); err != nil {
		return err
	}
	_, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	return err
}

func fatCpRun(ctx *Context) error {
	offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	if err != nil {
		return err
	}
	fs, err := fatfs.Open(ctx.Output, offset)
	if err != nil {
		return err
	}
	if err := fs.Copy(ctx.Argv[1], ctx.Argv[2]); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}

func fatMkdirValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 2); err != nil {
		return err
	}
	_, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	return err
}

func fatMkdirRun(ctx *Context) error {
	offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	if err != nil {
		return err
	}
	fs, err := fatfs.Open(ctx.Output, offset)
	if err != nil {
		return err
	}
	if err := fs.Mkdir(ctx.Argv[1]); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}

func fatSetlabelValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 2); err != nil {
		return err
	}
	_, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	return err
}

func fatSetlabelRun(ctx *Context) error {
	offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	if err != nil {
		return err
	}
	fs, err := fatfs.Open(ctx.Output, offset)
	if err != nil {
		return err
	}
	if err := fs.SetLabel(ctx.Argv[1]); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}

func fatTouchValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 2); err != nil {
		return err
	}
	_, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	return err
}

func fatTouchRun(ctx *Context) error {
	offset, err := parseNonNegInt(ctx.Name, ctx.Argv[0])
	if err != nil {
		return err
	}
	fs, err := fatfs.Open(ctx.Output, offset)
	if err != nil {
		return err
	}
	if err := fs.Touch(ctx.Argv[1]); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}
