package actions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lkc-technologies/fwact/internal/ferrors"
	"github.com/lkc-technologies/fwact/internal/mbrfmt"
)

func init() {
	register("mbr_write", Info{Validate: mbrWriteValidate, ComputeProgress: oneUnit, Run: mbrWriteRun})
}

func mbrWriteValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 1); err != nil {
		return err
	}
	if _, ok := ctx.Cfg.Section("mbr", ctx.Argv[0]); !ok {
		return ferrors.NewActionf(ctx.Name, ferrors.KindReference, "no such mbr section %q", ctx.Argv[0])
	}
	return nil
}

func mbrWriteRun(ctx *Context) error {
	sec, ok := ctx.Cfg.Section("mbr", ctx.Argv[0])
	if !ok {
		return ferrors.NewActionf(ctx.Name, ferrors.KindReference, "no such mbr section %q", ctx.Argv[0])
	}

	var partitions [4]mbrfmt.Partition
	for i := range partitions {
		raw, ok := ctx.Cfg.String(sec, fmt.Sprintf("partition.%d", i))
		if !ok || raw == "" {
			continue
		}
		p, err := parseMBRPartition(ctx.Name, raw)
		if err != nil {
			return err
		}
		partitions[i] = p
	}

	sector := mbrfmt.Encode(partitions)
	if _, err := ctx.Output.WriteAt(sector[:], 0, false); err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}
	ctx.Progress.Report(1)
	return nil
}

// parseMBRPartition parses a "bootable,type,start_lba,num_sectors" field
// out of the manifest's per-slot partition string.
func parseMBRPartition(action, raw string) (mbrfmt.Partition, error) {
	fields := strings.Split(raw, ",")
	if len(fields) != 4 {
		return mbrfmt.Partition{}, ferrors.NewActionf(action, ferrors.KindDomain, "malformed partition entry %q", raw)
	}
	bootable := fields[0] == "1" || strings.EqualFold(fields[0], "true")
	typ, err := strconv.ParseUint(fields[1], 0, 8)
	if err != nil {
		return mbrfmt.Partition{}, ferrors.NewActionf(action, ferrors.KindDomain, "malformed partition type %q", fields[1])
	}
	start, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return mbrfmt.Partition{}, ferrors.NewActionf(action, ferrors.KindDomain, "malformed start_lba %q", fields[2])
	}
	count, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return mbrfmt.Partition{}, ferrors.NewActionf(action, ferrors.KindDomain, "malformed num_sectors %q", fields[3])
	}
	return mbrfmt.Partition{
		Bootable:   bootable,
		Type:       uint8(typ),
		StartLBA:   uint32(start),
		NumSectors: uint32(count),
	}, nil
}
