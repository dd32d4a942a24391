package actions

import (
	"errors"

	"github.com/lkc-technologies/fwact/internal/constants"
	"github.com/lkc-technologies/fwact/internal/ferrors"
	"github.com/lkc-technologies/fwact/internal/ifaces"
	"github.com/lkc-technologies/fwact/internal/ubootenv"
)

func init() {
	register("uboot_clearenv", Info{Validate: ubootEnvNameValidate, ComputeProgress: oneUnit, Run: ubootClearenvRun})
	register("uboot_setenv", Info{Validate: ubootSetenvValidate, ComputeProgress: oneUnit, Run: ubootSetenvRun})
	register("uboot_unsetenv", Info{Validate: ubootUnsetenvValidate, ComputeProgress: oneUnit, Run: ubootUnsetenvRun})
	register("uboot_recover", Info{Validate: ubootEnvNameValidate, ComputeProgress: oneUnit, Run: ubootRecoverRun})
}

// ubootEnvLoc is where in the output an env_name section lives.
type ubootEnvLoc struct {
	OffsetBlocks int64
	SizeBytes    int64
}

func resolveEnvLoc(ctx *Context, name string) (ubootEnvLoc, ifaces.Section, error) {
	sec, ok := ctx.Cfg.Section("uboot-environment", name)
	if !ok {
		return ubootEnvLoc{}, sec, ferrors.NewActionf(ctx.Name, ferrors.KindReference, "no such uboot-environment %q", name)
	}
	offStr, ok := ctx.Cfg.String(sec, "offset_blocks")
	if !ok {
		return ubootEnvLoc{}, sec, ferrors.NewActionf(ctx.Name, ferrors.KindDomain, "uboot-environment %q has no offset_blocks", name)
	}
	sizeStr, ok := ctx.Cfg.String(sec, "size_bytes")
	if !ok {
		return ubootEnvLoc{}, sec, ferrors.NewActionf(ctx.Name, ferrors.KindDomain, "uboot-environment %q has no size_bytes", name)
	}
	offset, err := parseNonNegInt(ctx.Name, offStr)
	if err != nil {
		return ubootEnvLoc{}, sec, err
	}
	size, err := parseNonNegInt(ctx.Name, sizeStr)
	if err != nil {
		return ubootEnvLoc{}, sec, err
	}
	return ubootEnvLoc{OffsetBlocks: offset, SizeBytes: size}, sec, nil
}

func ubootEnvNameValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 1); err != nil {
		return err
	}
	if _, ok := ctx.Cfg.Section("uboot-environment", ctx.Argv[0]); !ok {
		return ferrors.NewActionf(ctx.Name, ferrors.KindReference, "no such uboot-environment %q", ctx.Argv[0])
	}
	return nil
}

func ubootSetenvValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 3); err != nil {
		return err
	}
	if _, ok := ctx.Cfg.Section("uboot-environment", ctx.Argv[0]); !ok {
		return ferrors.NewActionf(ctx.Name, ferrors.KindReference, "no such uboot-environment %q", ctx.Argv[0])
	}
	return nil
}

func ubootUnsetenvValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireArgc(ctx, 2); err != nil {
		return err
	}
	if _, ok := ctx.Cfg.Section("uboot-environment", ctx.Argv[0]); !ok {
		return ferrors.NewActionf(ctx.Name, ferrors.KindReference, "no such uboot-environment %q", ctx.Argv[0])
	}
	return nil
}

// readEnv loads and parses the env block at loc, tolerant of a corrupt
// checksum only when tolerateCorrupt is set (uboot_recover's case).
func readEnv(ctx *Context, loc ubootEnvLoc, tolerateCorrupt bool) (*ubootenv.Env, error) {
	buf := make([]byte, loc.SizeBytes)
	off := loc.OffsetBlocks * constants.BlockSize
	if _, err := ctx.Output.ReadAt(buf, off); err != nil {
		return nil, ferrors.WrapIO(ctx.Name, err)
	}
	env, err := ubootenv.Parse(buf, int(loc.SizeBytes))
	if err != nil {
		if errors.Is(err, ubootenv.ErrCorrupt) {
			if tolerateCorrupt {
				return nil, err
			}
			return nil, ferrors.NewIntegrity(ctx.Name, ctx.Argv[0], ferrors.SymptomDigest, "uboot environment checksum mismatch")
		}
		return nil, ferrors.WrapIO(ctx.Name, err)
	}
	return env, nil
}

func writeEnv(ctx *Context, loc ubootEnvLoc, env *ubootenv.Env) error {
	buf, err := env.Serialize()
	if err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}
	off := loc.OffsetBlocks * constants.BlockSize
	if _, err := ctx.Output.WriteAt(buf, off, false); err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}
	return nil
}

func ubootClearenvRun(ctx *Context) error {
	loc, _, err := resolveEnvLoc(ctx, ctx.Argv[0])
	if err != nil {
		return err
	}
	fresh := ubootenv.New(int(loc.SizeBytes))
	if err := writeEnv(ctx, loc, fresh); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}

func ubootSetenvRun(ctx *Context) error {
	loc, _, err := resolveEnvLoc(ctx, ctx.Argv[0])
	if err != nil {
		return err
	}
	env, err := readEnv(ctx, loc, false)
	if err != nil {
		return err
	}
	env.Setenv(ctx.Argv[1], ctx.Argv[2])
	if err := writeEnv(ctx, loc, env); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}

func ubootUnsetenvRun(ctx *Context) error {
	loc, _, err := resolveEnvLoc(ctx, ctx.Argv[0])
	if err != nil {
		return err
	}
	env, err := readEnv(ctx, loc, false)
	if err != nil {
		return err
	}
	env.Unsetenv(ctx.Argv[1])
	if err := writeEnv(ctx, loc, env); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}

// ubootRecoverRun absorbs CorruptState locally, the one place in the
// dispatcher where an error does not abort the apply: a checksum failure
// here means the environment is replaced with a fresh one instead of
// propagating.
func ubootRecoverRun(ctx *Context) error {
	loc, _, err := resolveEnvLoc(ctx, ctx.Argv[0])
	if err != nil {
		return err
	}
	_, perr := readEnv(ctx, loc, true)
	if perr == nil {
		ctx.Progress.Report(1)
		return nil
	}
	if !errors.Is(perr, ubootenv.ErrCorrupt) {
		return perr
	}
	fresh := ubootenv.New(int(loc.SizeBytes))
	if err := writeEnv(ctx, loc, fresh); err != nil {
		return err
	}
	ctx.Progress.Report(1)
	return nil
}
