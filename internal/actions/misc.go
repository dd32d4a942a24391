package actions

import (
	"github.com/lkc-technologies/fwact/internal/ferrors"
)

func init() {
	register("error", Info{Validate: errorValidate, ComputeProgress: noProgress, Run: errorRun})
	register("info", Info{Validate: infoValidate, ComputeProgress: noProgress, Run: infoRun})
}

func noProgress(ctx *Context) error { return nil }

func errorValidate(ctx *Context) error {
	return requireArgc(ctx, 1)
}

// errorRun always fails: it exists so a manifest can assert an unreachable
// branch was in fact unreached.
func errorRun(ctx *Context) error {
	return ferrors.NewAction(ctx.Name, ferrors.KindPolicy, ctx.Argv[0])
}

func infoValidate(ctx *Context) error {
	return requireArgc(ctx, 1)
}

func infoRun(ctx *Context) error {
	if ctx.Logger != nil {
		ctx.Logger.Warnf("%s", ctx.Argv[0])
	}
	return nil
}
