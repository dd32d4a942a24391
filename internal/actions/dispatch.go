package actions

import (
	"github.com/lkc-technologies/fwact/internal/constants"
	"github.com/lkc-technologies/fwact/internal/ferrors"
)

// ApplyList walks list and, for each action, binds Name/Argv/Argc into ctx
// and invokes the callable for phase, short-circuiting on the first error
// exactly as spec.md §4.2 describes.
func ApplyList(ctx *Context, list []Action, phase Phase) error {
	for _, a := range list {
		if a.Argc < 1 || a.Argc > constants.MaxArgs {
			return ferrors.NewActionf(a.Name, ferrors.KindArity, "argc %d out of range [1, %d]", a.Argc, constants.MaxArgs)
		}

		if err := ctx.cancelled(); err != nil {
			return ferrors.WrapIO(a.Name, err)
		}

		ctx.bind(a)

		info, ok := Lookup(a.Name)
		if !ok {
			return ferrors.NewAction(a.Name, ferrors.KindReference, "unknown action")
		}

		var fn Fn
		switch phase {
		case PhaseValidate:
			fn = info.Validate
		case PhaseComputeProgress:
			fn = info.ComputeProgress
		case PhaseRun:
			fn = info.Run
		}
		if fn == nil {
			continue
		}
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Validate runs the validate phase over list. Pure: must never write to
// ctx.Output.
func Validate(ctx *Context, list []Action) error {
	return ApplyList(ctx, list, PhaseValidate)
}

// ComputeProgress runs the compute_progress phase over list, accumulating
// into ctx.Progress.
func ComputeProgress(ctx *Context, list []Action) error {
	return ApplyList(ctx, list, PhaseComputeProgress)
}

// Run runs the run phase over list, performing each action's side effects.
func Run(ctx *Context, list []Action) error {
	return ApplyList(ctx, list, PhaseRun)
}
