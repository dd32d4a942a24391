package actions

import (
	"strconv"
	"strings"

	"github.com/lkc-technologies/fwact/internal/ferrors"
)

// requireArgc fails unless ctx.Argc equals n exactly.
func requireArgc(ctx *Context, n int) error {
	if ctx.Argc != n {
		return ferrors.NewActionf(ctx.Name, ferrors.KindArity, "expected %d arguments, got %d", n, ctx.Argc)
	}
	return nil
}

// requireKind fails unless ctx.Kind equals want.
func requireKind(ctx *Context, want ExecutionKind) error {
	if ctx.Kind != want {
		return ferrors.NewActionf(ctx.Name, ferrors.KindContextMismatch, "%s requires %s context, got %s", ctx.Name, want, ctx.Kind)
	}
	return nil
}

// requireUnsafe fails unless the apply was started with AllowUnsafe.
func requireUnsafe(ctx *Context) error {
	if !ctx.Options.AllowUnsafe {
		return ferrors.NewActionf(ctx.Name, ferrors.KindPolicy, "%s requires unsafe actions to be enabled", ctx.Name)
	}
	return nil
}

// parseNonNegInt parses s as a base-10 non-negative int64.
func parseNonNegInt(action, s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ferrors.NewActionf(action, ferrors.KindDomain, "%q is not an integer", s)
	}
	if v < 0 {
		return 0, ferrors.NewActionf(action, ferrors.KindDomain, "%q must be non-negative", s)
	}
	return v, nil
}

// parseByteValue parses s as an integer in [0, 255].
func parseByteValue(action, s string) (byte, error) {
	v, err := strconv.ParseInt(s, 10, 16)
	if err != nil || v < 0 || v > 255 {
		return 0, ferrors.NewActionf(action, ferrors.KindDomain, "%q is not a byte value in [0, 255]", s)
	}
	return byte(v), nil
}

// validateFlagChars fails unless every character of s is in allowed.
func validateFlagChars(action, s, allowed string) error {
	for _, r := range s {
		if !strings.ContainsRune(allowed, r) {
			return ferrors.NewActionf(action, ferrors.KindDomain, "flag %q contains invalid character %q", s, r)
		}
	}
	return nil
}

// isStrict reports whether name ends in "!", the marker for the strict
// variant of a name-encoded action pair (fat_mv/fat_mv!, fat_rm/fat_rm!).
// The registry does not call it: fat.go's init registers each variant
// with its Strict flag and force/mustExist argument spelled out, and no
// phase function inspects ctx.Name for the suffix at call time.
func isStrict(name string) bool {
	return strings.HasSuffix(name, "!")
}
