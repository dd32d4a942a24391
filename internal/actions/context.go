// Package actions implements the action registry and the built-in actions
// themselves: validate / compute_progress / run for each, plus the shared
// write-with-hash helper and pad-to-block writer they all use.
package actions

import (
	"context"

	"github.com/lkc-technologies/fwact/internal/constants"
	"github.com/lkc-technologies/fwact/internal/ifaces"
	"github.com/lkc-technologies/fwact/internal/progress"
)

// ExecutionKind distinguishes actions bound to a streaming on-resource
// event from actions that only ever touch the output directly.
type ExecutionKind int

const (
	KindGlobal ExecutionKind = iota
	KindFile
)

func (k ExecutionKind) String() string {
	if k == KindFile {
		return "file"
	}
	return "global"
}

// Event carries the resource title an on-resource action list runs
// against; only populated for File-kind contexts.
type Event struct {
	Title string
}

// ApplyOptions threads run-time policy through a Context instead of
// living as process-wide state, per the design note in spec.md §9.
type ApplyOptions struct {
	AllowUnsafe bool
}

// Phase selects which of an action's three callables ApplyList invokes.
type Phase int

const (
	PhaseValidate Phase = iota
	PhaseComputeProgress
	PhaseRun
)

func (p Phase) String() string {
	switch p {
	case PhaseValidate:
		return "validate"
	case PhaseComputeProgress:
		return "compute_progress"
	case PhaseRun:
		return "run"
	default:
		return "unknown"
	}
}

// Action is one named, argument-carrying step in an action list.
type Action struct {
	Name string
	Argv [constants.MaxArgs]string
	Argc int
}

// Context is the per-action transient state threaded through validate,
// compute_progress and run. It is created once per apply and borrowed
// exclusively by the action ApplyList is currently invoking.
type Context struct {
	// Ctx carries cancellation; checked cooperatively at each action
	// boundary and inside the write-with-hash loop.
	Ctx context.Context

	Kind ExecutionKind
	Name string
	Argv [constants.MaxArgs]string
	Argc int

	Cfg    ifaces.ManifestTree
	Event  *Event
	Read   func() (ifaces.Chunk, error)
	Output ifaces.BlockCache
	Logger ifaces.Logger

	Progress *progress.Progress
	Options  ApplyOptions

	// parsed holds the typed argument record a phase function stored for
	// the currently bound action. bind resets it, and ApplyList binds
	// before every phase call, so a record stored during validate is not
	// seen by compute_progress or run; those re-parse argv when it is nil.
	parsed any
}

// SetParsed stores the typed argument record for the currently bound
// action; the next bind discards it.
func (c *Context) SetParsed(v any) { c.parsed = v }

// Parsed returns the typed argument record stored by SetParsed since the
// last bind, or nil if none was stored.
func (c *Context) Parsed() any { return c.parsed }

// clearArgv zeroes argv slots at and beyond argc, matching spec.md §3's
// "argv slots beyond argc are cleared between calls".
func (c *Context) clearArgv() {
	for i := c.Argc; i < constants.MaxArgs; i++ {
		c.Argv[i] = ""
	}
}

// bind populates Name/Argv/Argc from a, and clears the argument cache and
// unused argv slots, ready for the next phase call.
func (c *Context) bind(a Action) {
	c.Name = a.Name
	c.Argc = a.Argc
	c.Argv = a.Argv
	c.clearArgv()
	c.parsed = nil
}

// cancelled reports whether Ctx has been cancelled, if one was provided.
func (c *Context) cancelled() error {
	if c.Ctx == nil {
		return nil
	}
	select {
	case <-c.Ctx.Done():
		return c.Ctx.Err()
	default:
		return nil
	}
}
