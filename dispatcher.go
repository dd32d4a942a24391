// Package fwact is a public facade over internal/actions: it re-exports
// the action dispatcher's types and entry points so callers never need
// to import internal/actions directly.
//
// Context, Action and the apply-phase callables live in internal/actions
// rather than here because the registry that internal/actions builds at
// init time is keyed on functions shaped func(*Context) error; putting
// Context in this package would make internal/actions import its own
// importer.
package fwact

import (
	"github.com/lkc-technologies/fwact/internal/actions"
)

type (
	ExecutionKind = actions.ExecutionKind
	Event         = actions.Event
	ApplyOptions  = actions.ApplyOptions
	Phase         = actions.Phase
	Action        = actions.Action
	Context       = actions.Context
	ActionInfo    = actions.Info
)

const (
	KindGlobal = actions.KindGlobal
	KindFile   = actions.KindFile

	PhaseValidate        = actions.PhaseValidate
	PhaseComputeProgress = actions.PhaseComputeProgress
	PhaseRun             = actions.PhaseRun
)

var (
	// Lookup returns the registered ActionInfo for name, or false if name
	// is not a known built-in action.
	Lookup = actions.Lookup
	// Names lists every registered action name, including "!" variants.
	Names = actions.Names

	// ApplyList runs phase over list in order against ctx, stopping at
	// the first error.
	ApplyList = actions.ApplyList
	// Validate runs the validate phase over list.
	Validate = actions.Validate
	// ComputeProgress runs the compute_progress phase over list.
	ComputeProgress = actions.ComputeProgress
	// Run runs the run phase over list.
	Run = actions.Run
)
