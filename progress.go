// Progress lives in internal/progress for the same reason errors live in
// internal/ferrors: internal/actions needs it in every action's Context,
// so the canonical type can't live in the package that wraps
// internal/actions without creating an import cycle.
package fwact

import "github.com/lkc-technologies/fwact/internal/progress"

type (
	Progress         = progress.Progress
	ProgressSnapshot = progress.Snapshot
	NoOpObserver     = progress.NoOpObserver
)

var NewProgress = progress.New
