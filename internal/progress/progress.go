// Package progress tracks pre-computed total work and work done so far for
// one apply. It is kept separate from the root package for the same reason
// as internal/ferrors: internal/actions carries it in the Context every
// action's phase functions receive, and the root package wraps
// internal/actions.
package progress

import (
	"sync/atomic"

	"github.com/lkc-technologies/fwact/internal/ifaces"
)

// Progress tracks the pre-computed total work and the work done so far for
// one apply. compute_progress only ever adds to TotalUnits; run only ever
// adds to UnitsDone. Both counters are atomic so a caller may poll Snapshot
// from another goroutine (e.g. a progress bar) while the apply proceeds on
// its own goroutine, even though the apply itself is strictly sequential.
type Progress struct {
	totalUnits atomic.Uint64
	unitsDone  atomic.Uint64
	observer   ifaces.ProgressObserver
}

// New creates a Progress tracker. observer may be nil.
func New(observer ifaces.ProgressObserver) *Progress {
	return &Progress{observer: observer}
}

// AddTotal is called during compute_progress to add an action's
// contribution to the pre-computed total.
func (p *Progress) AddTotal(units uint64) {
	p.totalUnits.Add(units)
}

// Report is called during run as bytes are written or a metadata operation
// completes, advancing UnitsDone and notifying the observer.
func (p *Progress) Report(units uint64) {
	done := p.unitsDone.Add(units)
	if p.observer != nil {
		p.observer.ObserveProgress(done, p.totalUnits.Load())
	}
}

// TotalUnits returns the pre-computed total, valid only after
// compute_progress has walked the whole action list.
func (p *Progress) TotalUnits() uint64 {
	return p.totalUnits.Load()
}

// UnitsDone returns the work completed so far.
func (p *Progress) UnitsDone() uint64 {
	return p.unitsDone.Load()
}

// Snapshot is a point-in-time read of both counters.
type Snapshot struct {
	TotalUnits uint64
	UnitsDone  uint64
}

// Snapshot returns a point-in-time view of the counters.
func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		TotalUnits: p.totalUnits.Load(),
		UnitsDone:  p.unitsDone.Load(),
	}
}

// NoOpObserver discards progress reports.
type NoOpObserver struct{}

func (NoOpObserver) ObserveProgress(uint64, uint64) {}

var _ ifaces.ProgressObserver = NoOpObserver{}
