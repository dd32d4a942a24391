package fwact

import "testing"

func TestProgress(t *testing.T) {
	p := NewProgress(nil)

	snap := p.Snapshot()
	if snap.TotalUnits != 0 || snap.UnitsDone != 0 {
		t.Errorf("expected zero initial snapshot, got %+v", snap)
	}

	p.AddTotal(1024)
	p.AddTotal(512)
	if got := p.TotalUnits(); got != 1536 {
		t.Errorf("TotalUnits() = %d, want 1536", got)
	}

	p.Report(100)
	p.Report(50)
	if got := p.UnitsDone(); got != 150 {
		t.Errorf("UnitsDone() = %d, want 150", got)
	}
}

type recordingObserver struct {
	calls []ProgressSnapshot
}

func (r *recordingObserver) ObserveProgress(unitsDone, totalUnits uint64) {
	r.calls = append(r.calls, ProgressSnapshot{TotalUnits: totalUnits, UnitsDone: unitsDone})
}

func TestProgressNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	p := NewProgress(obs)

	p.AddTotal(100)
	p.Report(40)
	p.Report(60)

	if len(obs.calls) != 2 {
		t.Fatalf("expected 2 observer calls, got %d", len(obs.calls))
	}
	if obs.calls[1].UnitsDone != 100 {
		t.Errorf("expected cumulative UnitsDone=100 on second call, got %d", obs.calls[1].UnitsDone)
	}
	if obs.calls[1].TotalUnits != 100 {
		t.Errorf("expected TotalUnits=100, got %d", obs.calls[1].TotalUnits)
	}
}

func TestNoOpObserver(t *testing.T) {
	// Should never panic regardless of what's reported.
	var o NoOpObserver
	o.ObserveProgress(1, 2)
}
