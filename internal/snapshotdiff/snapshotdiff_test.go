package snapshotdiff

import (
	"strings"
	"testing"

	"github.com/orbitwatch/eps-fdir/internal/bias"
	"github.com/orbitwatch/eps-fdir/internal/persistence"
	"github.com/orbitwatch/eps-fdir/internal/protection"
	"github.com/orbitwatch/eps-fdir/internal/quantile"
)

func snap(runID string, state protection.State, biasPower float64, p99 float64, trips, enables uint64) persistence.FleetSnapshot {
	return persistence.FleetSnapshot{
		RunID: runID,
		Panels: []persistence.PanelSnapshot{
			{
				Panel: 0,
				Bias:  bias.Snapshot{BiasPower: biasPower},
				P2Power: quantile.Snapshot{
					Q: [5]float64{0, 0, p99, 0, 0},
				},
				Protection: protection.Snapshot{
					State:       state,
					TripCount:   trips,
					EnableCount: enables,
				},
			},
		},
	}
}

func TestCompareTracksDrift(t *testing.T) {
	baseline := snap("run-1", protection.Disabled, 0.01, 0.2, 0, 1)
	current := snap("run-2", protection.Tripped, 0.05, 0.8, 1, 1)

	report := Compare(baseline, current)

	if report.BaselineRunID != "run-1" || report.CurrentRunID != "run-2" {
		t.Fatalf("unexpected run IDs: %+v", report)
	}
	if len(report.Changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(report.Changes))
	}

	c := report.Changes[0]
	if c.StateBefore != "DISABLED" || c.StateAfter != "TRIPPED" {
		t.Errorf("unexpected state transition: %s -> %s", c.StateBefore, c.StateAfter)
	}
	if got, want := c.BiasPowerDelta, 0.04; !closeEnough(got, want) {
		t.Errorf("bias power delta = %v, want %v", got, want)
	}
	if c.TripCountDelta != 1 {
		t.Errorf("trip count delta = %d, want 1", c.TripCountDelta)
	}
	if c.EnableCountDelta != 0 {
		t.Errorf("enable count delta = %d, want 0", c.EnableCountDelta)
	}
	if c.P99PowerBefore != 0.2 || c.P99PowerAfter != 0.8 {
		t.Errorf("unexpected p99 power before/after: %v %v", c.P99PowerBefore, c.P99PowerAfter)
	}
}

func TestCompareSkipsUnknownPanels(t *testing.T) {
	baseline := persistence.FleetSnapshot{RunID: "a"}
	current := snap("b", protection.Enabled, 0, 0, 0, 1)

	report := Compare(baseline, current)
	if len(report.Changes) != 0 {
		t.Fatalf("expected no changes for a panel absent from baseline, got %d", len(report.Changes))
	}
}

func TestCompareIdentical(t *testing.T) {
	s := snap("run-1", protection.Enabled, 0.02, 0.3, 2, 3)
	report := Compare(s, s)
	if len(report.Changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(report.Changes))
	}
	c := report.Changes[0]
	if c.BiasPowerDelta != 0 || c.TripCountDelta != 0 || c.EnableCountDelta != 0 {
		t.Errorf("expected zero drift comparing a snapshot to itself, got %+v", c)
	}
	if c.StateBefore != c.StateAfter {
		t.Errorf("expected unchanged state, got %s -> %s", c.StateBefore, c.StateAfter)
	}
}

func TestFormatIncludesRunIDsAndPanels(t *testing.T) {
	baseline := snap("run-1", protection.Disabled, 0, 0, 0, 0)
	current := snap("run-2", protection.Enabled, 0.01, 0.1, 0, 1)
	out := Format(Compare(baseline, current))

	if !strings.Contains(out, "run-1") || !strings.Contains(out, "run-2") {
		t.Errorf("expected both run IDs in output, got: %s", out)
	}
	if !strings.Contains(out, "panel 0") {
		t.Errorf("expected panel line in output, got: %s", out)
	}
}

func closeEnough(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
