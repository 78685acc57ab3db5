// Package snapshotdiff compares two persisted fleet snapshots and
// reports per-panel drift, a ground-station-side analysis tool grounded
// on the teacher's internal/diff package (LoadReport/Compare/FormatDiff),
// generalized from a single-host performance report diff onto a fleet of
// panel snapshots. Supplements spec.md's persistence interface (§6),
// which itself only requires save/load, with an operator-facing
// comparison tool over two saved files.
package snapshotdiff

import (
	"fmt"
	"strings"

	"github.com/orbitwatch/eps-fdir/internal/persistence"
)

// PanelChange reports the drift in one panel's persisted estimators and
// counters between two snapshots.
type PanelChange struct {
	Panel           int     `json:"panel"`
	StateBefore     string  `json:"state_before"`
	StateAfter      string  `json:"state_after"`
	BiasPowerDelta  float64 `json:"bias_power_delta"`
	BiasVoltDelta   float64 `json:"bias_voltage_delta"`
	P99PowerBefore  float64 `json:"p99_power_before"`
	P99PowerAfter   float64 `json:"p99_power_after"`
	TripCountDelta  int64   `json:"trip_count_delta"`
	EnableCountDelta int64  `json:"enable_count_delta"`
}

// Report is the outcome of comparing two fleet snapshots.
type Report struct {
	BaselineRunID string        `json:"baseline_run_id"`
	CurrentRunID  string        `json:"current_run_id"`
	Changes       []PanelChange `json:"changes"`
}

// Compare builds a Report of per-panel drift between baseline and
// current. Panels present in current but absent from baseline (a fleet
// resize) are skipped.
func Compare(baseline, current persistence.FleetSnapshot) Report {
	byPanel := make(map[int]persistence.PanelSnapshot, len(baseline.Panels))
	for _, p := range baseline.Panels {
		byPanel[p.Panel] = p
	}

	report := Report{
		BaselineRunID: baseline.RunID,
		CurrentRunID:  current.RunID,
	}

	for _, cur := range current.Panels {
		base, ok := byPanel[cur.Panel]
		if !ok {
			continue
		}
		report.Changes = append(report.Changes, PanelChange{
			Panel:            cur.Panel,
			StateBefore:      stateName(base.Protection.State),
			StateAfter:       stateName(cur.Protection.State),
			BiasPowerDelta:   cur.Bias.BiasPower - base.Bias.BiasPower,
			BiasVoltDelta:    cur.Bias.BiasVoltage - base.Bias.BiasVoltage,
			P99PowerBefore:   base.P2Power.Q[2],
			P99PowerAfter:    cur.P2Power.Q[2],
			TripCountDelta:   int64(cur.Protection.TripCount) - int64(base.Protection.TripCount),
			EnableCountDelta: int64(cur.Protection.EnableCount) - int64(base.Protection.EnableCount),
		})
	}
	return report
}

func stateName(s interface{ String() string }) string {
	if s == nil {
		return "UNKNOWN"
	}
	return s.String()
}

// Format renders a Report as a human-readable summary.
func Format(r Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Snapshot Diff: %s -> %s ===\n", r.BaselineRunID, r.CurrentRunID)
	for _, c := range r.Changes {
		fmt.Fprintf(&sb, "panel %d: %s -> %s, bias_power %+.4f, p99_power %.3f -> %.3f, trips %+d, enables %+d\n",
			c.Panel, c.StateBefore, c.StateAfter, c.BiasPowerDelta, c.P99PowerBefore, c.P99PowerAfter,
			c.TripCountDelta, c.EnableCountDelta)
	}
	return sb.String()
}
