// Package persistence implements opaque, byte-serializable snapshots of
// per-panel state (BiasCorrector, two P2Quantiles, FSM state). Snapshots
// are written when a caller asks: the eps-fdir run command writes one
// after its last tick when --snapshot-out is given. Nothing in this module
// saves on a timer or loads a snapshot at startup.
//
// Grounded on the teacher's internal/diff.LoadReport: a plain
// encoding/json read/write of a report file, generalized here to the
// FDIR fleet's persisted state.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orbitwatch/eps-fdir/internal/bias"
	"github.com/orbitwatch/eps-fdir/internal/protection"
	"github.com/orbitwatch/eps-fdir/internal/quantile"
)

// PanelSnapshot is the persisted state for one panel.
type PanelSnapshot struct {
	Panel      int                `json:"panel"`
	Bias       bias.Snapshot      `json:"bias"`
	P2Power    quantile.Snapshot  `json:"p2_power"`
	P2Voltage  quantile.Snapshot  `json:"p2_voltage"`
	Protection protection.Snapshot `json:"protection"`
}

// FleetSnapshot is the persisted state for all panels, plus a run
// identifier correlating it to a particular boot (see internal/runtime).
type FleetSnapshot struct {
	RunID  string          `json:"run_id"`
	SavedAtMS uint32       `json:"saved_at_ms"`
	Panels []PanelSnapshot `json:"panels"`
}

// Save writes snap as indented JSON to path. Save failures are surfaced
// to the caller but never unwind FSM state — the in-RAM state remains
// authoritative (spec.md §7 PersistenceError).
func Save(path string, snap FleetSnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("persistence: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("persistence: encode %s: %w", path, err)
	}
	return nil
}

// Load reads a FleetSnapshot previously written by Save. Called once at
// startup, after init; a missing or unreadable file is a PersistenceError
// the caller may choose to treat as "start cold".
func Load(path string) (FleetSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FleetSnapshot{}, fmt.Errorf("persistence: read %s: %w", path, err)
	}
	var snap FleetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return FleetSnapshot{}, fmt.Errorf("persistence: parse %s: %w", path, err)
	}
	return snap, nil
}
