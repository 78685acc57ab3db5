package runtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orbitwatch/eps-fdir/internal/config"
	"github.com/orbitwatch/eps-fdir/internal/hardware"
	"github.com/orbitwatch/eps-fdir/internal/persistence"
	"github.com/orbitwatch/eps-fdir/internal/predictor"
	"github.com/orbitwatch/eps-fdir/internal/protection"
	"github.com/orbitwatch/eps-fdir/internal/telemetry"
)

// System owns every panel's PanelRuntime, the shared hardware and
// predictor collaborators, and a tick counter — it is the explicit,
// by-reference replacement for the reference firmware's global array of
// panel structs and global ADC handle (spec.md §9).
type System struct {
	RunID string

	panels []*PanelRuntime

	hw   hardware.Hardware
	pred predictor.Predictor
	sink telemetry.Sink

	tick uint32
}

// New creates a System for cfg.NPanels panels sharing hw, pred, and sink.
func New(cfg config.Config, hw hardware.Hardware, pred predictor.Predictor, sink telemetry.Sink) *System {
	panels := make([]*PanelRuntime, cfg.NPanels)
	for i := range panels {
		panels[i] = NewPanelRuntime(i, cfg)
	}
	return &System{
		RunID:  uuid.NewString(),
		panels: panels,
		hw:     hw,
		pred:   pred,
		sink:   sink,
	}
}

// NumPanels returns the number of panels in the fleet.
func (s *System) NumPanels() int {
	return len(s.panels)
}

// Panel returns the PanelRuntime for the given panel id, or nil if out
// of range — spec.md §7's BadPanelId is handled by callers as a no-op on
// a nil result, never a panic.
func (s *System) Panel(id int) *PanelRuntime {
	if id < 0 || id >= len(s.panels) {
		return nil
	}
	return s.panels[id]
}

// PostCommand routes a ground command to one panel, ignoring out-of-range
// ids (BadPanelId, spec.md §7).
func (s *System) PostCommand(panelID int, cmd protection.Command) {
	if p := s.Panel(panelID); p != nil {
		p.PostCommand(cmd)
	}
}

// Tick sweeps every panel exactly once, in order 0..N-1, independently
// (spec.md §4.7, §5): no inter-panel invariant, no shared per-tick
// state beyond the multiplexed hardware handle.
func (s *System) Tick(ctx context.Context) []Result {
	now := s.hw.NowMS()
	results := make([]Result, len(s.panels))
	for i, p := range s.panels {
		results[i] = p.Step(ctx, s.hw, s.pred, s.sink, now)
	}
	s.tick++
	return results
}

// TickCount returns the number of ticks run so far.
func (s *System) TickCount() uint32 {
	return s.tick
}

// Snapshot captures the full fleet's persisted state.
func (s *System) Snapshot() persistence.FleetSnapshot {
	snap := persistence.FleetSnapshot{
		RunID:     s.RunID,
		SavedAtMS: s.hw.NowMS(),
		Panels:    make([]persistence.PanelSnapshot, len(s.panels)),
	}
	for i, p := range s.panels {
		snap.Panels[i] = p.Snapshot()
	}
	return snap
}

// Restore replaces every panel's state with a previously saved fleet
// snapshot, loaded once at startup after init (spec.md §6). A snapshot
// with a panel count mismatching the live fleet is rejected.
func (s *System) Restore(snap persistence.FleetSnapshot) error {
	if len(snap.Panels) != len(s.panels) {
		return fmt.Errorf("runtime: snapshot has %d panels, fleet has %d", len(snap.Panels), len(s.panels))
	}
	for i, ps := range snap.Panels {
		s.panels[i].Restore(ps)
	}
	return nil
}

// Fleet returns a telemetry.PanelStatus rollup for every panel, used to
// build the narrative summary without importing internal/protection
// from internal/telemetry.
func (s *System) Fleet() []telemetry.PanelStatus {
	out := make([]telemetry.PanelStatus, len(s.panels))
	for i, p := range s.panels {
		enable, trip, _ := p.fsm.Counters()
		out[i] = telemetry.PanelStatus{
			Panel:       p.Panel,
			State:       p.State().String(),
			SinceMS:     p.fsm.TripTime(),
			TripCount:   trip,
			EnableCount: enable,
		}
	}
	return out
}
