// Package protection implements the four-state per-panel protection
// state machine (spec.md §4.6), generalizing the worked hysteresis gate
// in the original firmware's eps_main_example.c (EPS_LogicState,
// GATE_N-style consecutive-sample gating) to the full
// DISABLED/ENABLED/TRIPPED/RECOVERY machine.
package protection

import (
	"context"

	"github.com/orbitwatch/eps-fdir/internal/anomaly"
	"github.com/orbitwatch/eps-fdir/internal/hardware"
	"github.com/orbitwatch/eps-fdir/internal/telemetry"
)

// State is one of the four protection states.
type State int

const (
	Disabled State = iota
	Enabled
	Tripped
	Recovery
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Disabled:
		return "DISABLED"
	case Enabled:
		return "ENABLED"
	case Tripped:
		return "TRIPPED"
	case Recovery:
		return "RECOVERY"
	default:
		return "UNKNOWN"
	}
}

// Command is a ground-issued command targeting one panel's FSM.
type Command int

const (
	CmdNone Command = iota
	CmdReenable
	CmdPermanentDisable
	CmdResetStats
)

// Config bundles the tunable constants driving hysteresis and timeouts
// (spec.md §4.6, §6).
type Config struct {
	StableRequired        uint8  // STABLE_REQUIRED, default 6
	RecoveryStableRequired uint8 // RECOVERY_STABLE_REQ, default 24
	EnableTimeoutMS       uint32 // ENABLE_TIMEOUT_MS, default 300000
	RecoveryTelemetryMS   uint32 // periodic RECOVERY telemetry cadence, default 60000
}

// DefaultConfig returns the reference constants from spec.md §6.
func DefaultConfig() Config {
	return Config{
		StableRequired:         6,
		RecoveryStableRequired: 24,
		EnableTimeoutMS:        300_000,
		RecoveryTelemetryMS:    60_000,
	}
}

// FSM holds all per-panel protection state (spec.md §3 PanelProtection).
type FSM struct {
	Panel int

	state State

	lastEnableTime uint32
	tripTime       uint32
	lastLogTime    uint32
	lastRecoveryLog uint32

	stableCount uint8

	hardwareTripped bool
	groundApproved  bool

	pNominal float64
	vNominal float64

	enableCount     uint64
	tripCount       uint64
	falseAlarmCount uint64

	pendingCommand Command

	cfg Config
}

// New creates an FSM for one panel in the initial DISABLED state.
func New(panel int, pNominal, vNominal float64, cfg Config) *FSM {
	return &FSM{
		Panel:    panel,
		state:    Disabled,
		pNominal: pNominal,
		vNominal: vNominal,
		cfg:      cfg,
	}
}

// State returns the current state.
func (f *FSM) State() State { return f.state }

// TripTime returns the tick timestamp (ms) of the most recent trip.
func (f *FSM) TripTime() uint32 { return f.tripTime }

// PNominal returns the panel's configured nominal power.
func (f *FSM) PNominal() float64 { return f.pNominal }

// VNominal returns the panel's configured nominal voltage.
func (f *FSM) VNominal() float64 { return f.vNominal }

// Counters returns the enable/trip/false-alarm counters, for telemetry
// and for the invariant enable_count >= trip_count + false_alarm_count.
func (f *FSM) Counters() (enable, trip, falseAlarm uint64) {
	return f.enableCount, f.tripCount, f.falseAlarmCount
}

// PostCommand queues a ground command for the next Step call. A second
// post before the FSM consumes the first overwrites it, matching the
// single-slot single-producer/single-consumer contract of spec.md §3.
func (f *FSM) PostCommand(cmd Command) {
	f.pendingCommand = cmd
}

// Step advances the FSM by exactly one tick given this tick's anomaly
// verdict, and drives hw for any state-transition side effect. No more
// than one state transition happens per call (spec.md §4.6).
func (f *FSM) Step(ctx context.Context, hw hardware.Hardware, flags anomaly.Flags, now uint32, sink telemetry.Sink) error {
	cmd := f.pendingCommand
	f.pendingCommand = CmdNone

	if cmd == CmdResetStats {
		f.enableCount, f.tripCount, f.falseAlarmCount = 0, 0, 0
	}

	switch f.state {
	case Disabled:
		return f.stepDisabled(ctx, hw, flags, now, sink)
	case Enabled:
		return f.stepEnabled(ctx, hw, flags, now, sink)
	case Tripped:
		return f.stepTripped(ctx, hw, cmd, now, sink)
	case Recovery:
		return f.stepRecovery(ctx, hw, flags, now, sink)
	}
	return nil
}

func (f *FSM) stepDisabled(ctx context.Context, hw hardware.Hardware, flags anomaly.Flags, now uint32, sink telemetry.Sink) error {
	if !flags.Anomalous() {
		return nil
	}
	if err := hw.EnableLayer2(ctx, f.Panel); err != nil {
		return err
	}
	f.lastEnableTime = now
	f.stableCount = 0
	f.enableCount++
	f.state = Enabled
	return nil
}

func (f *FSM) stepEnabled(ctx context.Context, hw hardware.Hardware, flags anomaly.Flags, now uint32, sink telemetry.Sink) error {
	tripped, err := hw.CheckMosfetStatus(ctx, f.Panel)
	if err != nil {
		return err
	}
	if tripped {
		f.hardwareTripped = true
		f.tripTime = now
		f.tripCount++
		f.state = Tripped
		if sink != nil {
			sink.Alert(f.Panel, now)
		}
		return nil
	}

	if flags.Anomalous() {
		f.stableCount = 0
	} else {
		f.stableCount++
		if f.stableCount >= f.cfg.StableRequired {
			if err := hw.DisableLayer2(ctx, f.Panel); err != nil {
				return err
			}
			f.falseAlarmCount++
			f.stableCount = 0
			f.state = Disabled
			return nil
		}
	}

	if now-f.lastEnableTime > f.cfg.EnableTimeoutMS && !f.hardwareTripped {
		if err := hw.DisableLayer2(ctx, f.Panel); err != nil {
			return err
		}
		f.falseAlarmCount++
		f.state = Disabled
	}
	return nil
}

func (f *FSM) stepTripped(ctx context.Context, hw hardware.Hardware, cmd Command, now uint32, sink telemetry.Sink) error {
	if cmd != CmdReenable {
		return nil
	}
	f.groundApproved = true
	f.stableCount = 0
	f.lastRecoveryLog = now
	if err := hw.AttemptReenableMosfet(ctx, f.Panel); err != nil {
		return err
	}
	f.state = Recovery
	return nil
}

func (f *FSM) stepRecovery(ctx context.Context, hw hardware.Hardware, flags anomaly.Flags, now uint32, sink telemetry.Sink) error {
	if flags.Anomalous() {
		if err := hw.DisableMosfet(ctx, f.Panel); err != nil {
			return err
		}
		f.tripTime = now
		f.stableCount = 0
		f.tripCount++
		f.state = Tripped
		if sink != nil {
			sink.Alert(f.Panel, now)
		}
		return nil
	}

	f.stableCount++
	if f.stableCount >= f.cfg.RecoveryStableRequired {
		if err := hw.DisableLayer2(ctx, f.Panel); err != nil {
			return err
		}
		f.groundApproved = false
		f.state = Disabled
		if sink != nil {
			sink.Success(f.Panel, now)
		}
		return nil
	}

	if sink != nil && now-f.lastRecoveryLog >= f.cfg.RecoveryTelemetryMS {
		f.lastRecoveryLog = now
		sink.Recovering(f.Panel, now)
	}
	return nil
}

// Snapshot is the byte-serializable persisted form of an FSM. With its
// timers, 64-bit counters and nominal values it holds about 70B of
// fields, more than the ~16B FSM-state budget noted in the original
// firmware.
type Snapshot struct {
	State           State   `json:"state"`
	LastEnableTime  uint32  `json:"last_enable_time"`
	TripTime        uint32  `json:"trip_time"`
	StableCount     uint8   `json:"stable_count"`
	HardwareTripped bool    `json:"hardware_tripped"`
	GroundApproved  bool    `json:"ground_approved"`
	EnableCount     uint64  `json:"enable_count"`
	TripCount       uint64  `json:"trip_count"`
	FalseAlarmCount uint64  `json:"false_alarm_count"`
	PNominal        float64 `json:"p_nominal"`
	VNominal        float64 `json:"v_nominal"`
}

// Save captures the current state.
func (f *FSM) Save() Snapshot {
	return Snapshot{
		State:           f.state,
		LastEnableTime:  f.lastEnableTime,
		TripTime:        f.tripTime,
		StableCount:     f.stableCount,
		HardwareTripped: f.hardwareTripped,
		GroundApproved:  f.groundApproved,
		EnableCount:     f.enableCount,
		TripCount:       f.tripCount,
		FalseAlarmCount: f.falseAlarmCount,
		PNominal:        f.pNominal,
		VNominal:        f.vNominal,
	}
}

// Restore replaces the FSM's state with a previously saved snapshot.
func (f *FSM) Restore(s Snapshot) {
	f.state = s.State
	f.lastEnableTime = s.LastEnableTime
	f.tripTime = s.TripTime
	f.stableCount = s.StableCount
	f.hardwareTripped = s.HardwareTripped
	f.groundApproved = s.GroundApproved
	f.enableCount = s.EnableCount
	f.tripCount = s.TripCount
	f.falseAlarmCount = s.FalseAlarmCount
	f.pNominal = s.PNominal
	f.vNominal = s.VNominal
}
