// Package runtime implements the per-panel per-tick orchestration
// (PanelRuntime) and the fleet-level sweep (System), grounded on the
// teacher's internal/orchestrator.Orchestrator — adapted from a
// one-shot parallel batch collection run into a single-threaded
// sequential per-tick sweep, per spec.md §5's cooperative scheduling
// model.
package runtime

import (
	"context"
	"math"

	"github.com/orbitwatch/eps-fdir/internal/anomaly"
	"github.com/orbitwatch/eps-fdir/internal/bias"
	"github.com/orbitwatch/eps-fdir/internal/config"
	"github.com/orbitwatch/eps-fdir/internal/feature"
	"github.com/orbitwatch/eps-fdir/internal/hardware"
	"github.com/orbitwatch/eps-fdir/internal/lagbuffer"
	"github.com/orbitwatch/eps-fdir/internal/persistence"
	"github.com/orbitwatch/eps-fdir/internal/predictor"
	"github.com/orbitwatch/eps-fdir/internal/protection"
	"github.com/orbitwatch/eps-fdir/internal/quantile"
	"github.com/orbitwatch/eps-fdir/internal/telemetry"
)

// SkipReason explains why a tick produced no observation, replacing the
// reference firmware's early `return` from the tick function with an
// explicit, testable result type (spec.md §9 design note).
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipNotReady
	SkipFeatureBuildFailed
	SkipNaNMeasurement
	SkipHardwareError
)

// String implements fmt.Stringer.
func (s SkipReason) String() string {
	switch s {
	case SkipNotReady:
		return "not_ready"
	case SkipFeatureBuildFailed:
		return "feature_build_failed"
	case SkipNaNMeasurement:
		return "nan_measurement"
	case SkipHardwareError:
		return "hardware_error"
	default:
		return "none"
	}
}

// Observation is the externally visible result of a stepped (non-skipped)
// tick, useful for tests and for telemetry formatting.
type Observation struct {
	Panel            int
	Voltage, Current float32
	Power            float64
	PredPower        float64
	PredVoltage      float64
	State            protection.State
	Anomaly          anomaly.Flags
}

// Result is the outcome of one PanelRuntime.Step call: either Skipped
// (with a reason) or Stepped (with an Observation), never both.
type Result struct {
	Skipped     bool
	Reason      SkipReason
	Observation Observation
}

// PanelRuntime owns all per-panel state: the lag buffer, bias corrector,
// two quantile trackers, and the protection FSM (spec.md §3).
type PanelRuntime struct {
	Panel int

	lag       *lagbuffer.Buffer
	bias      *bias.Corrector
	p2Power   *quantile.Estimator
	p2Voltage *quantile.Estimator
	fsm       *protection.FSM

	pPrev, vPrev float64

	thresholds anomaly.Thresholds
	deltaT     float64
}

// NewPanelRuntime creates a PanelRuntime for one panel from cfg.
func NewPanelRuntime(panel int, cfg config.Config) *PanelRuntime {
	pc := cfg.Panels[panel]
	return &PanelRuntime{
		Panel:      panel,
		lag:        lagbuffer.New(),
		bias:       bias.New(cfg.BiasAlpha, cfg.BiasWarmup),
		p2Power:    quantile.New(cfg.QuantileP),
		p2Voltage:  quantile.New(cfg.QuantileP),
		fsm:        protection.New(panel, pc.PNominal, pc.VNominal, cfg.Protection),
		thresholds: cfg.Thresholds,
		deltaT:     float64(cfg.TickIntervalMS) / 1000.0,
	}
}

// PostCommand forwards a ground command to this panel's FSM.
func (p *PanelRuntime) PostCommand(cmd protection.Command) {
	p.fsm.PostCommand(cmd)
}

// State returns the panel's current protection state.
func (p *PanelRuntime) State() protection.State {
	return p.fsm.State()
}

// Counters returns the enable/trip/false-alarm counters for this panel.
func (p *PanelRuntime) Counters() (enable, trip, falseAlarm uint64) {
	return p.fsm.Counters()
}

// Step runs the full per-tick sequence of spec.md §4.7 for this panel:
// read sensors, push lag buffer, build features, predict, correct,
// drive the FSM, then update bias with the raw (uncorrected) prediction.
func (p *PanelRuntime) Step(ctx context.Context, hw hardware.Hardware, pred predictor.Predictor, sink telemetry.Sink, now uint32) Result {
	voltage, err := hw.ReadVoltage(ctx, p.Panel)
	if err != nil {
		return Result{Skipped: true, Reason: SkipHardwareError}
	}
	current, err := hw.ReadCurrent(ctx, p.Panel)
	if err != nil {
		return Result{Skipped: true, Reason: SkipHardwareError}
	}

	power := float64(voltage) * float64(current)

	if isNaNf(voltage) || isNaNf(current) || math.IsNaN(power) {
		// NaN measurements are treated as non-anomalous and never pushed
		// into the lag buffer (spec.md §9).
		return Result{Skipped: true, Reason: SkipNaNMeasurement}
	}

	p.lag.Push(power, float64(voltage))
	if !p.lag.Ready() {
		p.pPrev, p.vPrev = power, float64(voltage)
		return Result{Skipped: true, Reason: SkipNotReady}
	}

	var powerFeatures [feature.PowerFeatures]float64
	var voltageFeatures [feature.VoltageFeatures]float64
	if !feature.BuildPower(p.lag, &powerFeatures) || !feature.BuildVoltage(p.lag, &voltageFeatures) {
		p.pPrev, p.vPrev = power, float64(voltage)
		return Result{Skipped: true, Reason: SkipFeatureBuildFailed}
	}

	predPowerRaw := pred.PredictPower(powerFeatures)
	predVoltageRaw := pred.PredictVoltage(voltageFeatures)

	predPower, predVoltage := predPowerRaw, predVoltageRaw
	p.bias.Correct(&predPower, &predVoltage)

	flags, residual := anomaly.Detect(anomaly.Inputs{
		PMeas:    power,
		VMeas:    float64(voltage),
		PPred:    predPower,
		VPred:    predVoltage,
		PPrev:    p.pPrev,
		VPrev:    p.vPrev,
		DeltaT:   p.deltaT,
		PNominal: p.fsm.PNominal(),
		VNominal: p.fsm.VNominal(),
	}, p.thresholds)

	_ = p.fsm.Step(ctx, hw, flags, now, sink)

	// Ordering constraint: bias.Update must consume the raw, uncorrected
	// predictions, never the corrected ones (spec.md §4.7).
	p.bias.Update(power, predPowerRaw, float64(voltage), predVoltageRaw)

	p.p2Power.Update(math.Abs(residual))
	p.p2Voltage.Update(math.Abs(float64(voltage) - predVoltage))

	p.pPrev, p.vPrev = power, float64(voltage)

	if sink != nil {
		sink.SendTelemetry(p.Panel, voltage, current, float32(power))
	}

	return Result{
		Observation: Observation{
			Panel:       p.Panel,
			Voltage:     voltage,
			Current:     current,
			Power:       power,
			PredPower:   predPower,
			PredVoltage: predVoltage,
			State:       p.fsm.State(),
			Anomaly:     flags,
		},
	}
}

// Snapshot captures this panel's persisted state.
func (p *PanelRuntime) Snapshot() persistence.PanelSnapshot {
	return persistence.PanelSnapshot{
		Panel:      p.Panel,
		Bias:       p.bias.Save(),
		P2Power:    p.p2Power.Save(),
		P2Voltage:  p.p2Voltage.Save(),
		Protection: p.fsm.Save(),
	}
}

// Restore replaces this panel's state with a previously saved snapshot.
func (p *PanelRuntime) Restore(s persistence.PanelSnapshot) {
	p.bias.Restore(s.Bias)
	p.p2Power.Restore(s.P2Power)
	p.p2Voltage.Restore(s.P2Voltage)
	p.fsm.Restore(s.Protection)
}

func isNaNf(f float32) bool {
	return math.IsNaN(float64(f))
}
