// Package anomaly implements the per-panel anomaly detector: four
// independent boolean conditions and their count, generalized from the
// teacher's internal/model.DetectAnomalies threshold-count pattern onto
// the EPS panel domain.
package anomaly

// Thresholds holds the tunable constants for the four conditions
// (spec.md §4.5).
type Thresholds struct {
	SpikeMultiplier float64 // M_SPIKE, default 1.2
	VoltageDropV    float64 // T_V_DROP, default 0.5
	DPThreshold     float64 // T_dP, default 0.5 W/s
	DVThreshold     float64 // T_dV, default 0.3 V/s
	ResidualK       float64 // K, default 3
	SigmaPower      float64 // fixed sigma_P, default 0.5 W
}

// DefaultThresholds returns the reference constants from spec.md §4.5.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SpikeMultiplier: 1.2,
		VoltageDropV:    0.5,
		DPThreshold:     0.5,
		DVThreshold:     0.3,
		ResidualK:       3,
		SigmaPower:      0.5,
	}
}

// Flags reports which of the four conditions fired on a given tick.
type Flags struct {
	PowerSpike    bool
	VoltageDrop   bool
	HighDynamics  bool
	LargeResidual bool
}

// Count returns how many of the four flags are set.
func (f Flags) Count() int {
	n := 0
	if f.PowerSpike {
		n++
	}
	if f.VoltageDrop {
		n++
	}
	if f.HighDynamics {
		n++
	}
	if f.LargeResidual {
		n++
	}
	return n
}

// Anomalous reports whether at least two of the four conditions fired
// (spec.md §4.5: anomaly = count >= 2).
func (f Flags) Anomalous() bool {
	return f.Count() >= 2
}

// Inputs bundles the per-tick measurements and prediction needed to
// evaluate the four conditions.
type Inputs struct {
	PMeas, VMeas   float64
	PPred, VPred   float64
	PPrev, VPrev   float64
	DeltaT         float64 // seconds between samples, default 5
	PNominal       float64
	VNominal       float64
}

// Detect evaluates the four conditions for one panel on one tick.
func Detect(in Inputs, th Thresholds) (Flags, float64) {
	dt := in.DeltaT
	if dt <= 0 {
		dt = 5
	}
	dP := (in.PMeas - in.PPrev) / dt
	dV := (in.VMeas - in.VPrev) / dt
	residual := in.PMeas - in.PPred

	flags := Flags{
		PowerSpike:    in.PPred > in.PNominal*th.SpikeMultiplier,
		VoltageDrop:   in.VMeas < in.VPred-th.VoltageDropV,
		HighDynamics:  absf(dP) > th.DPThreshold && absf(dV) > th.DVThreshold,
		LargeResidual: absf(residual) > th.ResidualK*th.SigmaPower,
	}
	return flags, residual
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
