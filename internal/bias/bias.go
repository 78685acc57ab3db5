// Package bias implements the per-panel online bias corrector: a
// cumulative-average warmup followed by an exponentially weighted moving
// average of the prediction residual, grounded on the original
// EPS_BiasCorrector (deploy/stm32_package/eps_bias_corrector.h).
package bias

// Corrector tracks independent power and voltage biases for one panel.
type Corrector struct {
	biasPower   float64
	biasVoltage float64
	n           uint32
	alpha       float64
	warmup      uint32
}

// New creates a Corrector with decay factor alpha in (0,1] and warmup
// sample count w >= 1.
func New(alpha float64, w uint32) *Corrector {
	return &Corrector{alpha: alpha, warmup: w}
}

// Update folds a new (truth, raw-prediction) pair into the bias estimate
// for both channels. Callers must pass the raw, uncorrected predictions —
// never the output of Correct — or residual tracking becomes biased.
func (c *Corrector) Update(yTruePower, yPredPower, yTrueVoltage, yPredVoltage float64) {
	residualP := yTruePower - yPredPower
	residualV := yTrueVoltage - yPredVoltage

	if c.n < c.warmup {
		c.biasPower = (c.biasPower*float64(c.n) + residualP) / float64(c.n+1)
		c.biasVoltage = (c.biasVoltage*float64(c.n) + residualV) / float64(c.n+1)
	} else {
		c.biasPower = c.alpha*residualP + (1-c.alpha)*c.biasPower
		c.biasVoltage = c.alpha*residualV + (1-c.alpha)*c.biasVoltage
	}
	c.n++
}

// Correct adds the current bias estimate to predPower/predVoltage in
// place, but only once the corrector has cleared warmup; otherwise it is
// a no-op.
func (c *Corrector) Correct(predPower, predVoltage *float64) {
	if c.n < c.warmup {
		return
	}
	*predPower += c.biasPower
	*predVoltage += c.biasVoltage
}

// Ready reports whether warmup has completed.
func (c *Corrector) Ready() bool {
	return c.n >= c.warmup
}

// BiasPower returns the current power bias estimate, for telemetry.
func (c *Corrector) BiasPower() float64 { return c.biasPower }

// BiasVoltage returns the current voltage bias estimate, for telemetry.
func (c *Corrector) BiasVoltage() float64 { return c.biasVoltage }

// SampleCount returns the number of updates folded in so far.
func (c *Corrector) SampleCount() uint32 { return c.n }

// Snapshot is the byte-serializable persisted form of a Corrector,
// matching the ~32B budget noted in the original firmware's save/restore
// pseudocode.
type Snapshot struct {
	BiasPower   float64 `json:"bias_power"`
	BiasVoltage float64 `json:"bias_voltage"`
	N           uint32  `json:"n"`
	Alpha       float64 `json:"alpha"`
	Warmup      uint32  `json:"warmup"`
}

// Save captures the current state.
func (c *Corrector) Save() Snapshot {
	return Snapshot{
		BiasPower:   c.biasPower,
		BiasVoltage: c.biasVoltage,
		N:           c.n,
		Alpha:       c.alpha,
		Warmup:      c.warmup,
	}
}

// Restore replaces the corrector's state with a previously saved
// snapshot.
func (c *Corrector) Restore(s Snapshot) {
	c.biasPower = s.BiasPower
	c.biasVoltage = s.BiasVoltage
	c.n = s.N
	c.alpha = s.Alpha
	c.warmup = s.Warmup
}
