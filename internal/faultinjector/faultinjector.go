// Package faultinjector is a deterministic transform on (power, voltage,
// current) given a scenario and a step counter, used by tests and by the
// simulated hardware behind the eps-fdir run command,
// grounded verbatim on the original firmware's fault_injection.c: the
// same linear congruential generator and the same four scenario
// formulas.
package faultinjector

// Scenario identifies a fault type.
type Scenario int

const (
	None Scenario = iota
	Shade
	OpenCircuit
	ShortCircuit
	SensorNoise
)

// Spec parameterizes one fault application (spec.md §4.8).
type Spec struct {
	Panel     int
	Type      Scenario
	StartStep uint32
	Duration  uint32 // 0 = persistent
	Severity  float32
}

// RNG is the deterministic linear congruential generator from the
// original fault_injection.c: state = 1664525*state + 1013904223, output
// scaled to roughly [0,1).
type RNG struct {
	state uint32
}

// NewRNG creates an RNG seeded for reproducible test scenarios.
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// Float returns the next pseudo-random value in [0, 1).
func (r *RNG) Float() float32 {
	r.state = 1664525*r.state + 1013904223
	return float32(r.state>>8) * (1.0 / 16777216.0)
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// Apply transforms (P, V, I) in place for the given step, according to
// sc. A nil sc, or a step outside [StartStep, StartStep+Duration) for a
// non-persistent scenario, leaves the values untouched.
func Apply(sc *Spec, step uint32, rng *RNG, p, v, i *float32) {
	if sc == nil || sc.Type == None {
		return
	}
	if step < sc.StartStep {
		return
	}
	if sc.Duration != 0 && step >= sc.StartStep+sc.Duration {
		return
	}

	switch sc.Type {
	case Shade:
		elapsed := float32(0)
		if sc.Duration > 0 {
			elapsed = minf(1, float32(step-sc.StartStep)/maxf(1, float32(sc.Duration)))
		}
		factor := 1 - sc.Severity*elapsed
		*p *= factor
		*i = *p / maxf(0.1, *v)

	case OpenCircuit:
		*i *= 0.05 + 0.02*sc.Severity
		*p = *v * *i
		*v *= 1 + 0.05*sc.Severity

	case ShortCircuit:
		*v *= 0.15 + 0.2*(1-sc.Severity)
		spike := *i * (2.5 + 2.0*sc.Severity)
		*p = *v * spike
		*i = spike

	case SensorNoise:
		noiseP := (rng.Float()*2 - 1) * sc.Severity * 0.3 * (*p + 1e-3)
		noiseV := (rng.Float()*2 - 1) * sc.Severity * 0.05 * (*v + 1e-3)
		*p += noiseP
		*v += noiseV
		*i = *p / maxf(0.1, *v)
	}
}
