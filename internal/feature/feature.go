// Package feature builds the power and voltage feature vectors consumed
// by the external predictor, from a lagbuffer.Buffer.
package feature

import "github.com/orbitwatch/eps-fdir/internal/lagbuffer"

// PowerFeatures is the fixed length of the power feature vector. Its
// field order is part of the ABI with the external predictor and must
// not change (spec.md §4.2).
const PowerFeatures = 10

// VoltageFeatures is the fixed length of the voltage feature vector.
const VoltageFeatures = 5

// powerLags are the lag-k indices used for both the direct lag features
// and as the basis for the derivative features, in exactly this order:
// P_lag1, P_lag2, P_lag3, P_lag6, P_lag12.
var powerLags = [5]int{1, 2, 3, 6, 12}

// voltageLags mirrors powerLags for the voltage vector.
var voltageLags = [5]int{1, 2, 3, 6, 12}

// BuildPower fills out with [P_lag1, P_lag2, P_lag3, P_lag6, P_lag12,
// dP_lag1, dP_lag2, dP_lag3, dP_lag6, dP_lag12], where
// dP_lagk = P_lagk - P_lag(k+1). Returns false without touching out when
// buf is not ready.
func BuildPower(buf *lagbuffer.Buffer, out *[PowerFeatures]float64) bool {
	if !buf.Ready() {
		return false
	}
	for i, k := range powerLags {
		out[i] = buf.LagPower(k)
	}
	for i, k := range powerLags {
		out[5+i] = buf.LagPower(k) - buf.LagPower(k+1)
	}
	return true
}

// BuildVoltage fills out with [V_lag1, V_lag2, V_lag3, V_lag6, V_lag12].
// Returns false without touching out when buf is not ready.
func BuildVoltage(buf *lagbuffer.Buffer, out *[VoltageFeatures]float64) bool {
	if !buf.Ready() {
		return false
	}
	for i, k := range voltageLags {
		out[i] = buf.LagVoltage(k)
	}
	return true
}
