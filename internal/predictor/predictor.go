// Package predictor defines the external, pure, stateless regression
// predictor interface (spec.md §6: predict_power, predict_voltage),
// following the teacher's internal/collector.Collector design
// philosophy: a small interface, no panel identity, trivially mockable.
package predictor

import "github.com/orbitwatch/eps-fdir/internal/feature"

// Predictor predicts next-step power and voltage from feature vectors.
// Implementations must be pure and deterministic: no panel identity, no
// internal state mutated across calls.
type Predictor interface {
	PredictPower(features [feature.PowerFeatures]float64) float64
	PredictVoltage(features [feature.VoltageFeatures]float64) float64
}

// Linear is a deterministic stand-in predictor used for simulation and
// tests in the absence of the offline-trained model this module treats
// as an opaque external collaborator. It predicts power as the most
// recent lag sample (P_lag1) and voltage likewise (V_lag1), i.e. a naive
// persistence forecast — adequate to exercise bias correction and
// residual tracking without requiring the real trained model artifact.
type Linear struct{}

// PredictPower implements Predictor.
func (Linear) PredictPower(f [feature.PowerFeatures]float64) float64 {
	return f[0] // P_lag1
}

// PredictVoltage implements Predictor.
func (Linear) PredictVoltage(f [feature.VoltageFeatures]float64) float64 {
	return f[0] // V_lag1
}
