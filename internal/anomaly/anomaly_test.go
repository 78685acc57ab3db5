package anomaly

import "testing"

func TestNoAnomalyOnNominalInputs(t *testing.T) {
	th := DefaultThresholds()
	flags, _ := Detect(Inputs{
		PMeas: 8.4, VMeas: 17.5,
		PPred: 8.4, VPred: 17.5,
		PPrev: 8.4, VPrev: 17.5,
		DeltaT: 5, PNominal: 8.4, VNominal: 17.5,
	}, th)
	if flags.Anomalous() {
		t.Errorf("nominal inputs flagged anomalous: %+v", flags)
	}
}

func TestPowerSpikeFlag(t *testing.T) {
	th := DefaultThresholds()
	flags, _ := Detect(Inputs{
		PMeas: 11, VMeas: 17.5,
		PPred: 11, VPred: 17.5, // PPred > PNominal*1.2 = 10.08
		PPrev: 8.4, VPrev: 17.5,
		DeltaT: 5, PNominal: 8.4, VNominal: 17.5,
	}, th)
	if !flags.PowerSpike {
		t.Errorf("expected power_spike, got %+v", flags)
	}
}

func TestVoltageDropFlag(t *testing.T) {
	th := DefaultThresholds()
	flags, _ := Detect(Inputs{
		PMeas: 8.4, VMeas: 16.5, // VPred - VMeas = 1.0 > 0.5
		PPred: 8.4, VPred: 17.5,
		PPrev: 8.4, VPrev: 17.5,
		DeltaT: 5, PNominal: 8.4, VNominal: 17.5,
	}, th)
	if !flags.VoltageDrop {
		t.Errorf("expected voltage_drop, got %+v", flags)
	}
}

func TestHighDynamicsRequiresBoth(t *testing.T) {
	th := DefaultThresholds()
	// Large dP alone, small dV: should not set high_dynamics.
	flags, _ := Detect(Inputs{
		PMeas: 20, VMeas: 17.5,
		PPred: 8.4, VPred: 17.5,
		PPrev: 8.4, VPrev: 17.5,
		DeltaT: 1, PNominal: 8.4, VNominal: 17.5,
	}, th)
	if flags.HighDynamics {
		t.Errorf("high_dynamics set with dV below threshold: %+v", flags)
	}

	flags, _ = Detect(Inputs{
		PMeas: 20, VMeas: 10,
		PPred: 8.4, VPred: 17.5,
		PPrev: 8.4, VPrev: 17.5,
		DeltaT: 1, PNominal: 8.4, VNominal: 17.5,
	}, th)
	if !flags.HighDynamics {
		t.Errorf("expected high_dynamics with both dP and dV above threshold: %+v", flags)
	}
}

func TestLargeResidualFlagAndSign(t *testing.T) {
	th := DefaultThresholds()
	flags, residual := Detect(Inputs{
		PMeas: 10, VMeas: 17.5,
		PPred: 8.4, VPred: 17.5, // residual = 1.6 > K*sigma = 1.5
		PPrev: 8.4, VPrev: 17.5,
		DeltaT: 5, PNominal: 8.4, VNominal: 17.5,
	}, th)
	if !flags.LargeResidual {
		t.Errorf("expected large_residual, got %+v", flags)
	}
	if d := residual - 1.6; d > 1e-9 || d < -1e-9 {
		t.Errorf("residual = %v, want 1.6", residual)
	}
}

func TestAnomalousRequiresAtLeastTwo(t *testing.T) {
	f := Flags{PowerSpike: true}
	if f.Anomalous() {
		t.Errorf("single flag reported anomalous")
	}
	f.VoltageDrop = true
	if !f.Anomalous() {
		t.Errorf("two flags not reported anomalous")
	}
}

func TestDeltaTDefaultsWhenNonPositive(t *testing.T) {
	th := DefaultThresholds()
	_, residual := Detect(Inputs{
		PMeas: 8.4, VMeas: 17.5,
		PPred: 8.4, VPred: 17.5,
		PPrev: 8.4, VPrev: 17.5,
		DeltaT: 0, PNominal: 8.4, VNominal: 17.5,
	}, th)
	if residual != 0 {
		t.Errorf("residual = %v, want 0", residual)
	}

	// dP = dV = 1/5 = 0.2 per second under the 5s default: below both
	// thresholds. A zero divisor would make both infinite and set the flag.
	flags, _ := Detect(Inputs{
		PMeas: 9.4, VMeas: 18.5,
		PPred: 9.4, VPred: 18.5,
		PPrev: 8.4, VPrev: 17.5,
		DeltaT: 0, PNominal: 8.4, VNominal: 17.5,
	}, th)
	if flags.HighDynamics {
		t.Errorf("high_dynamics set with DeltaT=0; want the 5s default applied: %+v", flags)
	}
}
