package feature

import (
	"testing"

	"github.com/orbitwatch/eps-fdir/internal/lagbuffer"
)

func TestBuildPowerNotReady(t *testing.T) {
	buf := lagbuffer.New()
	var out [PowerFeatures]float64
	if BuildPower(buf, &out) {
		t.Errorf("BuildPower succeeded on an unready buffer")
	}
}

func TestBuildPowerReady(t *testing.T) {
	buf := lagbuffer.New()
	for i := 1; i <= 14; i++ {
		buf.Push(float64(i), float64(i)*10)
	}
	var out [PowerFeatures]float64
	if !BuildPower(buf, &out) {
		t.Fatalf("BuildPower failed on a ready buffer")
	}
	// P_lag1..P_lag12 at {1,2,3,6,12} from the most recent push of 14.
	want := [PowerFeatures]float64{13, 12, 11, 8, 2, 1, 1, 1, 1, 1}
	if out != want {
		t.Errorf("BuildPower = %v, want %v", out, want)
	}
}

func TestBuildVoltageReady(t *testing.T) {
	buf := lagbuffer.New()
	for i := 1; i <= 14; i++ {
		buf.Push(float64(i), float64(i)*10)
	}
	var out [VoltageFeatures]float64
	if !BuildVoltage(buf, &out) {
		t.Fatalf("BuildVoltage failed on a ready buffer")
	}
	want := [VoltageFeatures]float64{130, 120, 110, 80, 20}
	if out != want {
		t.Errorf("BuildVoltage = %v, want %v", out, want)
	}
}
