package lagbuffer

import "testing"

func TestNewBufferNotReady(t *testing.T) {
	b := New()
	if b.Ready() {
		t.Errorf("new buffer reports ready, want not ready")
	}
	if b.SampleCount() != 0 {
		t.Errorf("sample count = %d, want 0", b.SampleCount())
	}
}

func TestReadyAt12(t *testing.T) {
	b := New()
	for i := 0; i < 11; i++ {
		b.Push(float64(i), float64(i))
	}
	if b.Ready() {
		t.Errorf("buffer ready after 11 pushes, want not ready")
	}
	b.Push(11, 11)
	if !b.Ready() {
		t.Errorf("buffer not ready after 12 pushes, want ready")
	}
}

func TestLagOrdering(t *testing.T) {
	b := New()
	for i := 1; i <= 14; i++ {
		b.Push(float64(i), float64(i)*10)
	}
	// After pushing 1..14, lag 0 is the most recent sample (14) and lag 1
	// the one before it (13).
	if got := b.LagPower(1); got != 13 {
		t.Errorf("LagPower(1) = %v, want 13", got)
	}
	if got := b.LagPower(2); got != 12 {
		t.Errorf("LagPower(2) = %v, want 12", got)
	}
	if got := b.LagPower(12); got != 2 {
		t.Errorf("LagPower(12) = %v, want 2", got)
	}
	if got := b.LagVoltage(1); got != 130 {
		t.Errorf("LagVoltage(1) = %v, want 130", got)
	}
}

func TestLag13BootstrapZero(t *testing.T) {
	b := New()
	for i := 1; i <= 13; i++ {
		b.Push(float64(i), float64(i))
	}
	if got := b.LagPower(13); got != 0 {
		t.Errorf("LagPower(13) with sampleN=13 = %v, want 0 (bootstrap)", got)
	}
	b.Push(14, 14)
	if got := b.LagPower(13); got != 1 {
		t.Errorf("LagPower(13) with sampleN=14 = %v, want 1", got)
	}
}

func TestSampleCountSaturates(t *testing.T) {
	b := New()
	b.sampleN = ^uint32(0)
	b.Push(1, 1)
	if b.SampleCount() != ^uint32(0) {
		t.Errorf("sample count overflowed: %d", b.SampleCount())
	}
}
