package quantile

import (
	"math"
	"math/rand"
	"testing"
)

func TestNotReadyBeforeFiveSamples(t *testing.T) {
	e := New(0.5)
	for i := 0; i < 4; i++ {
		e.Update(float64(i))
	}
	if e.Ready() {
		t.Errorf("estimator ready after 4 samples, want not ready")
	}
	if e.Estimate() != 0 {
		t.Errorf("Estimate() before ready = %v, want 0", e.Estimate())
	}
}

func TestReadyAfterFiveSamples(t *testing.T) {
	e := New(0.5)
	for _, x := range []float64{3, 1, 4, 1, 5} {
		e.Update(x)
	}
	if !e.Ready() {
		t.Fatalf("estimator not ready after 5 samples")
	}
}

func TestMarkersStayOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := New(0.9)
	for i := 0; i < 5000; i++ {
		e.Update(rng.NormFloat64()*2 + 10)
		if !e.Ready() {
			continue
		}
		for i := 0; i < 4; i++ {
			if e.q[i] > e.q[i+1] {
				t.Fatalf("markers out of order at index %d: %v", i, e.q)
			}
		}
		for i := 0; i < 4; i++ {
			if e.nActual[i] >= e.nActual[i+1] {
				t.Fatalf("nActual not strictly increasing: %v", e.nActual)
			}
		}
	}
}

func TestMinMaxTracking(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := New(0.5)
	min, max := math.Inf(1), math.Inf(-1)
	for i := 0; i < 2000; i++ {
		x := rng.Float64() * 100
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
		e.Update(x)
	}
	if e.q[0] != min {
		t.Errorf("q[0] = %v, want min %v", e.q[0], min)
	}
	if e.q[4] != max {
		t.Errorf("q[4] = %v, want max %v", e.q[4], max)
	}
}

func TestConvergesOnUniformDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := New(0.99)
	for i := 0; i < 50000; i++ {
		e.Update(rng.Float64() * 100)
	}
	// True p99 of Uniform(0,100) is 99.
	if math.Abs(e.Estimate()-99) > 2 {
		t.Errorf("p99 estimate = %v, want close to 99", e.Estimate())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := New(0.95)
	for i := 0; i < 100; i++ {
		e.Update(float64(i%17) * 1.3)
	}
	snap := e.Save()

	restored := New(0)
	restored.Restore(snap)

	if restored.Estimate() != e.Estimate() {
		t.Errorf("restored estimate = %v, want %v", restored.Estimate(), e.Estimate())
	}
	if restored.q != e.q || restored.nActual != e.nActual {
		t.Errorf("restored internal state diverges from saved")
	}
}
