// Package quantile implements the P² online quantile estimator (Jain &
// Chlamtac, 1985), grounded verbatim on the original EPS_P2Quantile
// (deploy/stm32_package/eps_p2_quantile.h).
package quantile

import "sort"

// Estimator tracks a single target quantile p over a stream of float64
// samples using five markers, without storing the samples themselves.
type Estimator struct {
	q           [5]float64 // marker heights
	nMarkers    [5]float64 // desired (ideal) marker positions, n'
	nActual     [5]int64   // actual marker positions, n
	n           int64      // total samples seen since initialization
	p           float64
	initialized bool
	initBuf     [5]float64
	initCount   int
}

// New creates an Estimator for quantile p in (0,1), e.g. 0.99.
func New(p float64) *Estimator {
	return &Estimator{p: p}
}

// Ready reports whether the five-sample initialization has completed.
func (e *Estimator) Ready() bool {
	return e.initialized
}

// Estimate returns the current quantile estimate (q[2]), or 0 before
// initialization.
func (e *Estimator) Estimate() float64 {
	if !e.initialized {
		return 0
	}
	return e.q[2]
}

// Update folds a new sample into the estimator.
func (e *Estimator) Update(x float64) {
	if !e.initialized {
		e.initBuf[e.initCount] = x
		e.initCount++
		if e.initCount == 5 {
			e.finishInit()
		}
		return
	}
	e.updateSteadyState(x)
}

func (e *Estimator) finishInit() {
	sorted := e.initBuf
	sort.Float64s(sorted[:])
	for i := 0; i < 5; i++ {
		e.q[i] = sorted[i]
		e.nActual[i] = int64(i + 1)
	}
	p := e.p
	e.nMarkers = [5]float64{1, 1 + 2*p, 1 + 4*p, 3 + 2*p, 5}
	e.n = 5
	e.initialized = true
}

func (e *Estimator) updateSteadyState(x float64) {
	k := e.locateCell(x)

	for i := k + 1; i < 5; i++ {
		e.nActual[i]++
	}
	e.n++

	p := e.p
	nf := float64(e.n)
	e.nMarkers[1] = 1 + 2*p*(nf-1)
	e.nMarkers[2] = 1 + 4*p*(nf-1)
	e.nMarkers[3] = 3 + 2*p*(nf-1)
	e.nMarkers[4] = nf

	for i := 1; i <= 3; i++ {
		e.adjustMarker(i)
	}
}

// locateCell finds the marker index k such that q[k] <= x < q[k+1],
// applying the boundary rules: values below q[0] replace q[0]; values at
// or above q[4] replace q[4].
func (e *Estimator) locateCell(x float64) int {
	if x < e.q[0] {
		e.q[0] = x
		return 0
	}
	if x >= e.q[4] {
		e.q[4] = x
		return 3
	}
	for i := 1; i < 5; i++ {
		if x < e.q[i] {
			return i - 1
		}
	}
	return 3
}

// adjustMarker applies the P² parabolic/linear adjustment for interior
// marker i in {1,2,3}.
func (e *Estimator) adjustMarker(i int) {
	d := e.nMarkers[i] - float64(e.nActual[i])
	canRight := d >= 1 && e.nActual[i+1]-e.nActual[i] > 1
	canLeft := d <= -1 && e.nActual[i-1]-e.nActual[i] < -1
	if !canRight && !canLeft {
		return
	}

	s := 1.0
	if d < 0 {
		s = -1.0
	}

	denomOuter := float64(e.nActual[i+1] - e.nActual[i-1])
	denomRight := float64(e.nActual[i+1] - e.nActual[i])
	denomLeft := float64(e.nActual[i] - e.nActual[i-1])
	if denomOuter == 0 || denomRight == 0 || denomLeft == 0 {
		return
	}

	qNew := e.q[i] + s/denomOuter*(
		(float64(e.nActual[i]-e.nActual[i-1])+s)*(e.q[i+1]-e.q[i])/denomRight+
			(float64(e.nActual[i+1]-e.nActual[i])-s)*(e.q[i]-e.q[i-1])/denomLeft)

	if e.q[i-1] < qNew && qNew < e.q[i+1] {
		e.q[i] = qNew
	} else {
		si := i
		if s < 0 {
			si = i - 1
		} else {
			si = i + 1
		}
		denom := float64(e.nActual[si] - e.nActual[i])
		if denom == 0 {
			return
		}
		e.q[i] = e.q[i] + s*(e.q[si]-e.q[i])/denom
	}
	e.nActual[i] += int64(s)
}

// Snapshot is the byte-serializable persisted form of an Estimator. It
// holds the marker heights, both position sets and the initialization
// buffer, about 180B of fields, more than the ~80B budget noted in the
// original firmware.
type Snapshot struct {
	Q           [5]float64 `json:"q"`
	NMarkers    [5]float64 `json:"n_markers"`
	NActual     [5]int64   `json:"n_actual"`
	N           int64      `json:"n"`
	P           float64    `json:"p"`
	Initialized bool       `json:"initialized"`
	InitBuf     [5]float64 `json:"init_buffer"`
	InitCount   int        `json:"init_count"`
}

// Save captures the current state.
func (e *Estimator) Save() Snapshot {
	return Snapshot{
		Q:           e.q,
		NMarkers:    e.nMarkers,
		NActual:     e.nActual,
		N:           e.n,
		P:           e.p,
		Initialized: e.initialized,
		InitBuf:     e.initBuf,
		InitCount:   e.initCount,
	}
}

// Restore replaces the estimator's state with a previously saved
// snapshot.
func (e *Estimator) Restore(s Snapshot) {
	e.q = s.Q
	e.nMarkers = s.NMarkers
	e.nActual = s.NActual
	e.n = s.N
	e.p = s.P
	e.initialized = s.Initialized
	e.initBuf = s.InitBuf
	e.initCount = s.InitCount
}
