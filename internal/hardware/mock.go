package hardware

import (
	"context"
	"fmt"
)

// Mock is a scripted, in-memory Hardware implementation for tests. It
// records every call and lets a test preload one sensor reading and one
// mosfet-status result per panel, returned on every call until changed.
type Mock struct {
	NumPanels int

	Voltage []float32
	Current []float32

	// MosfetOpen, when true for a panel, makes CheckMosfetStatus report
	// the panel as tripped.
	MosfetOpen []bool

	// Layer2Enabled, ReenableAttempts, DisableCount track call history
	// for assertions.
	Layer2Enabled    []bool
	ReenableAttempts []int
	DisableCount     []int

	nowMS uint32

	Calls []string
}

// NewMock creates a Mock sized for n panels.
func NewMock(n int) *Mock {
	return &Mock{
		NumPanels:        n,
		Voltage:          make([]float32, n),
		Current:          make([]float32, n),
		MosfetOpen:       make([]bool, n),
		Layer2Enabled:    make([]bool, n),
		ReenableAttempts: make([]int, n),
		DisableCount:     make([]int, n),
	}
}

func (m *Mock) record(format string, args ...interface{}) {
	m.Calls = append(m.Calls, fmt.Sprintf(format, args...))
}

// ReadVoltage returns the preloaded voltage for panel.
func (m *Mock) ReadVoltage(ctx context.Context, panel int) (float32, error) {
	m.record("read_voltage(%d)", panel)
	return m.Voltage[panel], nil
}

// ReadCurrent returns the preloaded current for panel.
func (m *Mock) ReadCurrent(ctx context.Context, panel int) (float32, error) {
	m.record("read_current(%d)", panel)
	return m.Current[panel], nil
}

// EnableLayer2 arms the Layer-2 comparator for panel.
func (m *Mock) EnableLayer2(ctx context.Context, panel int) error {
	m.record("enable_layer2(%d)", panel)
	m.Layer2Enabled[panel] = true
	return nil
}

// DisableLayer2 disarms the Layer-2 comparator for panel.
func (m *Mock) DisableLayer2(ctx context.Context, panel int) error {
	m.record("disable_layer2(%d)", panel)
	m.Layer2Enabled[panel] = false
	return nil
}

// CheckMosfetStatus reports the scripted open/closed state for panel.
func (m *Mock) CheckMosfetStatus(ctx context.Context, panel int) (bool, error) {
	m.record("check_mosfet_status(%d)", panel)
	return m.MosfetOpen[panel], nil
}

// AttemptReenableMosfet records a reenable attempt and clears the
// scripted open state (a real driver would sense the actual result).
func (m *Mock) AttemptReenableMosfet(ctx context.Context, panel int) error {
	m.record("attempt_reenable_mosfet(%d)", panel)
	m.ReenableAttempts[panel]++
	m.MosfetOpen[panel] = false
	return nil
}

// DisableMosfet forces panel open.
func (m *Mock) DisableMosfet(ctx context.Context, panel int) error {
	m.record("disable_mosfet(%d)", panel)
	m.DisableCount[panel]++
	m.MosfetOpen[panel] = true
	return nil
}

// NowMS returns the mock's controllable clock.
func (m *Mock) NowMS() uint32 {
	return m.nowMS
}

// Advance moves the mock clock forward by ms milliseconds.
func (m *Mock) Advance(ms uint32) {
	m.nowMS += ms
}
