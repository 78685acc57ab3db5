package hardware

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockRecordsCalls(t *testing.T) {
	m := NewMock(2)
	ctx := context.Background()
	if _, err := m.ReadVoltage(ctx, 0); err != nil {
		t.Fatalf("ReadVoltage: %v", err)
	}
	if _, err := m.ReadCurrent(ctx, 0); err != nil {
		t.Fatalf("ReadCurrent: %v", err)
	}
	if len(m.Calls) != 2 {
		t.Fatalf("Calls = %v, want 2 entries", m.Calls)
	}
}

func TestMockMosfetLifecycle(t *testing.T) {
	m := NewMock(1)
	ctx := context.Background()

	tripped, _ := m.CheckMosfetStatus(ctx, 0)
	if tripped {
		t.Fatalf("mock reports tripped before being set")
	}

	m.MosfetOpen[0] = true
	tripped, _ = m.CheckMosfetStatus(ctx, 0)
	if !tripped {
		t.Fatalf("mock did not report scripted trip")
	}

	if err := m.AttemptReenableMosfet(ctx, 0); err != nil {
		t.Fatalf("AttemptReenableMosfet: %v", err)
	}
	if m.ReenableAttempts[0] != 1 {
		t.Errorf("ReenableAttempts = %d, want 1", m.ReenableAttempts[0])
	}
	tripped, _ = m.CheckMosfetStatus(ctx, 0)
	if tripped {
		t.Errorf("mosfet still reports tripped after reenable")
	}

	if err := m.DisableMosfet(ctx, 0); err != nil {
		t.Fatalf("DisableMosfet: %v", err)
	}
	if m.DisableCount[0] != 1 {
		t.Errorf("DisableCount = %d, want 1", m.DisableCount[0])
	}
}

func TestBoundedFastOpSucceeds(t *testing.T) {
	m := NewMock(1)
	b := NewBounded(m)
	if err := b.EnableLayer2(context.Background(), 0); err != nil {
		t.Fatalf("EnableLayer2 through Bounded: %v", err)
	}
	if !m.Layer2Enabled[0] {
		t.Errorf("wrapped EnableLayer2 did not reach the underlying mock")
	}
}

type slowHardware struct {
	*Mock
	delay time.Duration
}

func (s slowHardware) AttemptReenableMosfet(ctx context.Context, panel int) error {
	select {
	case <-time.After(s.delay):
		return s.Mock.AttemptReenableMosfet(ctx, panel)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestBoundedOpTimesOut(t *testing.T) {
	slow := slowHardware{Mock: NewMock(1), delay: 50 * time.Millisecond}
	b := NewBounded(slow)
	err := b.AttemptReenableMosfet(context.Background(), 0)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("AttemptReenableMosfet error = %v, want ErrTimeout", err)
	}
}
