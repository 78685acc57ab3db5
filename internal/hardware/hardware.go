// Package hardware defines the abstract peripheral interface the
// protection FSM drives: Layer-2 comparator arm/disarm, MOSFET sense and
// force, and the monotonic tick source. Production code binds this to
// vendor peripheral APIs; tests bind it to a scripted mock.
//
// Grounded on the teacher's internal/executor.Executor: a small
// interface around a side-effecting operation with a bounded,
// cancellation-aware timeout (there: graceful process shutdown with a
// SIGINT-then-SIGKILL escalation; here: a single bounded attempt of
// enable_layer2 or attempt_reenable_mosfet that returns ErrTimeout when
// its budget elapses, with no retry).
package hardware

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when a bounded hardware operation does not
// complete within its budget.
var ErrTimeout = errors.New("hardware: operation timed out")

// EnableLayer2Budget bounds enable_layer2 (spec.md §5: <= 1ms).
const EnableLayer2Budget = 1 * time.Millisecond

// ReenableMosfetBudget bounds attempt_reenable_mosfet (spec.md §5: <= 10ms).
const ReenableMosfetBudget = 10 * time.Millisecond

// Hardware is the peripheral abstraction consumed by the protection FSM
// and the panel runtime (spec.md §6).
type Hardware interface {
	ReadVoltage(ctx context.Context, panel int) (float32, error)
	ReadCurrent(ctx context.Context, panel int) (float32, error)
	EnableLayer2(ctx context.Context, panel int) error
	DisableLayer2(ctx context.Context, panel int) error
	CheckMosfetStatus(ctx context.Context, panel int) (bool, error)
	AttemptReenableMosfet(ctx context.Context, panel int) error
	DisableMosfet(ctx context.Context, panel int) error
	NowMS() uint32
}

// boundedOp runs fn to completion or until budget elapses, whichever
// comes first, honoring ctx cancellation the way executor.Run escalates
// from a graceful signal to a forced one on timeout.
func boundedOp(ctx context.Context, budget time.Duration, fn func(ctx context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(opCtx) }()

	select {
	case err := <-done:
		return err
	case <-opCtx.Done():
		return ErrTimeout
	}
}

// Bounded wraps a Hardware, enforcing EnableLayer2Budget and
// ReenableMosfetBudget on the two operations spec.md §5 calls out as
// timing-critical. A slow or wedged peripheral driver surfaces as
// ErrTimeout rather than stalling the panel's tick indefinitely.
type Bounded struct {
	Hardware
}

// NewBounded wraps hw with the spec's §5 timing budgets.
func NewBounded(hw Hardware) Bounded {
	return Bounded{Hardware: hw}
}

// EnableLayer2 bounds the wrapped call to EnableLayer2Budget.
func (b Bounded) EnableLayer2(ctx context.Context, panel int) error {
	return boundedOp(ctx, EnableLayer2Budget, func(opCtx context.Context) error {
		return b.Hardware.EnableLayer2(opCtx, panel)
	})
}

// AttemptReenableMosfet bounds the wrapped call to ReenableMosfetBudget.
func (b Bounded) AttemptReenableMosfet(ctx context.Context, panel int) error {
	return boundedOp(ctx, ReenableMosfetBudget, func(opCtx context.Context) error {
		return b.Hardware.AttemptReenableMosfet(opCtx, panel)
	})
}
