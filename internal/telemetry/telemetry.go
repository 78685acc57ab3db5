// Package telemetry implements the external telemetry sink interface
// (spec.md §6) and the console implementation, grounded on the teacher's
// internal/output.Progress: a plain, dependency-free, elapsed-time
// prefixed line writer, with no structured logging library.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Sink is the telemetry surface the protection FSM and panel runtime
// write to. Implementations may route to UART, SD, or a downlink
// buffer; ordering per panel must be preserved (spec.md §6).
type Sink interface {
	LogEvent(format string, args ...interface{})
	SendTelemetry(panel int, voltage, current, power float32)
	Alert(panel int, nowMS uint32)
	Success(panel int, nowMS uint32)
	Recovering(panel int, nowMS uint32)
}

// Console is the default Sink: elapsed-time prefixed lines to an
// io.Writer, matching Progress.Log's "[%s] %s\n" format.
type Console struct {
	w       io.Writer
	start   time.Time
	enabled bool
}

// NewConsole creates a Console sink writing to w. If w is nil, it writes
// to os.Stderr.
func NewConsole(w io.Writer, enabled bool) *Console {
	if w == nil {
		w = os.Stderr
	}
	return &Console{w: w, start: time.Now(), enabled: enabled}
}

func (c *Console) line(msg string) {
	if !c.enabled {
		return
	}
	fmt.Fprintf(c.w, "[%s] %s\n", time.Since(c.start).Round(time.Millisecond), msg)
}

// LogEvent writes a free-form line.
func (c *Console) LogEvent(format string, args ...interface{}) {
	c.line(fmt.Sprintf(format, args...))
}

// SendTelemetry writes a per-tick measurement line for one panel.
func (c *Console) SendTelemetry(panel int, voltage, current, power float32) {
	c.line(fmt.Sprintf("panel %d: V=%.3f I=%.3f P=%.3f", panel, voltage, current, power))
}

// Alert writes an ALERT line on trip.
func (c *Console) Alert(panel int, nowMS uint32) {
	c.line(fmt.Sprintf("ALERT panel %d tripped at t=%dms", panel, nowMS))
}

// Success writes a SUCCESS line on recovery completion.
func (c *Console) Success(panel int, nowMS uint32) {
	c.line(fmt.Sprintf("SUCCESS panel %d recovered at t=%dms", panel, nowMS))
}

// Recovering writes a periodic RECOVERY progress line.
func (c *Console) Recovering(panel int, nowMS uint32) {
	c.line(fmt.Sprintf("RECOVERY panel %d still in recovery at t=%dms", panel, nowMS))
}

// PanelStatus is a minimal per-panel rollup used to build the fleet
// narrative summary, decoupled from internal/protection to avoid an
// import cycle (runtime assembles these from FSM state).
type PanelStatus struct {
	Panel       int
	State       string
	SinceMS     uint32
	TripCount   uint64
	EnableCount uint64
}

// NarrativeSummary builds a human-readable fleet status paragraph,
// adapted from the teacher's internal/output.GenerateAIPrompt free-text
// situational summary, generalized from a single-host performance
// report to a fleet of panel protection states.
func NarrativeSummary(fleet []PanelStatus, nowMS uint32) string {
	counts := map[string]int{}
	for _, p := range fleet {
		counts[p.State]++
	}

	out := fmt.Sprintf("%d panels:", len(fleet))
	for _, state := range []string{"ENABLED", "TRIPPED", "RECOVERY", "DISABLED"} {
		if n, ok := counts[state]; ok && n > 0 {
			out += fmt.Sprintf(" %d %s,", n, state)
		}
	}
	out = trimTrailingComma(out)

	for _, p := range fleet {
		if p.State == "TRIPPED" {
			agoMS := nowMS - p.SinceMS
			out += fmt.Sprintf(" Panel %d tripped %s ago.", p.Panel, time.Duration(agoMS)*time.Millisecond)
		}
	}
	return out
}

func trimTrailingComma(s string) string {
	if len(s) > 0 && s[len(s)-1] == ',' {
		return s[:len(s)-1]
	}
	return s
}
