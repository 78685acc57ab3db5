package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/orbitwatch/eps-fdir/internal/config"
	"github.com/orbitwatch/eps-fdir/internal/faultinjector"
	"github.com/orbitwatch/eps-fdir/internal/hardware"
	"github.com/orbitwatch/eps-fdir/internal/predictor"
	"github.com/orbitwatch/eps-fdir/internal/runtime"
	"github.com/orbitwatch/eps-fdir/internal/telemetry"
)

// catastrophicMultiplier models the always-on Layer-1 comparator: any
// current beyond this multiple of nominal is a hardware-detected
// overcurrent event, independent of the Layer-2 AI-gated FSM.
const catastrophicMultiplier = 2.5

// simHardware is a deterministic, physically-plausible stand-in for the
// ADC/GPIO hardware layer, used by the `run` and `mcp` commands in the
// absence of real flight hardware. It generates a clean signal at each
// panel's configured nominal operating point and applies the scenario
// fault transform, if any, via internal/faultinjector.
type simHardware struct {
	cfg      config.Config
	rng      *faultinjector.RNG
	scenario *faultinjector.Spec
	step     uint32
	nowMS    uint32

	cachedP, cachedV, cachedI []float32
	haveCache                 []bool
	mosfetOpen                []bool
}

func newSimHardware(cfg config.Config) *simHardware {
	n := cfg.NPanels
	return &simHardware{
		cfg:        cfg,
		rng:        faultinjector.NewRNG(0xC0FFEE),
		cachedP:    make([]float32, n),
		cachedV:    make([]float32, n),
		cachedI:    make([]float32, n),
		haveCache:  make([]bool, n),
		mosfetOpen: make([]bool, n),
	}
}

func (h *simHardware) sample(panel int) {
	if h.haveCache[panel] {
		return
	}
	pc := h.cfg.Panels[panel]
	v := float32(pc.VNominal)
	i := float32(pc.PNominal / pc.VNominal)
	p := v * i

	if h.scenario != nil && h.scenario.Panel == panel {
		faultinjector.Apply(h.scenario, h.step, h.rng, &p, &v, &i)
	}

	h.cachedP[panel], h.cachedV[panel], h.cachedI[panel] = p, v, i
	h.haveCache[panel] = true

	nominalCurrent := float32(pc.PNominal / pc.VNominal)
	if i > nominalCurrent*catastrophicMultiplier {
		h.mosfetOpen[panel] = true
	}
}

func (h *simHardware) ReadVoltage(ctx context.Context, panel int) (float32, error) {
	h.sample(panel)
	return h.cachedV[panel], nil
}

func (h *simHardware) ReadCurrent(ctx context.Context, panel int) (float32, error) {
	h.sample(panel)
	return h.cachedI[panel], nil
}

func (h *simHardware) EnableLayer2(ctx context.Context, panel int) error  { return nil }
func (h *simHardware) DisableLayer2(ctx context.Context, panel int) error { return nil }

func (h *simHardware) CheckMosfetStatus(ctx context.Context, panel int) (bool, error) {
	return h.mosfetOpen[panel], nil
}

func (h *simHardware) AttemptReenableMosfet(ctx context.Context, panel int) error {
	h.mosfetOpen[panel] = false
	return nil
}

func (h *simHardware) DisableMosfet(ctx context.Context, panel int) error {
	h.mosfetOpen[panel] = true
	return nil
}

func (h *simHardware) NowMS() uint32 {
	return h.nowMS
}

func (h *simHardware) advance(tickIntervalMS uint32) {
	for i := range h.haveCache {
		h.haveCache[i] = false
	}
	h.step++
	h.nowMS += tickIntervalMS
}

// simulation wires a runtime.System to a simHardware and a console
// telemetry sink. The `run` command drives it tick by tick; the `mcp`
// command serves its state without advancing it.
type simulation struct {
	cfg      config.Config
	hw       *simHardware
	sys      *runtime.System
	scenario *faultinjector.Spec
}

func newSimulation(cfg config.Config, verbose bool) *simulation {
	hw := newSimHardware(cfg)
	sink := telemetry.NewConsole(os.Stderr, verbose)
	sys := runtime.New(cfg, hardware.NewBounded(hw), predictor.Linear{}, sink)
	return &simulation{cfg: cfg, hw: hw, sys: sys}
}

func (s *simulation) Tick(ctx context.Context) []runtime.Result {
	s.hw.scenario = s.scenario
	results := s.sys.Tick(ctx)
	s.hw.advance(s.cfg.TickIntervalMS)
	return results
}

func parseScenario(name string, panel, start, duration int, severity float64) (*faultinjector.Spec, error) {
	var t faultinjector.Scenario
	switch name {
	case "shade":
		t = faultinjector.Shade
	case "open_circuit":
		t = faultinjector.OpenCircuit
	case "short_circuit":
		t = faultinjector.ShortCircuit
	case "sensor_noise":
		t = faultinjector.SensorNoise
	default:
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return &faultinjector.Spec{
		Panel:     panel,
		Type:      t,
		StartStep: uint32(start),
		Duration:  uint32(duration),
		Severity:  float32(severity),
	}, nil
}

// writeJSON marshals v as indented JSON and writes it to path.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
