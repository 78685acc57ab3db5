// eps-fdir — onboard predictive fault detection, isolation and recovery
// core for a satellite electrical power system, simulated and exposed
// over the command line and over MCP for ground-side tooling.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orbitwatch/eps-fdir/internal/config"
	"github.com/orbitwatch/eps-fdir/internal/mcp"
	"github.com/orbitwatch/eps-fdir/internal/persistence"
	"github.com/orbitwatch/eps-fdir/internal/snapshotdiff"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "eps-fdir",
		Short: "Predictive FDIR core for a satellite electrical power system",
		Long: `eps-fdir — single Go binary modeling the onboard predictive
fault detection, isolation and recovery core for a satellite EPS
monitoring N solar panels.

Each panel is processed once per tick: read sensors, extract lag
features, predict next-step power/voltage, bias-correct, evaluate four
anomaly conditions, and drive a four-state protection state machine
(DISABLED/ENABLED/TRIPPED/RECOVERY) over an abstract hardware interface.`,
		Version: version,
	}

	rootCmd.AddCommand(newRunCmd(), newSnapshotCmd(), newMCPCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		ticks      int
		scenario   string
		scenarioPanel int
		scenarioStart int
		scenarioDuration int
		scenarioSeverity float64
		quiet      bool
		snapshotOut string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate N ticks over synthetic or scenario-injected panel data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			sim := newSimulation(cfg, !quiet)
			if scenario != "" {
				sc, err := parseScenario(scenario, scenarioPanel, scenarioStart, scenarioDuration, scenarioSeverity)
				if err != nil {
					return err
				}
				sim.scenario = sc
			}

			ctx := context.Background()
			for i := 0; i < ticks; i++ {
				sim.Tick(ctx)
			}

			if snapshotOut != "" {
				return persistence.Save(snapshotOut, sim.sys.Snapshot())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file overriding defaults")
	cmd.Flags().IntVar(&ticks, "ticks", 200, "Number of 5s ticks to simulate")
	cmd.Flags().StringVar(&scenario, "scenario", "", "Fault scenario: shade, open_circuit, short_circuit, sensor_noise")
	cmd.Flags().IntVar(&scenarioPanel, "scenario-panel", 0, "Panel id the scenario targets")
	cmd.Flags().IntVar(&scenarioStart, "scenario-start", 20, "Tick at which the scenario begins")
	cmd.Flags().IntVar(&scenarioDuration, "scenario-duration", 10, "Scenario duration in ticks (0 = persistent)")
	cmd.Flags().Float64Var(&scenarioSeverity, "scenario-severity", 0.8, "Scenario severity in [0,1]")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress telemetry output")
	cmd.Flags().StringVarP(&snapshotOut, "snapshot-out", "o", "", "Write a fleet snapshot to this path after the run")

	return cmd
}

func newSnapshotCmd() *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and compare persisted fleet snapshots",
	}

	var diffOutput string
	diffCmd := &cobra.Command{
		Use:   "diff <baseline.json> <current.json>",
		Short: "Compare two eps-fdir fleet snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := persistence.Load(args[0])
			if err != nil {
				return err
			}
			current, err := persistence.Load(args[1])
			if err != nil {
				return err
			}
			report := snapshotdiff.Compare(baseline, current)
			if diffOutput == "-" || diffOutput == "" {
				fmt.Print(snapshotdiff.Format(report))
				return nil
			}
			return writeJSON(diffOutput, report)
		},
	}
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "-", "Output path for the diff (- for stdout text)")

	snapshotCmd.AddCommand(diffCmd)
	return snapshotCmd
}

func newMCPCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the ground-command / telemetry MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			sim := newSimulation(cfg, false)
			server := mcp.NewServer(sim.sys, version)
			return server.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file overriding defaults")
	return cmd
}
