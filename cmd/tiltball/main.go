package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	// input
	source     string
	replayFrom string
	scriptFrom string
	seed       int64
	// simulation
	frames    int
	frameRate int
	radius    float64
	gain      float64
	damping   float64
	spinDecay float64
	marginX   float64
	marginY   float64
	width     int
	height    int
	// serve
	addr string
	// ensemble
	numRuns int
	// sweep
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepMetric string
	// export-svg
	outFile string
)

// main registers commands and flags and runs the root command. With no
// subcommand it opens the preset picker.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tiltball",
		Short:        "a ball that rolls when you tilt the screen",
		SilenceUsage: true,
		RunE:         runPicker,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	simFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&source, "source", "synthetic", "input source: synthetic, replay, script or none")
		cmd.Flags().StringVar(&replayFrom, "replay", "", "run id or csv file to replay")
		cmd.Flags().StringVar(&scriptFrom, "script", "", "yaml tilt script")
		cmd.Flags().Int64Var(&seed, "seed", 1, "synthetic sensor seed")
		cmd.Flags().IntVar(&frameRate, "fps", 60, "frame rate")
		cmd.Flags().Float64Var(&radius, "radius", 15, "ball radius")
		cmd.Flags().Float64Var(&gain, "gain", 0.5, "acceleration gain")
		cmd.Flags().Float64Var(&damping, "damping", 0.9, "velocity damping per frame")
		cmd.Flags().Float64Var(&spinDecay, "spin-decay", 0.99, "spin decay per frame")
		cmd.Flags().Float64Var(&marginX, "margin-x", 0, "left wall margin")
		cmd.Flags().Float64Var(&marginY, "margin-y", 0, "top wall margin")
		cmd.Flags().IntVar(&width, "width", 400, "viewport width")
		cmd.Flags().IntVar(&height, "height", 700, "viewport height")
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless session and save it",
		Args:  cobra.NoArgs,
		RunE:  runSession,
	}
	simFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", 600, "number of frames")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	simFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the simulation over http and websocket",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	simFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run many seeds in parallel and compare metrics",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	simFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&frames, "frames", 600, "number of frames")
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of runs")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one session per value of a physics parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	simFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&frames, "frames", 600, "frames per session")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "gain", "parameter to vary: gain, damping, spin_decay or radius")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "bounces", "metric used to pick the best value")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the ball's path as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, ensembleCmd, sweepCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd)
	return rootCmd
}
