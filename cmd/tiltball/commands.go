package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/tiltball/internal/analysis"
	"github.com/san-kum/tiltball/internal/automation"
	"github.com/san-kum/tiltball/internal/config"
	"github.com/san-kum/tiltball/internal/export"
	"github.com/san-kum/tiltball/internal/metrics"
	"github.com/san-kum/tiltball/internal/sensor"
	"github.com/san-kum/tiltball/internal/server"
	"github.com/san-kum/tiltball/internal/sim"
	"github.com/san-kum/tiltball/internal/storage"
	"github.com/san-kum/tiltball/internal/viz"
)

// resolveConfig layers defaults, preset, config file, environment and
// explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	f := cmd.Flags()
	if f.Changed("data") {
		cfg.DataDir = dataDir
	}
	if f.Changed("source") {
		cfg.Source = source
	}
	if f.Changed("replay") {
		cfg.Replay = replayFrom
		if !f.Changed("source") {
			cfg.Source = config.SourceReplay
		}
	}
	if f.Changed("script") {
		cfg.Script = scriptFrom
		if !f.Changed("source") {
			cfg.Source = config.SourceScript
		}
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("frames") {
		cfg.Frames = frames
	}
	if f.Changed("fps") {
		cfg.FPS = frameRate
	}
	if f.Changed("radius") {
		cfg.Radius = radius
	}
	if f.Changed("gain") {
		cfg.Physics.Gain = gain
	}
	if f.Changed("damping") {
		cfg.Physics.Damping = damping
	}
	if f.Changed("spin-decay") {
		cfg.Physics.SpinDecay = spinDecay
	}
	if f.Changed("margin-x") {
		cfg.Physics.MarginX = marginX
	}
	if f.Changed("margin-y") {
		cfg.Physics.MarginY = marginY
	}
	if f.Changed("width") {
		cfg.Viewport.Width = width
	}
	if f.Changed("height") {
		cfg.Viewport.Height = height
	}
	if f.Changed("addr") {
		cfg.Server.Addr = addr
	}
	return cfg, nil
}

// newSource builds the configured input. A replay names either a csv file or
// a saved run.
func newSource(cfg *config.Config) (sensor.Source, error) {
	switch cfg.Source {
	case config.SourceSynthetic:
		s := sensor.NewSynthetic(cfg.Seed)
		s.Rate = cfg.FPS
		return s, nil
	case config.SourceReplay:
		path := cfg.Replay
		if _, err := os.Stat(path); err != nil {
			path = storage.New(cfg.DataDir).Path(cfg.Replay)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open replay: %w", err)
		}
		defer f.Close()
		r, err := sensor.NewReplay(f)
		if err != nil {
			return nil, err
		}
		r.Rate = cfg.FPS
		return r, nil
	case config.SourceScript:
		sc, err := automation.LoadScript(cfg.Script)
		if err != nil {
			return nil, err
		}
		if sc.Rate == sensor.DefaultRate {
			sc.Rate = cfg.FPS
		}
		return sc, nil
	case config.SourceNone:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownSource, cfg.Source)
}

// setup resolves and validates the configuration and builds a simulator
// with the default metrics.
func setup(cmd *cobra.Command) (*config.Config, *sim.Simulator, sensor.Source, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	s, err := sim.New(cfg.Sim())
	if err != nil {
		return nil, nil, nil, err
	}
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}
	src, err := newSource(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, s, src, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, s, src, err := setup(cmd)
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	fmt.Printf("running %s session...\n", cfg.Source)
	start := time.Now()

	result, err := s.Run(ctx, src, sim.RunConfig{Frames: cfg.Frames})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMeta{
		Preset:   preset,
		Source:   cfg.Source,
		Seed:     cfg.Seed,
		FPS:      cfg.FPS,
		Radius:   cfg.Radius,
		Viewport: cfg.Sim().Viewport,
		Params:   cfg.Sim().Params,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", len(result.Frames))
	if result.Dropped > 0 {
		fmt.Printf("dropped samples: %d\n", result.Dropped)
	}
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, s, src, err := setup(cmd)
	if err != nil {
		return err
	}
	title := preset
	if title == "" {
		title = cfg.Source
	}
	return viz.Run(viz.NewModel(s, src, viz.Options{Title: title, FPS: cfg.FPS}))
}

func runPicker(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	choices := make([]viz.Choice, 0, len(names))
	for _, name := range names {
		p := config.GetPreset(name)
		choices = append(choices, viz.Choice{
			Name: name,
			Info: fmt.Sprintf("gain %.2f  damping %.2f  r=%.0f", p.Physics.Gain, p.Physics.Damping, p.Radius),
		})
	}

	build := func(name string) (viz.Model, error) {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return viz.Model{}, fmt.Errorf("unknown preset: %s", name)
		}
		cfg.ApplyEnv()
		s, err := sim.New(cfg.Sim())
		if err != nil {
			return viz.Model{}, err
		}
		src, err := newSource(cfg)
		if err != nil {
			return viz.Model{}, err
		}
		return viz.NewModel(s, src, viz.Options{Title: name, FPS: cfg.FPS}), nil
	}
	return viz.RunPicker(choices, build)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, s, src, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	srv := server.New(s, server.Config{Addr: cfg.Server.Addr, FPS: cfg.FPS})
	if src != nil {
		go func() {
			if err := srv.Feed(ctx, src); err != nil {
				fmt.Fprintf(os.Stderr, "source stopped: %v\n", err)
			}
		}()
	}

	fmt.Printf("serving on %s (source: %s)\n", cfg.Server.Addr, cfg.Source)
	return srv.Run(ctx)
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if numRuns <= 0 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	ens := sim.NewEnsemble(cfg.Sim(), numRuns, cfg.Seed, func(seed int64) sensor.Source {
		s := sensor.NewSynthetic(seed)
		s.Rate = cfg.FPS
		return s
	}).WithMetrics(metrics.Default)

	fmt.Printf("running %d sessions of %d frames...\n", numRuns, cfg.Frames)
	start := time.Now()
	results, err := ens.Run(ctx, sim.RunConfig{Frames: cfg.Frames})
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	names := sortedKeys(results[0].Metrics)
	return writeEnsemble(os.Stdout, cfg.Seed, names, results)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := newSource(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	sw := &automation.Sweep{
		Param:   sweepParam,
		Min:     sweepMin,
		Max:     sweepMax,
		Steps:   sweepSteps,
		Frames:  cfg.Frames,
		Source:  func() (sensor.Source, error) { return newSource(cfg) },
		Metrics: metrics.Default,
	}
	results, err := automation.RunSweep(ctx, sw, cfg.Sim())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	names := sortedKeys(results[0].Metrics)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFRAMES", strings.ToUpper(sweepParam))
	for _, n := range names {
		fmt.Fprintf(w, "\t%s", n)
	}
	fmt.Fprintln(w)
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d", r.Value, r.Frames)
		for _, n := range names {
			fmt.Fprintf(w, "\t%.3f", r.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best := automation.Best(results, sweepMetric, false); best >= 0 {
		fmt.Printf("\nbest %s: %s=%.4f (%.3f)\n", sweepMetric, sweepParam, results[best].Value, results[best].Metrics[sweepMetric])
	}
	return nil
}

func writeEnsemble(out io.Writer, seedStart int64, names []string, results []*sim.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "SEED\tFRAMES")
	for _, n := range names {
		fmt.Fprintf(w, "\t%s", n)
	}
	fmt.Fprintln(w)

	for i, r := range results {
		fmt.Fprintf(w, "%d\t%d", seedStart+int64(i), len(r.Frames))
		for _, n := range names {
			fmt.Fprintf(w, "\t%.3f", r.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tFRAMES\tFPS\tSEED\tBOUNCES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.0f\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.FPS,
			run.Seed,
			run.Metrics["bounces"],
		)
	}

	return w.Flush()
}

func loadRun(cmd *cobra.Command, runID string) (*storage.RunMeta, *storage.Track, error) {
	st, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	track, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(track.Rows) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, track, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, track, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("samples: %d\n\n", len(track.Rows))

	series := []struct {
		column, caption string
	}{
		{"x", "x position"},
		{"y", "y position"},
		{"angle", "angle (deg)"},
		{"spin", "spin (deg/frame)"},
	}
	for _, s := range series {
		data, err := track.Column(s.column)
		if err != nil {
			return err
		}
		printGraph(data, s.caption)
	}

	vx, err := track.Column("vx")
	if err != nil {
		return err
	}
	vy, err := track.Column("vy")
	if err != nil {
		return err
	}
	speed := make([]float64, len(vx))
	for i := range vx {
		speed[i] = math.Hypot(vx[i], vy[i])
	}
	printGraph(speed, "speed")
	return nil
}

func printGraph(data []float64, caption string) {
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, track, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("source: %s\n\n", meta.Source)

	x, err := track.Column("x")
	if err != nil {
		return err
	}
	if ps := analysis.PowerSpectrum(x); len(ps) > 1 {
		printGraph(ps[1:], "power spectrum (x)")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tFREQ (Hz)\tPERIOD (s)\tPOWER")
	for _, column := range []string{"x", "y", "spin"} {
		data, err := track.Column(column)
		if err != nil {
			return err
		}
		peak, err := analysis.Dominant(data, meta.FPS)
		if err != nil {
			return fmt.Errorf("%s: %w", column, err)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\n", column, peak.Frequency, peak.Period, peak.Power)
	}
	return w.Flush()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	f, err := os.Open(st.Path(args[0]))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(os.Stdout, f)
	return err
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, track, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, track)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, track, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	xs, err := track.Column("x")
	if err != nil {
		return err
	}
	ys, err := track.Column("y")
	if err != nil {
		return err
	}
	points := make([]mgl64.Vec2, len(xs))
	for i := range xs {
		points[i] = mgl64.Vec2{xs[i], ys[i]}
	}

	var w io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.TrajectoryToSVG(w, meta.Viewport, meta.Radius, points); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Printf("wrote %s\n", outFile)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRADIUS\tGAIN\tDAMPING\tSPIN DECAY\tMARGIN")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%.0f\t%.2f\t%.2f\t%.3f\t%.0f,%.0f\n",
			name, p.Radius, p.Physics.Gain, p.Physics.Damping, p.Physics.SpinDecay,
			p.Physics.MarginX, p.Physics.MarginY)
	}
	return w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
