package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/tiltball/internal/metrics"
	"github.com/san-kum/tiltball/internal/sensor"
	"github.com/san-kum/tiltball/internal/sim"
)

const rampScript = `
name: tip
description: ramp right then hold left
steps:
  - frames: 4
    ax: 2
    ramp: true
  - frames: 2
    ax: -1
    ay: 0.5
    heading: 90
`

func sample(t *testing.T, s *Script, frame int) (float64, float64) {
	t.Helper()
	ev, ok := s.At(frame)
	if !ok {
		t.Fatalf("expected event at frame %d", frame)
	}
	smp, ok := ev.Motion.Sample()
	if !ok {
		t.Fatalf("frame %d: expected motion sample", frame)
	}
	return smp.X, smp.Y
}

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(rampScript))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if s.Name != "tip" || len(s.Steps) != 2 || s.Len() != 6 {
		t.Fatalf("unexpected script %+v", s)
	}
	if s.Rate != sensor.DefaultRate {
		t.Errorf("expected default rate, got %d", s.Rate)
	}

	for frame, want := range []float64{0.5, 1, 1.5, 2} {
		if x, _ := sample(t, s, frame); math.Abs(x-want) > 1e-12 {
			t.Errorf("ramp frame %d: expected %f, got %f", frame, want, x)
		}
	}
	x, y := sample(t, s, 4)
	if x != -1 || y != 0.5 {
		t.Errorf("hold: got (%f, %f)", x, y)
	}
	ev, _ := s.At(5)
	if h, _, ok := ev.Orientation.Heading(); !ok || h != 90 {
		t.Errorf("expected heading 90, got %f %v", h, ok)
	}
	if _, ok := s.At(6); ok {
		t.Error("expected script to end after 6 frames")
	}
}

func TestScriptLoops(t *testing.T) {
	s, err := ParseScript([]byte(rampScript))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	s.Loop = true
	a, _ := sample(t, s, 1)
	b, _ := sample(t, s, 7)
	if a != b {
		t.Errorf("expected frame 7 to repeat frame 1: %f != %f", b, a)
	}
}

func TestParseScriptInvalid(t *testing.T) {
	if _, err := ParseScript([]byte("name: empty\n")); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("expected ErrEmptyScript, got %v", err)
	}
	if _, err := ParseScript([]byte("steps:\n  - frames: 0\n")); err == nil {
		t.Error("expected error for zero-frame step")
	}
	if _, err := ParseScript([]byte("steps: [")); err == nil {
		t.Error("expected yaml error")
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tip.yaml")
	if err := os.WriteFile(path, []byte(rampScript), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Len() != 6 {
		t.Errorf("expected 6 frames, got %d", s.Len())
	}
}

func TestScriptDrivesSimulator(t *testing.T) {
	s, err := ParseScript([]byte("steps:\n  - frames: 30\n    ax: 4\n"))
	if err != nil {
		t.Fatal(err)
	}
	simulator, err := sim.New(sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	start := simulator.Snapshot().Position.X()

	res, err := simulator.Run(context.Background(), s, sim.RunConfig{Frames: 100})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Frames) != 30 {
		t.Errorf("expected run to stop with the script at 30 frames, got %d", len(res.Frames))
	}
	if simulator.Snapshot().Position.X() <= start {
		t.Error("expected body to move right")
	}
}

func TestSweepValues(t *testing.T) {
	sw := &Sweep{Param: "gain", Min: 0, Max: 1, Steps: 5, Frames: 1}
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	got := sw.Values()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("value %d: expected %f, got %f", i, want[i], got[i])
		}
	}
	one := &Sweep{Param: "gain", Min: 0.3, Max: 2, Steps: 1}
	if v := one.Values(); len(v) != 1 || v[0] != 0.3 {
		t.Errorf("single step: got %v", v)
	}
}

func TestSweepValidate(t *testing.T) {
	tests := []struct {
		name string
		sw   Sweep
		err  error
	}{
		{"unknown param", Sweep{Param: "mass", Steps: 1, Frames: 1}, ErrUnknownParam},
		{"no steps", Sweep{Param: "gain", Frames: 1}, sim.ErrInvalidConfig},
		{"no frames", Sweep{Param: "gain", Steps: 1}, sim.ErrInvalidConfig},
		{"reversed", Sweep{Param: "gain", Min: 1, Max: 0, Steps: 2, Frames: 1}, sim.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sw.Validate(); !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestRunSweep(t *testing.T) {
	sw := &Sweep{
		Param:  "gain",
		Min:    0,
		Max:    1,
		Steps:  3,
		Frames: 120,
		Source: func() (sensor.Source, error) {
			return ParseScript([]byte("steps:\n  - frames: 120\n    ax: 4\n    ay: 3\n"))
		},
		Metrics: metrics.Default,
	}
	results, err := RunSweep(context.Background(), sw, sim.DefaultConfig())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Metrics["distance"] != 0 {
		t.Errorf("zero gain should not move, got %f", results[0].Metrics["distance"])
	}
	if results[2].Metrics["distance"] <= results[1].Metrics["distance"] {
		t.Errorf("expected more travel with more gain: %f <= %f",
			results[2].Metrics["distance"], results[1].Metrics["distance"])
	}
	if got := Best(results, "distance", false); got != 2 {
		t.Errorf("expected best index 2, got %d", got)
	}
	if got := Best(results, "distance", true); got != 0 {
		t.Errorf("expected min index 0, got %d", got)
	}
	if got := Best(results, "missing", false); got != -1 {
		t.Errorf("expected -1 for missing metric, got %d", got)
	}
}

func TestRunSweepInvalidValue(t *testing.T) {
	sw := &Sweep{Param: "damping", Min: 0.5, Max: 1.5, Steps: 2, Frames: 10}
	results, err := RunSweep(context.Background(), sw, sim.DefaultConfig())
	if !errors.Is(err, sim.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected the valid run to be kept, got %d", len(results))
	}
}
