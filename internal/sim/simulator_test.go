package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/tiltball/internal/physics"
	"github.com/san-kum/tiltball/internal/sensor"
)

type countMetric struct {
	frames  int
	bounces int
}

func (c *countMetric) Name() string { return "count" }
func (c *countMetric) Observe(f Frame) {
	c.frames++
	if f.Events.Bounced != 0 {
		c.bounces++
	}
}
func (c *countMetric) Value() float64 { return float64(c.frames) }
func (c *countMetric) Reset()         { c.frames, c.bounces = 0, 0 }

func newTestSim(t *testing.T) *Simulator {
	t.Helper()
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	return s
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		want error
	}{
		{"zero radius", func(c *Config) { c.Radius = 0 }, ErrInvalidConfig},
		{"nan radius", func(c *Config) { c.Radius = math.NaN() }, ErrInvalidConfig},
		{"zero width", func(c *Config) { c.Viewport.Width = 0 }, ErrInvalidViewport},
		{"negative height", func(c *Config) { c.Viewport.Height = -1 }, ErrInvalidViewport},
		{"zero fps", func(c *Config) { c.FPS = 0 }, ErrInvalidConfig},
		{"damping above one", func(c *Config) { c.Params.Damping = 1.5 }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			_, err := New(cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestStepRecordsAppliedAcceleration(t *testing.T) {
	s := newTestSim(t)

	s.Accelerate(physics.Sample{X: 1, Y: 2})
	s.Accelerate(physics.Sample{X: 1, Y: 0})
	f := s.Step()

	if f.Accel != (physics.Sample{X: 2, Y: 2}) {
		t.Errorf("expected accel (2, 2), got %+v", f.Accel)
	}
	if f.Index != 0 || f.Time != 0 {
		t.Errorf("expected first frame, got index %d time %f", f.Index, f.Time)
	}

	f = s.Step()
	if f.Accel != (physics.Sample{}) {
		t.Errorf("expected pending accel cleared, got %+v", f.Accel)
	}
	if math.Abs(f.Time-1.0/DefaultFPS) > 1e-12 {
		t.Errorf("expected time %f, got %f", 1.0/DefaultFPS, f.Time)
	}
}

func TestAccelerateDropsNonFinite(t *testing.T) {
	s := newTestSim(t)

	if s.Accelerate(physics.Sample{X: math.NaN()}) {
		t.Error("expected NaN sample rejected")
	}
	if s.Accelerate(physics.Sample{Y: math.Inf(1)}) {
		t.Error("expected Inf sample rejected")
	}
	if b := s.Snapshot(); b.Velocity != (mgl64.Vec2{}) {
		t.Errorf("expected untouched velocity, got %v", b.Velocity)
	}

	res, err := s.Run(context.Background(), nil, RunConfig{Frames: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", res.Dropped)
	}
}

func TestApplyIgnoresOrientationOnly(t *testing.T) {
	s := newTestSim(t)

	if s.Apply(sensor.Event{Orientation: &sensor.Orientation{CompassHeading: sensor.Float(10)}}) {
		t.Error("orientation-only event should not accelerate")
	}
}

func TestResizeRejectsEmptyViewport(t *testing.T) {
	s := newTestSim(t)

	if err := s.Resize(physics.Viewport{Width: 0, Height: 10}); !errors.Is(err, ErrInvalidViewport) {
		t.Errorf("expected ErrInvalidViewport, got %v", err)
	}
	if err := s.Resize(physics.Viewport{Width: 100, Height: 100}); err != nil {
		t.Fatalf("resize failed: %v", err)
	}
	s.Step()
	b := s.Snapshot()
	if b.Position.X() > 100-b.Radius || b.Position.Y() > 100-b.Radius {
		t.Errorf("body not contained after resize: %v", b.Position)
	}
}

func TestRunLockstepIsDeterministic(t *testing.T) {
	run := func() *Result {
		s := newTestSim(t)
		res, err := s.Run(context.Background(), sensor.NewSynthetic(3), RunConfig{Frames: 500})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if len(a.Frames) != 500 || len(b.Frames) != 500 {
		t.Fatalf("expected 500 frames, got %d and %d", len(a.Frames), len(b.Frames))
	}
	for i := range a.Frames {
		if a.Frames[i].Body != b.Frames[i].Body {
			t.Fatalf("frame %d differs: %+v vs %+v", i, a.Frames[i].Body, b.Frames[i].Body)
		}
	}
}

func TestRunStopsWhenSequencerExhausted(t *testing.T) {
	s := newTestSim(t)
	src := sensor.NewSynthetic(1)
	src.Limit = 10

	res, err := s.Run(context.Background(), src, RunConfig{Frames: 100})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Frames) != 10 {
		t.Errorf("expected 10 frames, got %d", len(res.Frames))
	}
}

func TestRunReplaysSequencerFromStartOnReuse(t *testing.T) {
	s := newTestSim(t)
	for i := 0; i < 200; i++ {
		s.Accelerate(physics.Sample{X: 1, Y: -1})
		s.Step()
	}

	src := sensor.NewSynthetic(2)
	src.Limit = 50

	first, err := s.Run(context.Background(), src, RunConfig{Frames: 100})
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := s.Run(context.Background(), src, RunConfig{Frames: 100})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(first.Frames) != 50 || len(second.Frames) != 50 {
		t.Fatalf("expected 50 frames per run, got %d and %d", len(first.Frames), len(second.Frames))
	}
	for i := range first.Frames {
		if first.Frames[i].Accel != second.Frames[i].Accel {
			t.Fatalf("frame %d: input %+v != %+v", i, first.Frames[i].Accel, second.Frames[i].Accel)
		}
	}
	if first.Frames[0].Index != 200 || second.Frames[0].Index != 250 {
		t.Errorf("expected frame indexes to keep counting, got %d and %d",
			first.Frames[0].Index, second.Frames[0].Index)
	}
}

func TestRunDrainsChannelSource(t *testing.T) {
	s := newTestSim(t)
	in := make(chan sensor.Event, 4)
	for i := 0; i < 4; i++ {
		in <- sensor.Event{Motion: &sensor.Motion{
			AccelerationIncludingGravity: &sensor.Vec3{X: sensor.Float(1), Y: sensor.Float(0)},
		}}
	}
	close(in)

	res, err := s.Run(context.Background(), sensor.Chan(in), RunConfig{Frames: 50, FPS: 500})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	total := 0.0
	for _, f := range res.Frames {
		total += f.Accel.X
	}
	if total != 4 {
		t.Errorf("expected 4 units of accel applied, got %f", total)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	s := newTestSim(t)

	for _, rc := range []RunConfig{{Frames: 0}, {Frames: -1}, {Frames: 10, FPS: -1}} {
		if _, err := s.Run(context.Background(), nil, rc); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%+v: expected ErrInvalidConfig, got %v", rc, err)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	s := newTestSim(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res, err := s.Run(ctx, nil, RunConfig{Frames: 100000, FPS: 100})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if res == nil || len(res.Frames) == 0 || len(res.Frames) >= 100000 {
		t.Errorf("expected a partial result")
	}
}

type failingSource struct{}

var errSensorGone = errors.New("sensor gone")

func (failingSource) Run(ctx context.Context, out chan<- sensor.Event) error {
	return errSensorGone
}

func TestRunSourceError(t *testing.T) {
	s := newTestSim(t)

	_, err := s.Run(context.Background(), failingSource{}, RunConfig{Frames: 100, FPS: 200})
	if !errors.Is(err, errSensorGone) {
		t.Fatalf("expected source error, got %v", err)
	}
	var se *SimError
	if !errors.As(err, &se) {
		t.Errorf("expected *SimError, got %T", err)
	}
}

func TestMetricsAndObservers(t *testing.T) {
	s := newTestSim(t)
	m := &countMetric{}
	s.AddMetric(m)

	var seen []int
	s.AddObserver(ObserverFunc(func(f Frame) { seen = append(seen, f.Index) }))

	res, err := s.Run(context.Background(), nil, RunConfig{Frames: 5})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Metrics["count"] != 5 {
		t.Errorf("expected count 5, got %f", res.Metrics["count"])
	}
	if len(seen) != 5 || seen[4] != 4 {
		t.Errorf("unexpected observed frames %v", seen)
	}

	s.Reset()
	if m.frames != 0 || s.FrameIndex() != 0 {
		t.Error("reset did not clear state")
	}
}

func TestConcurrentAccelerate(t *testing.T) {
	s := newTestSim(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Accelerate(physics.Sample{X: 0.01})
			}
		}()
	}
	wg.Wait()

	f := s.Step()
	if math.Abs(f.Accel.X-8) > 1e-9 {
		t.Errorf("expected accumulated accel 8, got %f", f.Accel.X)
	}
}

func TestEnsemble(t *testing.T) {
	ens := NewEnsemble(DefaultConfig(), 4, 100, func(seed int64) sensor.Source {
		return sensor.NewSynthetic(seed)
	}).WithMetrics(func() []Metric { return []Metric{&countMetric{}} })

	results, err := ens.Run(context.Background(), RunConfig{Frames: 200})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if len(r.Frames) != 200 || r.Metrics["count"] != 200 {
			t.Errorf("run %d: frames=%d count=%f", i, len(r.Frames), r.Metrics["count"])
		}
	}
	if results[0].Frames[199].Body == results[1].Frames[199].Body {
		t.Error("different seeds produced identical runs")
	}
}

func TestSimError(t *testing.T) {
	err := &SimError{Frame: 12, Wrapped: errSensorGone}
	if err.Error() != "frame 12: sensor gone" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
