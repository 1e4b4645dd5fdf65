package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/san-kum/tiltball/internal/physics"
	"github.com/san-kum/tiltball/internal/sensor"
)

const eventBuffer = 256

// Simulator owns one body. Accelerate may be called from any goroutine;
// it is serialized with Step.
type Simulator struct {
	mu        sync.Mutex
	cfg       Config
	body      physics.Body
	vp        physics.Viewport
	frame     int
	pending   physics.Sample
	dropped   int
	metrics   []Metric
	observers []Observer
}

func New(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:       cfg,
		vp:        cfg.Viewport,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	s.body = *physics.NewBody(cfg.Viewport, cfg.Radius)
	return s, nil
}

func (s *Simulator) AddMetric(m Metric) {
	s.mu.Lock()
	s.metrics = append(s.metrics, m)
	s.mu.Unlock()
}

func (s *Simulator) AddObserver(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Accelerate queues a sample for the next Step. Non-finite samples are
// dropped and reported false.
func (s *Simulator) Accelerate(sample physics.Sample) bool {
	if !finite(sample.X) || !finite(sample.Y) {
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	physics.Accelerate(&s.body, sample, s.cfg.Params)
	s.pending.X += sample.X
	s.pending.Y += sample.Y
	return true
}

// Apply feeds the motion part of ev, if any. It reports whether a sample
// was applied.
func (s *Simulator) Apply(ev sensor.Event) bool {
	sample, ok := ev.Motion.Sample()
	if !ok {
		return false
	}
	return s.Accelerate(sample)
}

// Resize sets the viewport used by subsequent steps. Non-positive sizes are
// rejected.
func (s *Simulator) Resize(vp physics.Viewport) error {
	if err := validateViewport(vp); err != nil {
		return err
	}
	s.mu.Lock()
	s.vp = vp
	s.mu.Unlock()
	return nil
}

func (s *Simulator) Viewport() physics.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp
}

// Step advances one frame and notifies observers after the lock is released.
func (s *Simulator) Step() Frame {
	s.mu.Lock()
	ev := physics.Update(&s.body, s.vp, s.cfg.Params)
	f := Frame{
		Index:  s.frame,
		Time:   float64(s.frame) / float64(s.cfg.FPS),
		Accel:  s.pending,
		Body:   s.body,
		Events: ev,
	}
	s.frame++
	s.pending = physics.Sample{}
	for _, m := range s.metrics {
		m.Observe(f)
	}
	observers := s.observers
	s.mu.Unlock()

	for _, o := range observers {
		o.OnFrame(f)
	}
	return f
}

// Snapshot returns a copy of the body.
func (s *Simulator) Snapshot() physics.Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body
}

func (s *Simulator) FrameIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Reset re-centers the body at rest and clears metrics.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = *physics.NewBody(s.vp, s.cfg.Radius)
	s.frame = 0
	s.pending = physics.Sample{}
	s.dropped = 0
	for _, m := range s.metrics {
		m.Reset()
	}
}

func (s *Simulator) Metrics() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Run steps rc.Frames frames, feeding src between them. A sensor.Sequencer
// is consumed one event per frame from its first frame, whatever the
// simulator has already stepped, so the same source gives the same run;
// any other source runs in its own goroutine and whatever it has delivered
// is drained before each frame. A nil src runs without input.
func (s *Simulator) Run(ctx context.Context, src sensor.Source, rc RunConfig) (*Result, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Frames: make([]Frame, 0, rc.Frames)}
	finish := func() *Result {
		result.Metrics = s.Metrics()
		s.mu.Lock()
		result.Dropped = s.dropped
		s.mu.Unlock()
		return result
	}

	var tick <-chan time.Time
	if rc.FPS > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(rc.FPS))
		defer ticker.Stop()
		tick = ticker.C
	}

	seq, lockstep := src.(sensor.Sequencer)

	var events chan sensor.Event
	srcErr := make(chan error, 1)
	if src != nil && !lockstep {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		events = make(chan sensor.Event, eventBuffer)
		go func() { srcErr <- src.Run(runCtx, events) }()
	}

	for i := 0; i < rc.Frames; i++ {
		select {
		case <-ctx.Done():
			return finish(), ctx.Err()
		default:
		}

		if lockstep {
			ev, ok := seq.At(i)
			if !ok {
				return finish(), nil
			}
			s.Apply(ev)
		} else if events != nil {
			if err := s.drain(events, srcErr); err != nil {
				return finish(), &SimError{Frame: i, Wrapped: err}
			}
		}

		result.Frames = append(result.Frames, s.Step())

		if tick != nil {
			select {
			case <-ctx.Done():
				return finish(), ctx.Err()
			case <-tick:
			}
		}
	}

	return finish(), nil
}

func (s *Simulator) drain(events <-chan sensor.Event, srcErr <-chan error) error {
	for {
		select {
		case ev := <-events:
			s.Apply(ev)
		case err := <-srcErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return s.drainRest(events)
		default:
			return nil
		}
	}
}

func (s *Simulator) drainRest(events <-chan sensor.Event) error {
	for {
		select {
		case ev := <-events:
			s.Apply(ev)
		default:
			return nil
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
