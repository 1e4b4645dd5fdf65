package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/tiltball/internal/physics"
)

const (
	DefaultFPS    = 60
	DefaultWidth  = 400
	DefaultHeight = 700
)

var (
	ErrInvalidConfig   = errors.New("sim: invalid config")
	ErrInvalidViewport = errors.New("sim: viewport must be positive")
)

// Frame is the record of one Step: the acceleration applied since the
// previous step and the body afterwards.
type Frame struct {
	Index  int
	Time   float64
	Accel  physics.Sample
	Body   physics.Body
	Events physics.Events
}

// Columns names the values returned by Row.
var Columns = []string{"time", "ax", "ay", "x", "y", "vx", "vy", "angle", "spin"}

func (f Frame) Row() []float64 {
	b := f.Body
	return []float64{
		f.Time,
		f.Accel.X, f.Accel.Y,
		b.Position.X(), b.Position.Y(),
		b.Velocity.X(), b.Velocity.Y(),
		b.Angle, b.Spin,
	}
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

type Config struct {
	Radius   float64
	Viewport physics.Viewport
	Params   physics.Params
	// FPS is the nominal frame rate used to timestamp frames.
	FPS int
}

func DefaultConfig() Config {
	return Config{
		Radius:   physics.DefaultRadius,
		Viewport: physics.Viewport{Width: DefaultWidth, Height: DefaultHeight},
		Params:   physics.DefaultParams(),
		FPS:      DefaultFPS,
	}
}

func (c Config) Validate() error {
	if c.Radius <= 0 || math.IsNaN(c.Radius) || math.IsInf(c.Radius, 0) {
		return fmt.Errorf("%w: radius must be positive, got %f", ErrInvalidConfig, c.Radius)
	}
	if err := validateViewport(c.Viewport); err != nil {
		return err
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, c.FPS)
	}
	if c.Params.Damping < 0 || c.Params.Damping > 1 {
		return fmt.Errorf("%w: damping must be in [0, 1], got %f", ErrInvalidConfig, c.Params.Damping)
	}
	if c.Params.SpinDecay < 0 || c.Params.SpinDecay > 1 {
		return fmt.Errorf("%w: spin decay must be in [0, 1], got %f", ErrInvalidConfig, c.Params.SpinDecay)
	}
	return nil
}

func validateViewport(vp physics.Viewport) error {
	if vp.Width <= 0 || vp.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidViewport, vp.Width, vp.Height)
	}
	return nil
}

type RunConfig struct {
	Frames int
	// FPS paces the loop in real time. Zero runs as fast as possible.
	FPS int
}

func (c RunConfig) Validate() error {
	if c.Frames <= 0 {
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalidConfig, c.Frames)
	}
	if c.FPS < 0 {
		return fmt.Errorf("%w: fps must not be negative, got %d", ErrInvalidConfig, c.FPS)
	}
	return nil
}

type Result struct {
	Frames  []Frame
	Metrics map[string]float64
	// Dropped counts samples rejected as non-finite.
	Dropped int
}

// SimError wraps a failure with the frame it happened at.
type SimError struct {
	Frame   int
	Wrapped error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Frame, e.Wrapped)
}

func (e *SimError) Unwrap() error {
	return e.Wrapped
}
