package sensor

import (
	"context"
	"math"
	"time"
)

const (
	DefaultRate     = 60
	DefaultAccuracy = 20.0
)

// Synthetic stands in for a phone: tilt wanders smoothly in [-4, 4] on each
// axis and the compass heading follows Heading.
type Synthetic struct {
	Rate     int
	Limit    int
	Accuracy float64
	Heading  func(frame int) float64
	noise    *Noise
}

func NewSynthetic(seed int64) *Synthetic {
	return &Synthetic{
		Rate:     DefaultRate,
		Accuracy: DefaultAccuracy,
		Heading:  SweepHeading(0.25),
		noise:    NewNoise(seed),
	}
}

// SweepHeading turns degPerFrame degrees clockwise each frame.
func SweepHeading(degPerFrame float64) func(int) float64 {
	return func(frame int) float64 {
		return math.Mod(float64(frame)*degPerFrame, 360)
	}
}

// At returns the event for a given frame. The same seed and frame always
// give the same event.
func (s *Synthetic) At(frame int) (Event, bool) {
	if s.Limit > 0 && frame >= s.Limit {
		return Event{}, false
	}
	f := float64(frame)
	ax := 8*s.noise.At(f/100, 0) - 4
	ay := 8*s.noise.At(f/150, 1) - 4

	ev := Event{
		Motion: &Motion{
			AccelerationIncludingGravity: &Vec3{X: Float(ax), Y: Float(ay)},
		},
	}
	if s.Heading != nil {
		ev.Orientation = &Orientation{
			CompassHeading:  Float(s.Heading(frame)),
			CompassAccuracy: Float(s.Accuracy),
		}
	}
	return ev, true
}

func (s *Synthetic) Run(ctx context.Context, out chan<- Event) error {
	return RunPaced(ctx, s, s.Rate, out)
}

// Sequencer is a source that can produce its events frame by frame on
// demand, which lets a simulation consume it deterministically.
type Sequencer interface {
	Source
	At(frame int) (Event, bool)
}

// RunPaced sends seq's events to out at rate per second until seq is
// exhausted or ctx is done.
func RunPaced(ctx context.Context, seq Sequencer, rate int, out chan<- Event) error {
	if rate <= 0 {
		rate = DefaultRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		ev, ok := seq.At(frame)
		if !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- ev:
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
