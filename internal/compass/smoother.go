package compass

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// Smoother eases the displayed heading toward raw compass readings, turning
// the short way across north.
type Smoother struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	primed bool
}

func NewSmoother(fps int, frequency, damping float64) *Smoother {
	return &Smoother{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

// Update moves one frame toward target and returns the heading in [0, 360).
func (s *Smoother) Update(target float64) float64 {
	if !s.primed {
		s.pos, s.primed = target, true
		return Normalize(target)
	}
	goal := s.pos + shortest(Normalize(s.pos), Normalize(target))
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, goal)
	return Normalize(s.pos)
}

func (s *Smoother) Value() float64 { return Normalize(s.pos) }

func (s *Smoother) Reset() {
	s.pos, s.vel, s.primed = 0, 0, false
}

// Normalize wraps a heading into [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// shortest returns the signed turn in (-180, 180] from a to b.
func shortest(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}
