package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/tiltball/internal/sim"
)

type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(f sim.Frame) {
	if v := f.Body.Velocity.Len(); v > p.peak {
		p.peak = v
	}
}

func (p *PeakSpeed) Value() float64 { return p.peak }
func (p *PeakSpeed) Reset()         { p.peak = 0 }

// Distance is the path length travelled by the body center.
type Distance struct {
	name  string
	total float64
	last  mgl64.Vec2
	init  bool
}

func NewDistance() *Distance {
	return &Distance{name: "distance"}
}

func (d *Distance) Name() string { return d.name }

func (d *Distance) Observe(f sim.Frame) {
	pos := f.Body.Position
	if d.init {
		d.total += pos.Sub(d.last).Len()
	}
	d.last, d.init = pos, true
}

func (d *Distance) Value() float64 { return d.total }

func (d *Distance) Reset() {
	d.total = 0
	d.last = mgl64.Vec2{}
	d.init = false
}

// MeanSpin is the average absolute spin per frame, in degrees.
type MeanSpin struct {
	name    string
	sum     float64
	samples int
}

func NewMeanSpin() *MeanSpin {
	return &MeanSpin{name: "mean_spin"}
}

func (m *MeanSpin) Name() string { return m.name }

func (m *MeanSpin) Observe(f sim.Frame) {
	m.sum += math.Abs(f.Body.Spin)
	m.samples++
}

func (m *MeanSpin) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpin) Reset() {
	m.sum = 0
	m.samples = 0
}

// Default returns a fresh set of every metric.
func Default() []sim.Metric {
	return []sim.Metric{
		NewBounces(),
		NewContact(),
		NewPeakSpeed(),
		NewDistance(),
		NewMeanSpin(),
	}
}
