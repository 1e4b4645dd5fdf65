package metrics

import (
	"math/bits"

	"github.com/san-kum/tiltball/internal/sim"
)

// Bounces counts wall reflections. A corner hit counts once per wall.
type Bounces struct {
	name  string
	count int
}

func NewBounces() *Bounces {
	return &Bounces{name: "bounces"}
}

func (b *Bounces) Name() string {
	return b.name
}

func (b *Bounces) Observe(f sim.Frame) {
	b.count += bits.OnesCount8(uint8(f.Events.Bounced))
}

func (b *Bounces) Value() float64 {
	return float64(b.count)
}

func (b *Bounces) Reset() {
	b.count = 0
}

// Contact is the fraction of frames the body spends against a wall.
type Contact struct {
	name     string
	touching int
	samples  int
}

func NewContact() *Contact {
	return &Contact{name: "wall_contact"}
}

func (c *Contact) Name() string {
	return c.name
}

func (c *Contact) Observe(f sim.Frame) {
	c.samples++
	if f.Events.Clamped != 0 {
		c.touching++
	}
}

func (c *Contact) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.touching) / float64(c.samples)
}

func (c *Contact) Reset() {
	c.touching = 0
	c.samples = 0
}
