package sensor

import (
	"math"
	"math/rand"
)

const (
	noiseSize    = 4096
	noiseOctaves = 4
	noiseFalloff = 0.5
)

// Noise is smooth seeded 2D value noise in [0, 1), layered over a few
// octaves so neighbouring inputs give neighbouring outputs.
type Noise struct {
	table [noiseSize]float64
}

func NewNoise(seed int64) *Noise {
	rng := rand.New(rand.NewSource(seed))
	n := &Noise{}
	for i := range n.table {
		n.table[i] = rng.Float64()
	}
	return n
}

func (n *Noise) At(x, y float64) float64 {
	sum, amp, norm := 0.0, 0.5, 0.0
	for o := 0; o < noiseOctaves; o++ {
		sum += amp * n.lattice(x, y)
		norm += amp
		amp *= noiseFalloff
		x, y = x*2, y*2
	}
	return sum / norm
}

func (n *Noise) lattice(x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := smooth(x-x0), smooth(y-y0)
	ix, iy := int(x0), int(y0)

	a := n.corner(ix, iy)
	b := n.corner(ix+1, iy)
	c := n.corner(ix, iy+1)
	d := n.corner(ix+1, iy+1)

	top := a + (b-a)*fx
	bot := c + (d-c)*fx
	return top + (bot-top)*fy
}

func (n *Noise) corner(ix, iy int) float64 {
	h := uint32(ix)*73856093 ^ uint32(iy)*19349663
	return n.table[h%noiseSize]
}

// smooth is cosine easing, giving zero slope at lattice points.
func smooth(t float64) float64 {
	return 0.5 * (1 - math.Cos(t*math.Pi))
}
