package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultRadius      = 15.0
	DefaultGain        = 0.5
	DefaultDamping     = 0.9
	DefaultSpinDecay   = 0.99
	DefaultRestSpeed   = 1e-3
	DefaultRestSpin    = 1e-3
	DefaultMarkerInset = 6.0
)

// Body is a circular object confined to a Viewport. Angle is in degrees and
// Spin is the per-frame increment applied to it.
type Body struct {
	Position mgl64.Vec2 `json:"position"`
	Velocity mgl64.Vec2 `json:"velocity"`
	Radius   float64    `json:"radius"`
	Angle    float64    `json:"angle"`
	Spin     float64    `json:"spin"`
}

// Viewport is the drawing surface the body bounces around in.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (v Viewport) Size() mgl64.Vec2 {
	return mgl64.Vec2{float64(v.Width), float64(v.Height)}
}

func (v Viewport) Center() mgl64.Vec2 {
	return v.Size().Mul(0.5)
}

// Sample is one acceleration reading in sensor units. Y points up.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Params tunes the frame update. Margin biases the low edge of each axis
// (left for x, top for y).
type Params struct {
	Gain      float64    `json:"gain"`
	Damping   float64    `json:"damping"`
	SpinDecay float64    `json:"spin_decay"`
	Margin    mgl64.Vec2 `json:"margin"`
	RestSpeed float64    `json:"rest_speed"`
	RestSpin  float64    `json:"rest_spin"`
}

func DefaultParams() Params {
	return Params{
		Gain:      DefaultGain,
		Damping:   DefaultDamping,
		SpinDecay: DefaultSpinDecay,
		RestSpeed: DefaultRestSpeed,
		RestSpin:  DefaultRestSpin,
	}
}

// NewBody returns a body at rest in the center of vp.
func NewBody(vp Viewport, radius float64) *Body {
	return &Body{
		Position: vp.Center(),
		Radius:   radius,
	}
}

// Speed is the magnitude of the velocity.
func (b *Body) Speed() float64 {
	return b.Velocity.Len()
}

// Marker is the point drawn inside the body to show its rotation.
func (b *Body) Marker(inset float64) mgl64.Vec2 {
	rad := mgl64.DegToRad(b.Angle)
	r := b.Radius - inset
	return b.Position.Add(mgl64.Vec2{math.Cos(rad), math.Sin(rad)}.Mul(r))
}

// Accelerate adds s to the velocity. The sensor y axis is flipped to screen
// coordinates. Calls accumulate until the next Update.
func Accelerate(b *Body, s Sample, p Params) {
	b.Velocity = b.Velocity.Add(mgl64.Vec2{s.X, -s.Y}.Mul(p.Gain))
}
