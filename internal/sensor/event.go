package sensor

import (
	"context"

	"github.com/san-kum/tiltball/internal/physics"
)

// Vec3 is an accelerometer triple. Browsers may leave components null.
type Vec3 struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`
}

type Rotation struct {
	Alpha *float64 `json:"alpha,omitempty"`
	Beta  *float64 `json:"beta,omitempty"`
	Gamma *float64 `json:"gamma,omitempty"`
}

// Motion mirrors a devicemotion event.
type Motion struct {
	Acceleration                 *Vec3     `json:"acceleration,omitempty"`
	AccelerationIncludingGravity *Vec3     `json:"accelerationIncludingGravity,omitempty"`
	RotationRate                 *Rotation `json:"rotationRate,omitempty"`
	Interval                     *float64  `json:"interval,omitempty"`
}

// Orientation mirrors a deviceorientation event. The compass fields are only
// reported by mobile Safari.
type Orientation struct {
	Alpha           *float64 `json:"alpha,omitempty"`
	Beta            *float64 `json:"beta,omitempty"`
	Gamma           *float64 `json:"gamma,omitempty"`
	CompassHeading  *float64 `json:"webkitCompassHeading,omitempty"`
	CompassAccuracy *float64 `json:"webkitCompassAccuracy,omitempty"`
}

// Event carries one motion reading, one orientation reading, or both.
type Event struct {
	Motion      *Motion      `json:"motion,omitempty"`
	Orientation *Orientation `json:"orientation,omitempty"`
}

// Source produces events until ctx is done or the source is exhausted.
// Run closes nothing; the caller owns out.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
}

// Float returns a pointer to v, for building events by hand.
func Float(v float64) *float64 { return &v }

// Sample extracts the gravity-inclusive acceleration that drives the ball.
func (m *Motion) Sample() (physics.Sample, bool) {
	if m == nil || m.AccelerationIncludingGravity == nil {
		return physics.Sample{}, false
	}
	g := m.AccelerationIncludingGravity
	if g.X == nil || g.Y == nil {
		return physics.Sample{}, false
	}
	return physics.Sample{X: *g.X, Y: *g.Y}, true
}

// Heading returns the compass heading and accuracy when both are known.
func (o *Orientation) Heading() (heading, accuracy float64, ok bool) {
	if o == nil || o.CompassHeading == nil {
		return 0, 0, false
	}
	if o.CompassAccuracy != nil {
		accuracy = *o.CompassAccuracy
	}
	return *o.CompassHeading, accuracy, true
}

// Flatten maps every present field to its dotted path, e.g.
// "accelerationIncludingGravity.x" or "orientation.webkitCompassHeading".
// Motion fields sit at the top level, orientation fields under "orientation".
func (e Event) Flatten() map[string]float64 {
	out := make(map[string]float64)
	put := func(path string, v *float64) {
		if v != nil {
			out[path] = *v
		}
	}
	putVec := func(prefix string, v *Vec3) {
		if v == nil {
			return
		}
		put(prefix+".x", v.X)
		put(prefix+".y", v.Y)
		put(prefix+".z", v.Z)
	}

	if m := e.Motion; m != nil {
		putVec("acceleration", m.Acceleration)
		putVec("accelerationIncludingGravity", m.AccelerationIncludingGravity)
		if r := m.RotationRate; r != nil {
			put("rotationRate.alpha", r.Alpha)
			put("rotationRate.beta", r.Beta)
			put("rotationRate.gamma", r.Gamma)
		}
		put("interval", m.Interval)
	}
	if o := e.Orientation; o != nil {
		put("orientation.alpha", o.Alpha)
		put("orientation.beta", o.Beta)
		put("orientation.gamma", o.Gamma)
		put("orientation.webkitCompassAccuracy", o.CompassAccuracy)
		put("orientation.webkitCompassHeading", o.CompassHeading)
	}
	return out
}
