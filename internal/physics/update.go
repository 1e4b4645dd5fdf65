package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Edge identifies a viewport wall. Values combine as a bit set.
type Edge uint8

const (
	EdgeLeft Edge = 1 << iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

func (e Edge) String() string {
	names := []struct {
		e    Edge
		name string
	}{
		{EdgeLeft, "left"},
		{EdgeRight, "right"},
		{EdgeTop, "top"},
		{EdgeBottom, "bottom"},
	}
	s := ""
	for _, n := range names {
		if e&n.e == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
	}
	if s == "" {
		return "none"
	}
	return s
}

// Events reports what happened during one Update.
type Events struct {
	// Bounced holds the walls the body reflected off this frame.
	Bounced Edge
	// Clamped holds the walls the body ended the frame pressed against,
	// with or without a reflection.
	Clamped Edge
	// Degenerate is set when an axis was too small to hold the body.
	Degenerate bool
}

type side int8

const (
	sideNone side = iota
	sideLow
	sideHigh
)

// Update advances b by one frame inside vp: damping, integration, wall
// collisions with spin transfer, then rotation. It never fails.
func Update(b *Body, vp Viewport, p Params) Events {
	var ev Events

	b.Velocity = b.Velocity.Mul(p.Damping)
	b.Position = b.Position.Add(b.Velocity)

	// tangential components are taken before either axis reflects
	v := b.Velocity
	size := vp.Size()

	x, vx := b.Position.X(), b.Velocity.X()
	hitX, clampX, degX := resolveAxis(&x, &vx, b.Radius, p.Margin.X(), size.X())
	y, vy := b.Position.Y(), b.Velocity.Y()
	hitY, clampY, degY := resolveAxis(&y, &vy, b.Radius, p.Margin.Y(), size.Y())

	b.Position = mgl64.Vec2{x, y}
	b.Velocity = mgl64.Vec2{vx, vy}
	ev.Degenerate = degX || degY

	switch hitX {
	case sideLow:
		b.Spin = v.Y() / b.Radius
		ev.Bounced |= EdgeLeft
	case sideHigh:
		b.Spin = -v.Y() / b.Radius
		ev.Bounced |= EdgeRight
	}
	switch hitY {
	case sideLow:
		b.Spin = -v.X() / b.Radius
		ev.Bounced |= EdgeTop
	case sideHigh:
		b.Spin = v.X() / b.Radius
		ev.Bounced |= EdgeBottom
	}
	switch clampX {
	case sideLow:
		ev.Clamped |= EdgeLeft
	case sideHigh:
		ev.Clamped |= EdgeRight
	}
	switch clampY {
	case sideLow:
		ev.Clamped |= EdgeTop
	case sideHigh:
		ev.Clamped |= EdgeBottom
	}

	b.Angle = wrapDegrees(b.Angle + b.Spin)
	b.Spin *= p.SpinDecay

	if b.Velocity.Len() < p.RestSpeed {
		b.Velocity = mgl64.Vec2{}
	}
	if math.Abs(b.Spin) < p.RestSpin {
		b.Spin = 0
	}
	return ev
}

// resolveAxis keeps one coordinate inside [margin+radius, dim-radius]. It
// reports the side reflected off (only when moving outward), the side
// clamped at, and whether the axis was too small to hold the body. A
// degenerate axis centers the body in the span left after the margin.
func resolveAxis(pos, vel *float64, radius, margin, dim float64) (hit, clamped side, degenerate bool) {
	if dim <= 2*radius+margin {
		*pos = (dim + margin) / 2
		return sideNone, sideNone, true
	}

	switch {
	case *pos-radius-margin < 0:
		*pos = margin + radius
		clamped = sideLow
		if *vel < 0 {
			*vel = -*vel
			hit = sideLow
		}
	case *pos+radius >= dim:
		*pos = dim - radius
		clamped = sideHigh
		if *vel > 0 {
			*vel = -*vel
			hit = sideHigh
		}
	}
	return hit, clamped, false
}

func wrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
