package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/tiltball/internal/compass"
	"github.com/san-kum/tiltball/internal/physics"
)

// dialFill is the fraction of the shorter canvas side the dial spans.
const dialFill = 0.9

// projection maps simulation pixels onto canvas dots.
type projection struct {
	scale float64
}

func (p projection) point(v mgl64.Vec2) (int, int) {
	return int(math.Round(v.X() / p.scale)), int(math.Round(v.Y() / p.scale))
}

func (p projection) length(l float64) int {
	return int(math.Round(l / p.scale))
}

// drawBody draws the outline and the rotation marker.
func drawBody(c *Canvas, p projection, b physics.Body) {
	cx, cy := p.point(b.Position)
	c.DrawCircle(cx, cy, p.length(b.Radius))

	mx, my := p.point(b.Marker(physics.DefaultMarkerInset))
	c.FillCircle(mx, my, p.length(physics.DefaultMarkerInset))
}

// drawDial renders d centered on the canvas. The accuracy fan is drawn as
// spokes, denser toward its center.
func drawDial(c *Canvas, d compass.Dial) {
	w, h := c.Dots()
	center := mgl64.Vec2{float64(w) / 2, float64(h) / 2}
	s := dialFill * math.Min(center.X(), center.Y()) / compass.PointerTip
	at := func(v mgl64.Vec2) (int, int) {
		q := center.Add(v.Mul(s))
		return int(math.Round(q.X())), int(math.Round(q.Y()))
	}
	line := func(a, b mgl64.Vec2) {
		x0, y0 := at(a)
		x1, y1 := at(b)
		c.DrawLine(x0, y0, x1, y1)
	}

	for i, wg := range d.Wedges {
		if wg.Shade < 128 && i%2 == 1 {
			continue
		}
		rad := mgl64.DegToRad((wg.From + wg.To) / 2)
		dir := mgl64.Vec2{math.Cos(rad), math.Sin(rad)}
		line(mgl64.Vec2{}, dir.Mul(compass.OuterRadius))
	}

	line(mgl64.Vec2{-d.Crosshair, 0}, mgl64.Vec2{d.Crosshair, 0})
	line(mgl64.Vec2{0, -d.Crosshair}, mgl64.Vec2{0, d.Crosshair})
	line(d.Pointer[0], d.Pointer[1])

	for _, t := range d.Ticks {
		line(t.From, t.To)
		if t.Weight > 1 {
			// thicken by offsetting along the tangent
			n := mgl64.Vec2{-t.From.Y(), t.From.X()}.Normalize().Mul(1 / s)
			line(t.From.Add(n), t.To.Add(n))
		}
	}

	for _, l := range d.Labels {
		x, y := at(l.At)
		// labels are two cells wide; shift left so the point sits in the middle
		c.Text(x-2, y, l.Text)
	}
}
