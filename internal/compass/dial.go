// Package compass computes the geometry of the heading dial drawn over the
// ball. Coordinates are relative to the dial center with y pointing down and
// angles in degrees clockwise from +x.
package compass

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	InnerRadius = 80.0
	OuterRadius = 100.0
	LabelRadius = 55.0
	PointerTip  = 115.0

	tickStep  = 5
	majorStep = 30
	wedgeStep = 2
)

// Labels are the cardinal points starting at north, clockwise.
var Labels = [4]string{"北", "东", "南", "西"}

// Wedge is one slice of the accuracy fan. Shade runs from 64 at the edge of
// the accuracy window to 192 at its center.
type Wedge struct {
	From, To float64
	Shade    uint8
}

type Tick struct {
	From, To mgl64.Vec2
	Weight   int
}

type Label struct {
	Text  string
	At    mgl64.Vec2
	North bool
}

type Dial struct {
	Heading  float64
	Accuracy float64
	// North is the screen direction of north.
	North     float64
	Wedges    []Wedge
	Ticks     []Tick
	Labels    []Label
	Crosshair float64
	// Pointer marks the device's forward direction, always straight up.
	Pointer [2]mgl64.Vec2
}

// NewDial lays out the dial for a heading in degrees clockwise from north and
// an accuracy in degrees. A non-positive accuracy draws no fan.
func NewDial(heading, accuracy float64) Dial {
	d := Dial{
		Heading:  heading,
		Accuracy: accuracy,
		North:    -90 - heading,
	}

	if accuracy > 0 {
		for da := -accuracy; da < accuracy; da += wedgeStep {
			shade := remap(math.Abs(da), accuracy, 0, 64, 192)
			d.Wedges = append(d.Wedges, Wedge{
				From:  d.North + da,
				To:    d.North + da + wedgeStep,
				Shade: uint8(math.Round(shade)),
			})
		}
	}

	// the crosshair shrinks near the diagonals so it stays clear of the labels
	h := math.Abs(math.Mod(heading, 90)-45) - 45
	d.Crosshair = clamp(remap(math.Abs(h), 0, 45, 30, 60), 30, 60)

	d.Pointer = [2]mgl64.Vec2{{0, -InnerRadius - 1.5}, {0, -PointerTip}}

	for deg := 0; deg < 360; deg += tickStep {
		w := 1
		if deg%majorStep == 0 {
			w = 3
		}
		a := float64(deg) - heading
		half := float64(w) / 2
		d.Ticks = append(d.Ticks, Tick{
			From:   polar(a, InnerRadius+half),
			To:     polar(a, OuterRadius-half),
			Weight: w,
		})
	}

	for i, text := range Labels {
		d.Labels = append(d.Labels, Label{
			Text:  text,
			At:    polar(d.North+90*float64(i), LabelRadius),
			North: i == 0,
		})
	}
	return d
}

func polar(deg, r float64) mgl64.Vec2 {
	rad := mgl64.DegToRad(deg)
	return mgl64.Vec2{math.Cos(rad), math.Sin(rad)}.Mul(r)
}

func remap(v, a0, a1, b0, b1 float64) float64 {
	if a1 == a0 {
		return b0
	}
	return b0 + (v-a0)/(a1-a0)*(b1-b0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
