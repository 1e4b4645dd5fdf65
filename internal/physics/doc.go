// Package physics moves a spinning ball around a rectangular viewport.
//
// A frame is two calls: [Accelerate] for each tilt sample received, then
// [Update] once. Update damps and integrates the velocity, reflects the
// body off any wall it crosses while moving outward, and converts the
// velocity along that wall into spin:
//
//	b := physics.NewBody(vp, physics.DefaultRadius)
//	physics.Accelerate(b, physics.Sample{X: 1.2, Y: -0.4}, p)
//	ev := physics.Update(b, vp, p)
//	if ev.Bounced != 0 {
//	    fmt.Println("hit", ev.Bounced)
//	}
//
// Positions are in viewport pixels with y growing downward. Angle and spin
// are in degrees.
package physics
