package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/tiltball/internal/physics"
)

const (
	background  = "#0a0a0a"
	strokeColor = "#00ff00"
	ballColor   = "#ffffff"
)

// TrajectoryToSVG draws the path of the ball center inside the viewport, in
// screen coordinates, with the ball at its final position.
func TrajectoryToSVG(w io.Writer, vp physics.Viewport, radius float64, points []mgl64.Vec2) error {
	if len(points) == 0 {
		return fmt.Errorf("export: no points")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, vp.Width, vp.Height, vp.Width, vp.Height, background))

	if len(points) > 1 {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))
		for i, p := range points {
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", p.X(), p.Y()))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", p.X(), p.Y()))
			}
		}
		sb.WriteString("\"/>\n")
	}

	last := points[len(points)-1]
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="2"/>
`, last.X(), last.Y(), radius, ballColor))
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
