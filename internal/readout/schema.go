package readout

import (
	"fmt"
	"sort"
	"strings"
)

// Formatter renders one numeric value.
type Formatter func(float64) string

// Fixed formats with n digits after the decimal point.
func Fixed(n int) Formatter {
	return func(v float64) string {
		return fmt.Sprintf("%.*f", n, v)
	}
}

// Hertz shows a sample interval in milliseconds as a rate.
func Hertz(ms float64) string {
	if ms <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f Hz", 1000/ms)
}

// Field binds a dotted sensor path to its formatter.
type Field struct {
	Path   string
	Format Formatter
}

type Schema []Field

// Group expands prefix.name for every name, all using format.
func Group(prefix string, format Formatter, names ...string) Schema {
	s := make(Schema, 0, len(names))
	for _, n := range names {
		path := n
		if prefix != "" {
			path = prefix + "." + n
		}
		s = append(s, Field{Path: path, Format: format})
	}
	return s
}

// DefaultSchema lists the devicemotion and deviceorientation fields, in the
// order they are displayed.
func DefaultSchema() Schema {
	f := Fixed(2)
	var s Schema
	s = append(s, Group("acceleration", f, "x", "y", "z")...)
	s = append(s, Group("accelerationIncludingGravity", f, "x", "y", "z")...)
	s = append(s, Group("rotationRate", f, "alpha", "beta", "gamma")...)
	s = append(s, Field{Path: "interval", Format: Hertz})
	s = append(s, Group("orientation", f,
		"alpha", "beta", "gamma",
		"webkitCompassAccuracy",
		"webkitCompassHeading",
	)...)
	return s
}

// Paths returns the field paths in schema order.
func (s Schema) Paths() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Path
	}
	return out
}

// Panel keeps the latest value of every schema field.
type Panel struct {
	schema Schema
	index  map[string]int
	values []float64
	seen   []bool
}

func NewPanel(s Schema) *Panel {
	p := &Panel{
		schema: s,
		index:  make(map[string]int, len(s)),
		values: make([]float64, len(s)),
		seen:   make([]bool, len(s)),
	}
	for i, f := range s {
		p.index[f.Path] = i
	}
	return p
}

// Apply records the values whose paths are in the schema and returns the
// paths it ignored, sorted.
func (p *Panel) Apply(values map[string]float64) []string {
	var ignored []string
	for path, v := range values {
		i, ok := p.index[path]
		if !ok {
			ignored = append(ignored, path)
			continue
		}
		p.values[i] = v
		p.seen[i] = true
	}
	sort.Strings(ignored)
	return ignored
}

func (p *Panel) Value(path string) (float64, bool) {
	i, ok := p.index[path]
	if !ok || !p.seen[i] {
		return 0, false
	}
	return p.values[i], true
}

// Lines renders "path: value" for every field seen so far.
func (p *Panel) Lines() []string {
	lines := make([]string, 0, len(p.schema))
	for i, f := range p.schema {
		if !p.seen[i] {
			continue
		}
		lines = append(lines, f.Path+": "+f.Format(p.values[i]))
	}
	return lines
}

func (p *Panel) String() string {
	return strings.Join(p.Lines(), "\n")
}

func (p *Panel) Reset() {
	for i := range p.seen {
		p.seen[i] = false
		p.values[i] = 0
	}
}
