package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tiltball/internal/sensor"
)

var ErrEmptyScript = errors.New("automation: script has no steps")

// Script is a scripted tilt sequence. Each step holds a tilt for a number
// of frames, optionally ramping to it from the previous step.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Rate        int    `yaml:"rate,omitempty"`
	Loop        bool   `yaml:"loop,omitempty"`
	Steps       []Step `yaml:"steps"`
}

type Step struct {
	Frames int     `yaml:"frames"`
	AX     float64 `yaml:"ax"`
	AY     float64 `yaml:"ay"`
	// Ramp interpolates linearly from the previous step's tilt (rest for
	// the first step), reaching AX, AY on the step's last frame.
	Ramp    bool     `yaml:"ramp,omitempty"`
	Heading *float64 `yaml:"heading,omitempty"`
}

// LoadScript reads a script from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Rate <= 0 {
		s.Rate = sensor.DefaultRate
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return ErrEmptyScript
	}
	for i, st := range s.Steps {
		if st.Frames <= 0 {
			return fmt.Errorf("automation: step %d: frames must be positive, got %d", i+1, st.Frames)
		}
	}
	return nil
}

// Len is the number of frames in one pass of the script.
func (s *Script) Len() int {
	n := 0
	for _, st := range s.Steps {
		n += st.Frames
	}
	return n
}

// At returns the event for frame, wrapping when the script loops.
func (s *Script) At(frame int) (sensor.Event, bool) {
	total := s.Len()
	if frame < 0 || total == 0 {
		return sensor.Event{}, false
	}
	if frame >= total {
		if !s.Loop {
			return sensor.Event{}, false
		}
		frame %= total
	}

	var prevX, prevY float64
	for _, st := range s.Steps {
		if frame >= st.Frames {
			frame -= st.Frames
			prevX, prevY = st.AX, st.AY
			continue
		}
		ax, ay := st.AX, st.AY
		if st.Ramp {
			t := float64(frame+1) / float64(st.Frames)
			ax = prevX + (st.AX-prevX)*t
			ay = prevY + (st.AY-prevY)*t
		}
		ev := sensor.Event{
			Motion: &sensor.Motion{
				AccelerationIncludingGravity: &sensor.Vec3{X: sensor.Float(ax), Y: sensor.Float(ay)},
			},
		}
		if st.Heading != nil {
			ev.Orientation = &sensor.Orientation{CompassHeading: sensor.Float(*st.Heading)}
		}
		return ev, true
	}
	return sensor.Event{}, false
}

func (s *Script) Run(ctx context.Context, out chan<- sensor.Event) error {
	return sensor.RunPaced(ctx, s, s.Rate, out)
}
