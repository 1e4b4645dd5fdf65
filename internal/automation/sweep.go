package automation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/san-kum/tiltball/internal/physics"
	"github.com/san-kum/tiltball/internal/sensor"
	"github.com/san-kum/tiltball/internal/sim"
)

var ErrUnknownParam = errors.New("automation: unknown sweep parameter")

// SweepParams lists the parameters a sweep can vary.
var SweepParams = []string{"gain", "damping", "spin_decay", "radius"}

// Sweep varies one parameter over [Min, Max] in Steps evenly spaced values,
// running Frames frames for each.
type Sweep struct {
	Param  string
	Min    float64
	Max    float64
	Steps  int
	Frames int
	// Source builds a fresh input for each run. Nil runs without input.
	Source func() (sensor.Source, error)
	// Metrics builds fresh metrics for each run.
	Metrics func() []sim.Metric
}

type SweepResult struct {
	Value   float64
	Frames  int
	Final   physics.Body
	Metrics map[string]float64
}

func (sw *Sweep) Validate() error {
	if err := setParam(&sim.Config{}, sw.Param, 0); err != nil {
		return err
	}
	if sw.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", sim.ErrInvalidConfig, sw.Steps)
	}
	if sw.Frames <= 0 {
		return fmt.Errorf("%w: frames must be positive, got %d", sim.ErrInvalidConfig, sw.Frames)
	}
	if sw.Max < sw.Min {
		return fmt.Errorf("%w: max %g below min %g", sim.ErrInvalidConfig, sw.Max, sw.Min)
	}
	return nil
}

// Values returns the parameter values the sweep visits.
func (sw *Sweep) Values() []float64 {
	out := make([]float64, sw.Steps)
	if sw.Steps == 1 {
		out[0] = sw.Min
		return out
	}
	step := (sw.Max - sw.Min) / float64(sw.Steps-1)
	for i := range out {
		out[i] = sw.Min + float64(i)*step
	}
	return out
}

// RunSweep runs base once per sweep value. A value that makes the
// configuration invalid fails the whole sweep.
func RunSweep(ctx context.Context, sw *Sweep, base sim.Config) ([]SweepResult, error) {
	if err := sw.Validate(); err != nil {
		return nil, err
	}

	values := sw.Values()
	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		cfg := base
		if err := setParam(&cfg, sw.Param, v); err != nil {
			return results, err
		}
		s, err := sim.New(cfg)
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sw.Param, v, err)
		}
		if sw.Metrics != nil {
			for _, m := range sw.Metrics() {
				s.AddMetric(m)
			}
		}

		var src sensor.Source
		if sw.Source != nil {
			if src, err = sw.Source(); err != nil {
				return results, err
			}
		}

		res, err := s.Run(ctx, src, sim.RunConfig{Frames: sw.Frames})
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sw.Param, v, err)
		}
		results = append(results, SweepResult{
			Value:   v,
			Frames:  len(res.Frames),
			Final:   s.Snapshot(),
			Metrics: res.Metrics,
		})
		log.Printf("[SWEEP] %d/%d %s=%.4f", i+1, len(values), sw.Param, v)
	}
	return results, nil
}

// Best returns the index of the result with the largest metric, or the
// smallest when minimize is set. It returns -1 when no result has it.
func Best(results []SweepResult, metric string, minimize bool) int {
	best := -1
	bestVal := math.Inf(-1)
	if minimize {
		bestVal = math.Inf(1)
	}
	for i, r := range results {
		v, ok := r.Metrics[metric]
		if !ok {
			continue
		}
		if (minimize && v < bestVal) || (!minimize && v > bestVal) {
			best, bestVal = i, v
		}
	}
	return best
}

func setParam(cfg *sim.Config, name string, v float64) error {
	switch name {
	case "gain":
		cfg.Params.Gain = v
	case "damping":
		cfg.Params.Damping = v
	case "spin_decay":
		cfg.Params.SpinDecay = v
	case "radius":
		cfg.Radius = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}
