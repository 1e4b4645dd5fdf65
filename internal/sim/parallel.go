package sim

import (
	"context"
	"sync"

	"github.com/san-kum/tiltball/internal/sensor"
)

// Ensemble runs independent sessions of the same configuration side by side,
// each with its own body and a source built from its seed.
type Ensemble struct {
	cfg       Config
	numRuns   int
	seedStart int64
	source    func(seed int64) sensor.Source
	metrics   func() []Metric
}

func NewEnsemble(cfg Config, numRuns int, seedStart int64, source func(seed int64) sensor.Source) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, source: source}
}

// WithMetrics sets the factory for per-run metrics; metrics hold state and are
// never shared between runs.
func (e *Ensemble) WithMetrics(fn func() []Metric) *Ensemble {
	e.metrics = fn
	return e
}

func (e *Ensemble) Run(ctx context.Context, rc RunConfig) ([]*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := rc.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := New(e.cfg)
			if err != nil {
				errs[idx] = err
				return
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}

			var src sensor.Source
			if e.source != nil {
				src = e.source(e.seedStart + int64(idx))
			}
			results[idx], errs[idx] = s.Run(ctx, src, rc)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
