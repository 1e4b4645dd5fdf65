package sensor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var ErrMissingColumn = errors.New("sensor: replay needs ax and ay columns")

// Replay re-emits the accelerations of a recorded run, one per frame.
type Replay struct {
	Rate    int
	samples [][2]float64
}

// NewReplay reads a CSV with a header row naming at least ax and ay.
func NewReplay(r io.Reader) (*Replay, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read replay header: %w", err)
	}
	ix, iy := -1, -1
	for i, name := range header {
		switch name {
		case "ax":
			ix = i
		case "ay":
			iy = i
		}
	}
	if ix < 0 || iy < 0 {
		return nil, ErrMissingColumn
	}

	rp := &Replay{Rate: DefaultRate}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read replay line %d: %w", line, err)
		}
		if len(rec) <= ix || len(rec) <= iy {
			continue
		}
		ax, err := strconv.ParseFloat(rec[ix], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d ax: %w", line, err)
		}
		ay, err := strconv.ParseFloat(rec[iy], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d ay: %w", line, err)
		}
		rp.samples = append(rp.samples, [2]float64{ax, ay})
	}
	return rp, nil
}

func (r *Replay) Len() int { return len(r.samples) }

func (r *Replay) At(frame int) (Event, bool) {
	if frame < 0 || frame >= len(r.samples) {
		return Event{}, false
	}
	s := r.samples[frame]
	return Event{
		Motion: &Motion{
			AccelerationIncludingGravity: &Vec3{X: Float(s[0]), Y: Float(s[1])},
		},
	}, true
}

func (r *Replay) Run(ctx context.Context, out chan<- Event) error {
	return RunPaced(ctx, r, r.Rate, out)
}
