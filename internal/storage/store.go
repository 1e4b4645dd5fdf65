package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/tiltball/internal/physics"
	"github.com/san-kum/tiltball/internal/sim"
)

const (
	metaFile   = "metadata.json"
	framesFile = "frames.csv"
)

var ErrNoColumn = errors.New("storage: no such column")

// writeFrames is swapped out in tests.
var writeFrames = WriteFrames

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMeta describes a saved run. ID and Timestamp are filled in by Save.
type RunMeta struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset,omitempty"`
	Source    string             `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	FPS       int                `json:"fps"`
	Frames    int                `json:"frames"`
	Radius    float64            `json:"radius"`
	Viewport  physics.Viewport   `json:"viewport"`
	Params    physics.Params     `json:"params"`
	Dropped   int                `json:"dropped"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a new run directory. On failure nothing is left behind.
func (s *Store) Save(meta RunMeta, result *sim.Result) (string, error) {
	now := time.Now()
	label := meta.Preset
	if label == "" {
		label = meta.Source
	}
	runID := fmt.Sprintf("%s_%d", label, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Frames = len(result.Frames)
	meta.Dropped = result.Dropped
	meta.Metrics = result.Metrics

	if err := s.writeRun(runDir, meta, result.Frames); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func (s *Store) writeRun(runDir string, meta RunMeta, frames []sim.Frame) (err error) {
	if err := writeJSON(filepath.Join(runDir, metaFile), meta); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := csvFile.Close(); err == nil {
			err = cerr
		}
	}()

	return writeFrames(csvFile, frames)
}

// WriteFrames writes frames as CSV with a sim.Columns header.
func WriteFrames(w io.Writer, frames []sim.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sim.Columns); err != nil {
		return err
	}
	row := make([]string, len(sim.Columns))
	for _, f := range frames {
		for i, v := range f.Row() {
			row[i] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns saved runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMeta, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMeta{}, nil
		}
		return nil, err
	}

	runs := make([]RunMeta, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMeta, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metaFile))
	if err != nil {
		return nil, err
	}

	var meta RunMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Path returns the frames file of a run.
func (s *Store) Path(runID string) string {
	return filepath.Join(s.baseDir, runID, framesFile)
}

// Track is the per-frame table of a saved run.
type Track struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// Column returns one column of every row.
func (t *Track) Column(name string) ([]float64, error) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, name)
	}
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out, nil
}

func (s *Store) LoadFrames(runID string) (*Track, error) {
	file, err := os.Open(s.Path(runID))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Track{Columns: sim.Columns, Rows: [][]float64{}}, nil
	}

	track := &Track{
		Columns: records[0],
		Rows:    make([][]float64, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		row := make([]float64, 0, len(record))
		for _, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", runID, err)
			}
			row = append(row, val)
		}
		track.Rows = append(track.Rows, row)
	}
	return track, nil
}

type ExportData struct {
	Meta  RunMeta `json:"meta"`
	Track *Track  `json:"track"`
}

func ExportJSON(w io.Writer, meta RunMeta, track *Track) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Meta: meta, Track: track})
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
