package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/tiltball/internal/physics"
	"github.com/san-kum/tiltball/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Frames: []sim.Frame{
			{
				Index: 0, Time: 0,
				Accel: physics.Sample{X: 1, Y: -1},
				Body:  physics.Body{Position: mgl64.Vec2{200, 350}, Velocity: mgl64.Vec2{0.5, 0.5}, Radius: 15},
			},
			{
				Index: 1, Time: 1.0 / 60,
				Body: physics.Body{Position: mgl64.Vec2{200.45, 350.45}, Velocity: mgl64.Vec2{0.45, 0.45}, Radius: 15, Angle: 3, Spin: 0.5},
			},
		},
		Metrics: map[string]float64{"bounces": 2},
		Dropped: 1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMeta{Preset: "classic", Source: "synthetic", Seed: 42, FPS: 60}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "classic_") {
		t.Errorf("unexpected run id %s", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Frames != 2 || meta.Dropped != 1 {
		t.Errorf("expected 2 frames and 1 dropped, got %d and %d", meta.Frames, meta.Dropped)
	}
	if meta.Metrics["bounces"] != 2 {
		t.Errorf("expected bounces 2, got %f", meta.Metrics["bounces"])
	}

	track, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(track.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(track.Rows))
	}
	if len(track.Columns) != len(sim.Columns) {
		t.Errorf("expected %d columns, got %d", len(sim.Columns), len(track.Columns))
	}

	spin, err := track.Column("spin")
	if err != nil {
		t.Fatalf("column failed: %v", err)
	}
	if spin[1] != 0.5 {
		t.Errorf("expected spin 0.5, got %f", spin[1])
	}
	ax, _ := track.Column("ax")
	if ax[0] != 1 {
		t.Errorf("expected ax 1, got %f", ax[0])
	}
}

func TestTrackMissingColumn(t *testing.T) {
	track := &Track{Columns: []string{"time"}, Rows: [][]float64{{0}}}
	if _, err := track.Column("spin"); !errors.Is(err, ErrNoColumn) {
		t.Errorf("expected ErrNoColumn, got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	st.Init()

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, _ := st.Save(RunMeta{Source: "synthetic"}, testResult())
	second, _ := st.Save(RunMeta{Source: "replay"}, testResult())
	os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("expected runs in save order, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestLoadFramesBadValue(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	os.MkdirAll(filepath.Join(tmpDir, "bad"), 0755)
	os.WriteFile(st.Path("bad"), []byte("time,x\n0,oops\n"), 0644)

	if _, err := st.LoadFrames("bad"); err == nil {
		t.Error("expected parse error")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	track := &Track{Columns: []string{"time", "x"}, Rows: [][]float64{{0, 1}, {0.5, 2}}}

	if err := ExportJSON(&buf, RunMeta{ID: "run_1", Seed: 7}, track); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Meta.ID != "run_1" || data.Meta.Seed != 7 {
		t.Errorf("unexpected meta %+v", data.Meta)
	}
	if len(data.Track.Rows) != 2 || data.Track.Rows[1][1] != 2 {
		t.Errorf("unexpected track %+v", data.Track)
	}
}

func TestWriteFramesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrames(&buf, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := strings.Join(sim.Columns, ",") + "\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestSaveRemovesRunOnWriteFailure(t *testing.T) {
	failed := errors.New("disk full")
	orig := writeFrames
	writeFrames = func(io.Writer, []sim.Frame) error { return failed }
	defer func() { writeFrames = orig }()

	dir := t.TempDir()
	st := New(dir)
	if _, err := st.Save(RunMeta{Source: "synthetic"}, testResult()); !errors.Is(err, failed) {
		t.Fatalf("expected write error, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no run directory left behind, found %d entries", len(entries))
	}
}
