package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/tiltball/internal/compass"
	"github.com/san-kum/tiltball/internal/physics"
	"github.com/san-kum/tiltball/internal/readout"
	"github.com/san-kum/tiltball/internal/sensor"
	"github.com/san-kum/tiltball/internal/sim"
)

const (
	width           = 60
	height          = 22
	panelWidth      = 46
	historyCapacity = 600
	eventBuffer     = 64

	// DefaultScale is simulation pixels per braille dot.
	DefaultScale = 4.0
	// nudgeAccel is the acceleration one arrow key press applies.
	nudgeAccel = 2.0
	// spring for the displayed heading
	headingFrequency = 6.0
	headingDamping   = 1.0
)

type TickMsg time.Time

type Options struct {
	Title string
	FPS   int
	// Scale is simulation pixels per braille dot.
	Scale float64
}

// Model drives a Simulator from a sensor source and draws it.
type Model struct {
	sim    *sim.Simulator
	src    sensor.Source
	seq    sensor.Sequencer
	events chan sensor.Event
	ctx    context.Context
	cancel context.CancelFunc

	title         string
	fps           int
	scale         float64
	width, height int
	canvas        *Canvas

	running     bool
	showCompass bool
	showHelp    bool

	panel    *readout.Panel
	smoother *compass.Smoother
	heading  float64
	accuracy float64
	display  float64
	hasDial  bool

	last         sim.Frame
	speedHistory []float64
	spinHistory  []float64
}

// NewModel sizes the simulator's viewport to the default canvas. src may be
// nil for keyboard-only input.
func NewModel(s *sim.Simulator, src sensor.Source, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = sim.DefaultFPS
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.Title == "" {
		opts.Title = "tiltball"
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		sim:          s,
		src:          src,
		ctx:          ctx,
		cancel:       cancel,
		title:        opts.Title,
		fps:          opts.FPS,
		scale:        opts.Scale,
		running:      true,
		showCompass:  true,
		panel:        readout.NewPanel(readout.DefaultSchema()),
		smoother:     compass.NewSmoother(opts.FPS, headingFrequency, headingDamping),
		speedHistory: make([]float64, 0, historyCapacity),
		spinHistory:  make([]float64, 0, historyCapacity),
	}
	if seq, ok := src.(sensor.Sequencer); ok {
		m.seq = seq
	} else if src != nil {
		m.events = make(chan sensor.Event, eventBuffer)
	}
	m.resize(width, height)
	m.last = sim.Frame{Body: s.Snapshot()}
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	if m.events != nil {
		go m.src.Run(m.ctx, m.events)
	}
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "up", "k":
			m.nudge(0, 1)
		case "down", "j":
			m.nudge(0, -1)
		case "left", "h":
			m.nudge(-1, 0)
		case "right", "l":
			m.nudge(1, 0)
		case "c":
			m.showCompass = !m.showCompass
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width-panelWidth-6, msg.Height-2)
	case TickMsg:
		if m.running {
			m.feed()
			m.record(m.sim.Step())
		}
		m.draw()
		return m, m.tick()
	}
	return m, nil
}

// resize fits the canvas to cols x rows cells and the viewport to the canvas.
func (m *Model) resize(cols, rows int) {
	cols, rows = max(cols, 10), max(rows, 5)
	m.width, m.height = cols, rows
	m.canvas = NewCanvas(cols, rows)
	w, h := m.canvas.Dots()
	m.sim.Resize(physics.Viewport{
		Width:  int(float64(w) * m.scale),
		Height: int(float64(h) * m.scale),
	})
}

// nudge tilts the device along screen axes; y is up.
func (m *Model) nudge(dx, dy float64) {
	m.sim.Accelerate(physics.Sample{X: dx * nudgeAccel, Y: dy * nudgeAccel})
}

func (m *Model) feed() {
	if m.seq != nil {
		if ev, ok := m.seq.At(m.sim.FrameIndex()); ok {
			m.apply(ev)
		}
		return
	}
	if m.events == nil {
		return
	}
	for {
		select {
		case ev := <-m.events:
			m.apply(ev)
		default:
			return
		}
	}
}

func (m *Model) apply(ev sensor.Event) {
	m.sim.Apply(ev)
	m.panel.Apply(ev.Flatten())
	if h, acc, ok := ev.Orientation.Heading(); ok {
		m.heading, m.accuracy, m.hasDial = h, acc, true
	}
}

func (m *Model) record(f sim.Frame) {
	m.last = f
	m.speedHistory = appendCapped(m.speedHistory, f.Body.Speed())
	m.spinHistory = appendCapped(m.spinHistory, f.Body.Spin)
	if m.hasDial {
		m.display = m.smoother.Update(m.heading)
	}
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// reset re-centers the ball and forgets sensor history.
func (m *Model) reset() {
	m.sim.Reset()
	m.last = sim.Frame{Body: m.sim.Snapshot()}
	m.speedHistory = m.speedHistory[:0]
	m.spinHistory = m.spinHistory[:0]
	m.panel.Reset()
	m.smoother.Reset()
	m.hasDial = false
}

func (m *Model) draw() {
	m.canvas.Clear()
	if m.showCompass && m.hasDial {
		drawDial(m.canvas, compass.NewDial(m.display, m.accuracy))
	}
	drawBody(m.canvas, projection{scale: m.scale}, m.last.Body)
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvas := lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Render(m.canvas.String())
	canvasView := canvasStyle.Render(canvas)

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	if m.running {
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.speedHistory) > 1 {
		chart := asciigraph.Plot(m.speedHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Speed"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(labelStyle.Render("Spin") + SparklineChart(m.spinHistory, 30) + "\n\n")

	b := m.last.Body
	vp := m.sim.Viewport()
	rows := [][2]string{
		{"Frame", fmt.Sprintf("%d", m.sim.FrameIndex())},
		{"Viewport", fmt.Sprintf("%dx%d", vp.Width, vp.Height)},
		{"Position", fmt.Sprintf("%.1f, %.1f", b.Position.X(), b.Position.Y())},
		{"Speed", fmt.Sprintf("%.2f", b.Speed())},
		{"Angle", fmt.Sprintf("%.1f°", b.Angle)},
		{"Spin", fmt.Sprintf("%.2f", b.Spin)},
		{"Walls", m.last.Events.Clamped.String()},
	}
	for _, r := range rows {
		s.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}
	if m.hasDial {
		s.WriteString(labelStyle.Render("Heading") + northStyle().Render(compass.Labels[0]) +
			valueStyle.Render(fmt.Sprintf(" %.0f° ±%.0f", compass.Normalize(m.heading), m.accuracy)) + "\n")
	}

	if lines := m.panel.Lines(); len(lines) > 0 {
		s.WriteString("\n" + Separator(panelWidth-6) + "\n")
		for _, l := range lines {
			s.WriteString(readoutStyle().Render(l) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nC:Compass T:Theme ?:Help\n←↑↓→/hjkl:Tilt"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Re-center the ball       ║
║  Q        - Quit                     ║
║  Arrows   - Tilt (also h/j/k/l)      ║
║  C        - Toggle compass           ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run starts the program full screen and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	m.cancel()
	return err
}

