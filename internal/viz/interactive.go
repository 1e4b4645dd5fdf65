package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	stateMenu = iota
	stateSim
)

// Choice is one entry of the preset menu.
type Choice struct {
	Name string
	Info string
}

// BuildFunc creates the live model for a chosen preset.
type BuildFunc func(name string) (Model, error)

type picker struct {
	state, cursor int
	choices       []Choice
	build         BuildFunc
	err           error
	size          *tea.WindowSizeMsg
	liveModel     Model
}

func NewPicker(choices []Choice, build BuildFunc) tea.Model {
	return picker{choices: choices, build: build}
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		next, cmd := m.liveModel.Update(msg)
		m.liveModel = next.(Model)
		return m, cmd
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.menuKey(msg)
	case tea.WindowSizeMsg:
		m.size = &msg
	}
	return m, nil
}

func (m picker) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.choices) == 0 {
			return m, nil
		}
		return m.start()
	}
	return m, nil
}

func (m picker) start() (tea.Model, tea.Cmd) {
	live, err := m.build(m.choices[m.cursor].Name)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	if m.size != nil {
		next, _ := live.Update(*m.size)
		live = next.(Model)
	}
	m.liveModel = live
	m.state = stateSim
	return m, m.liveModel.Init()
}

func (m picker) View() string {
	if m.state == stateSim {
		return m.liveModel.View()
	}

	var b strings.Builder
	h, sub := lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true), lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	b.WriteString("\n\n    " + h.Render("TILTBALL") + "\n    " + sub.Render("tilt to roll") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, c := range m.choices {
		desc := c.Info
		if len(desc) > 32 {
			desc = desc[:29] + "..."
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true).Render("▸"), lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true).Render(fmt.Sprintf("%-10s", c.Name)), lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color("#555566")).Render(fmt.Sprintf("  %-10s", c.Name)), lipgloss.NewStyle().Foreground(lipgloss.Color("#444455")).Render(desc)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + SparkLow.Render(m.err.Error()) + "\n")
	}
	key, hint := lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true), lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	b.WriteString("\n    " + key.Render("j/k") + hint.Render(" navigate  ") + key.Render("enter") + hint.Render(" start  ") + key.Render("q") + hint.Render(" quit") + "\n")
	return b.String()
}

// RunPicker shows the preset menu full screen, then the chosen live view.
func RunPicker(choices []Choice, build BuildFunc) error {
	final, err := tea.NewProgram(NewPicker(choices, build), tea.WithAltScreen()).Run()
	if p, ok := final.(picker); ok && p.state == stateSim {
		p.liveModel.cancel()
	}
	return err
}
