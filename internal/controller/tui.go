package controller

import (
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

// TUI implements UI using Bubble Tea: a spinner with a running stage log
// while the run is live, then the plain summary once it finishes.
type TUI struct {
	output io.Writer
	prog   *tea.Program
	done   chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output, done: make(chan struct{})}
}

// Start launches the progress program in the background.
func (t *TUI) Start() error {
	t.prog = tea.NewProgram(newProgressModel(), tea.WithOutput(t.output))
	go func() {
		_, _ = t.prog.Run()
		close(t.done)
	}()
	return nil
}

// Close tears the program down if it is still running.
func (t *TUI) Close() {
	if t.prog != nil {
		t.prog.Send(finishMsg{})
		<-t.done
		t.prog = nil
	}
}

// Progress feeds a stage transition into the running model.
func (t *TUI) Progress(stage, detail string) {
	if t.prog != nil {
		t.prog.Send(stageMsg{stage: stage, detail: detail})
	}
}

// DisplaySummary stops the live view and prints the final tables.
func (t *TUI) DisplaySummary(summary *m.RunSummary) error {
	t.Close()
	writeSummary(t.output, summary)
	return nil
}

// DisplayHotspots stops the live view and prints the hotspot table.
func (t *TUI) DisplayHotspots(records []m.HotspotRecord) error {
	t.Close()
	writeHotspots(t.output, records)
	return nil
}

type stageMsg struct {
	stage  string
	detail string
}

type finishMsg struct{}

type progressModel struct {
	spin   spinner.Model
	stages []stageMsg
	done   bool
}

func newProgressModel() progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	return progressModel{spin: sp}
}

func (pm progressModel) Init() tea.Cmd {
	return pm.spin.Tick
}

func (pm progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stageMsg:
		pm.stages = append(pm.stages, msg)
		return pm, nil
	case finishMsg:
		pm.done = true
		return pm, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			pm.done = true
			return pm, tea.Quit
		}
		return pm, nil
	default:
		var cmd tea.Cmd
		pm.spin, cmd = pm.spin.Update(msg)
		return pm, cmd
	}
}

func (pm progressModel) View() string {
	if pm.done {
		return ""
	}
	out := ""
	for i, st := range pm.stages {
		if i == len(pm.stages)-1 {
			out += pm.spin.View() + " " + st.stage + ": " + st.detail + "\n"
			continue
		}
		out += stageStyle.Render("✓ "+st.stage+": "+st.detail) + "\n"
	}
	return out
}
