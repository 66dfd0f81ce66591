package controller

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	fullStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	fallbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	stageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start() error {
	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close() {

}

// Progress prints one line per stage transition.
func (s *SimpleUI) Progress(stage, detail string) {
	s.printf("%s %s\n", stageStyle.Render(stage+":"), detail)
}

// DisplaySummary prints one table row per selected target plus the build
// outcome.
func (s *SimpleUI) DisplaySummary(summary *m.RunSummary) error {
	writeSummary(s.cmd.OutOrStdout(), summary)
	return nil
}

// DisplayHotspots prints the profile-only table for the list subcommand.
func (s *SimpleUI) DisplayHotspots(records []m.HotspotRecord) error {
	writeHotspots(s.cmd.OutOrStdout(), records)
	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
