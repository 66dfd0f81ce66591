// Package controller renders run progress and summaries to the terminal.
package controller

import (
	m "github.com/hotpath-dev/hotpath/internal/model"
)

// UI is the output surface for one run.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start() error
	Close()
	Progress(stage, detail string)
	DisplaySummary(summary *m.RunSummary) error
	DisplayHotspots(records []m.HotspotRecord) error
}
