package controller

import (
	"bytes"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

// writeSummary renders the per-target table and the build outcome. Shared by
// the plain UI and the TUI's final screen.
func writeSummary(w io.Writer, summary *m.RunSummary) {
	if len(summary.Rows) == 0 {
		fmt.Fprintf(w, "No functions selected\n")
		return
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Function", "Line", "Weight", "Translation", "Build", "Note"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT,
	})

	for _, row := range summary.Rows {
		weight := "-"
		if row.Percent > 0 {
			weight = fmt.Sprintf("%.1f%%", row.Percent)
		}
		table.Append([]string{
			row.Name,
			fmt.Sprintf("%d", row.Line),
			weight,
			styleTranslation(row.Translation),
			string(row.Build),
			row.Note,
		})
	}
	table.Render()

	fmt.Fprintf(w, "\n%s\n%s\n", titleStyle.Render("Acceleration summary"), tableBuffer.String())

	if !summary.Validation.Passed && len(summary.Validation.Diagnostics) > 0 {
		fmt.Fprintf(w, "%s\n", failStyle.Render("validation failed:"))
		for _, d := range summary.Validation.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	if summary.Build.Status == m.BuildFailed {
		fmt.Fprintf(w, "%s\n", failStyle.Render("build failed:"))
		for _, d := range summary.Build.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	if summary.Build.Status == m.BuildSucceeded {
		fmt.Fprintf(w, "Installed %s\n", summary.Build.InstallPath)
	}
	if summary.BenchSecondsPerRun > 0 {
		fmt.Fprintf(w, "Interpreter baseline: %.6fs per run\n", summary.BenchSecondsPerRun)
	}
	if summary.Fallbacks > 0 {
		fmt.Fprintf(w, "%s\n", fallbackStyle.Render(
			fmt.Sprintf("%d function(s) fell back to the interpreter", summary.Fallbacks)))
	}
}

// writeHotspots renders the profile-only table for the list subcommand.
func writeHotspots(w io.Writer, records []m.HotspotRecord) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No hotspots recorded\n")
		return
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Function", "Line", "Weight", "Calls"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	for _, rec := range records {
		table.Append([]string{
			rec.Name,
			fmt.Sprintf("%d", rec.StartLine),
			fmt.Sprintf("%.1f%%", rec.Percent),
			fmt.Sprintf("%d", rec.Calls),
		})
	}
	table.Render()

	fmt.Fprintf(w, "\n%s\n%s\n", titleStyle.Render("Hotspots"), tableBuffer.String())
}

func styleTranslation(status m.TranslationStatus) string {
	switch status {
	case m.StatusFull:
		return fullStyle.Render(string(status))
	case m.StatusFallback:
		return fallbackStyle.Render(string(status))
	default:
		return string(status)
	}
}
