package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"ergometry/internal/analysis"
	"ergometry/internal/record"
	"ergometry/internal/store"
)

// RenderSummary renders the per-test console card. chart is appended below
// the metrics when non-empty.
func RenderSummary(s record.Summary, chart string) string {
	var b strings.Builder

	b.WriteString(cardTitleStyle.Render(fmt.Sprintf("Subject %d", s.SubjectID)))
	b.WriteString("\n")

	rows := []string{
		RenderMetric("Birth year", strconv.Itoa(s.BirthYear)),
		RenderMetric("Test power", FormatWatts(s.TestPowerW)),
		RenderMetric("Max heart rate (220-age)", FormatBPM(float64(s.MaxHR))),
		RenderMetric("Peak heart rate", FormatBPM(s.PeakHR)),
		RenderMetric("Mean heart rate", FormatBPM(s.MeanHR)),
		RenderMetric("Heart rate variability", FormatHRV(s.HRV)),
		RenderMetric("Beats", FormatBeats(s.BeatCount)),
		RenderMetric("Test length", FormatDuration(s.DurationS)),
		RenderFlag("Automatic termination", s.AutomaticTermination, ""),
		RenderFlag("Manual termination", s.ManualTermination != "", s.ManualTermination),
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(analysis.TerminationAssessment(s.PeakHR, s.MaxHR)))

	if chart != "" {
		b.WriteString("\n\n")
		b.WriteString(chart)
	}

	return cardStyle.Render(b.String())
}

// BatchRow is one line of the end-of-run table
type BatchRow struct {
	SubjectID int
	Result    *store.TestResult // nil when the test failed
	Err       error
}

// RenderBatchTable writes a table of all processed tests to w
func RenderBatchTable(w io.Writer, rows []BatchRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Subject", "Mean HR", "Peak HR", "HRV", "Length", "Auto", "Manual", "Status"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range rows {
		if r.Result == nil {
			status := "failed"
			if r.Err != nil {
				status = "failed: " + r.Err.Error()
			}
			table.Append([]string{strconv.Itoa(r.SubjectID), "-", "-", "-", "-", "-", "-", status})
			continue
		}
		res := r.Result
		manual := "-"
		if res.ManualTermination != "" {
			manual = res.ManualTermination
		}
		table.Append([]string{
			strconv.Itoa(res.SubjectID),
			FormatBPM(res.AverageHR),
			FormatBPM(res.MaximumHR),
			FormatHRV(res.HRV),
			strconv.Itoa(res.TestLengthS) + " s",
			yesNo(res.AutomaticTermination),
			manual,
			"ok",
		})
	}

	table.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
