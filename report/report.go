package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"urbania_scraper/models"
)

var (
	PrimaryColor = lipgloss.Color("#7C3AED")
	SuccessColor = lipgloss.Color("#22C55E")
	WarningColor = lipgloss.Color("#EAB308")
	ErrorColor   = lipgloss.Color("#EF4444")
	MutedColor   = lipgloss.Color("#6B7280")

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		Padding(0, 1)

	Muted = lipgloss.NewStyle().Foreground(MutedColor)

	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	TableCell = lipgloss.NewStyle().
			Padding(0, 1)

	StatusSuccess = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusError   = lipgloss.NewStyle().Foreground(ErrorColor)
	StatusPending = lipgloss.NewStyle().Foreground(WarningColor)
)

var runColumns = []string{"BATCH", "STARTED", "DURATION", "STATUS", "TARGETS", "LINKS", "RECORDS", "SKIPPED", "FAILED"}

// Runs renders batch summaries as a table, newest first as given.
func Runs(runs []models.ScrapeRun) string {
	if len(runs) == 0 {
		return Muted.Render("No runs recorded yet.")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(MutedColor)).
		Headers(runColumns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeader
			}
			return TableCell
		})

	for _, r := range runs {
		t.Row(
			r.BatchID,
			r.StartedAt.Format(models.TimestampLayout),
			duration(r),
			statusStyle(r.Status).Render(string(r.Status)),
			strconv.Itoa(r.Targets),
			strconv.Itoa(r.LinksFound),
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Failed+r.FetchFailures),
		)
	}

	return Title.Render(fmt.Sprintf("Recent runs (%d)", len(runs))) + "\n" + t.Render()
}

func statusStyle(status models.RunStatus) lipgloss.Style {
	switch status {
	case models.RunStatusCompleted:
		return StatusSuccess
	case models.RunStatusFailed:
		return StatusError
	default:
		return StatusPending
	}
}

func duration(r models.ScrapeRun) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}
