// Package report renders task snapshots into files a user can keep.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/stats"
	"github.com/harrisonrobin/taskboard/pkg/store"
	"github.com/harrisonrobin/taskboard/pkg/util"
	"github.com/jung-kurt/gofpdf"
)

// Formats lists what Export accepts.
var Formats = []string{"json", "csv", "pdf"}

type Exporter struct {
	Title string
}

func NewExporter(title string) *Exporter {
	if title == "" {
		title = "Tasks"
	}
	return &Exporter{Title: title}
}

// Export renders tasks in format. Tracked time includes running timers as of now.
func (e *Exporter) Export(tasks []model.Task, now time.Time, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return store.Encode(tasks)
	case "csv":
		return e.csv(tasks, now)
	case "pdf":
		return e.pdf(tasks, now)
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

var csvHeader = []string{
	"id", "title", "status", "priority", "project", "tags", "due_date",
	"scheduled_at", "duration_minutes", "tracked_seconds", "pomodoro_sessions",
	"postponed_count", "subtasks", "created_at", "updated_at",
}

func (e *Exporter) csv(tasks []model.Task, now time.Time) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		duration := ""
		if t.IsScheduled() {
			duration = strconv.Itoa(t.DurationMinutes)
		}
		row := []string{
			t.ID,
			t.Title,
			string(t.Status),
			string(t.Priority),
			t.Project,
			strings.Join(t.Tags, ";"),
			optionalTime(t.DueDate),
			optionalTime(t.ScheduledAt),
			duration,
			strconv.FormatInt(t.TrackedSecondsAt(now), 10),
			strconv.Itoa(t.PomodoroSessions),
			strconv.Itoa(t.PostponedCount),
			fmt.Sprintf("%d/%d", t.CompletedSubtasks(), len(t.Subtasks)),
			t.CreatedAt.UTC().Format(time.RFC3339),
			t.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// column widths in mm for the A4 task table
var pdfColumns = []struct {
	header string
	width  float64
}{
	{"Title", 70}, {"Status", 25}, {"Priority", 20}, {"Due", 30}, {"Tracked", 20}, {"Project", 25},
}

func (e *Exporter) pdf(tasks []model.Task, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, tr(e.Title))
	pdf.Ln(10)

	sum := stats.Summarize(tasks, now)
	a := stats.Analyze(tasks, now)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, tr(fmt.Sprintf(
		"%s - %d tasks: %d to do, %d in progress, %d completed, %d overdue. Completion %d%%, tracked %s.",
		now.Format("2006-01-02 15:04"), sum.Total, sum.Todo, sum.InProgress, sum.Completed, sum.Overdue,
		a.CompletionRate, util.FormatSeconds(a.TrackedSeconds),
	)), "0", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 7, c.header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.In(now.Location()).Format("2006-01-02")
		}
		cells := []string{
			truncate(t.Title, 40),
			string(t.Status),
			string(t.Priority),
			due,
			util.FormatSeconds(t.TrackedSecondsAt(now)),
			truncate(t.Project, 14),
		}
		for i, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, tr(cells[i]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
