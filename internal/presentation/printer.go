package presentation

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"sosgibs/internal/app"
	"sosgibs/internal/domain"
)

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

// PrintDryRun lists the planned requests. existing lines up with jobs and
// marks images already on disk; it may be nil.
func (p Printer) PrintDryRun(cfg domain.BundleConfig, dates []time.Time, jobs []domain.FetchJob, existing []bool) {
	fmt.Fprintln(p.Writer, "Requesting:")
	fmt.Fprintln(p.Writer)

	for _, line := range formatJobLines(jobs, existing, p.Verbose) {
		fmt.Fprintln(p.Writer, line)
	}

	fmt.Fprintln(p.Writer)
	fmt.Fprintf(p.Writer, "Would fetch %d images %s into %s.\n", len(jobs), rangeText(dates), cfg.OutputDir)
	if n := countTrue(existing); n > 0 {
		fmt.Fprintf(p.Writer, "%d of them already exist and would be overwritten.\n", n)
	}
	fmt.Fprintf(p.Writer, "Would write %s, %s and %s.\n", cfg.PlaylistName(), domain.LabelsName, cfg.AboutName())
}

func (p Printer) PrintReport(cfg domain.BundleConfig, report app.Report) {
	failures := failedOutcomes(report.Outcomes)
	if len(failures) > 0 {
		fmt.Fprintln(p.Writer, "Failed:")
		fmt.Fprintln(p.Writer)
		for _, line := range formatFailureLines(failures, p.Verbose) {
			fmt.Fprintln(p.Writer, line)
		}
		fmt.Fprintln(p.Writer)
	}

	fmt.Fprintln(p.Writer, renderSummaryTable(report.Summary))
	fmt.Fprintln(p.Writer)
	p.printSummaryLine(cfg, report)
}

func (p Printer) printSummaryLine(cfg domain.BundleConfig, report app.Report) {
	s := report.Summary
	fmt.Fprintf(p.Writer, "Fetched %d of %d images %s into %s.\n", s.Succeeded, s.Total, rangeText(report.Dates), cfg.OutputDir)
	fmt.Fprintf(p.Writer, "Summary: %d succeeded, %d transient failures, %d permanent failures.\n", s.Succeeded, s.Transient, s.Permanent)
}

func renderSummaryTable(s domain.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Outcome", "Count"})
	tw.AppendRow(table.Row{"Succeeded", strconv.Itoa(s.Succeeded)})
	tw.AppendRow(table.Row{"Transient failures", strconv.Itoa(s.Transient)})
	tw.AppendRow(table.Row{"Permanent failures", strconv.Itoa(s.Permanent)})
	tw.AppendFooter(table.Row{"Bytes written", formatBytes(s.Bytes)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

func formatJobLines(jobs []domain.FetchJob, existing []bool, verbose bool) []string {
	lines := make([]string, 0, len(jobs))
	for i, job := range jobs {
		line := fmt.Sprintf("Fetch %s  %s", job.Date.Format(domain.ISODate), job.LocalPath)
		if i < len(existing) && existing[i] {
			line += "  (exists)"
		}
		if verbose {
			line += "\n      " + job.RequestURL
		}
		lines = append(lines, line)
	}
	return truncate(lines, verbose)
}

func formatFailureLines(outcomes []domain.FetchOutcome, verbose bool) []string {
	lines := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		lines = append(lines, fmt.Sprintf("%s  %s after %d attempt(s): %v", o.Job.Date.Format(domain.ISODate), o.Status, o.Attempts, o.Err))
	}
	return truncate(lines, verbose)
}

// truncate keeps the first and last two lines unless verbose.
func truncate(lines []string, verbose bool) []string {
	if verbose || len(lines) <= 4 {
		return lines
	}
	head := append([]string{}, lines[:2]...)
	tail := lines[len(lines)-2:]
	return append(append(head, "..."), tail...)
}

func countTrue(values []bool) int {
	n := 0
	for _, v := range values {
		if v {
			n++
		}
	}
	return n
}

func failedOutcomes(outcomes []domain.FetchOutcome) []domain.FetchOutcome {
	var failed []domain.FetchOutcome
	for _, o := range outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// rangeText expects dates most recent first.
func rangeText(dates []time.Time) string {
	if len(dates) == 0 {
		return ""
	}
	return fmt.Sprintf("from %s until %s", dates[len(dates)-1].Format(domain.ISODate), dates[0].Format(domain.ISODate))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
