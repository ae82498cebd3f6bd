package main

import (
	"context"
	"io"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"sosgibs/internal/app"
	"sosgibs/internal/config"
	"sosgibs/internal/domain"
	appErrors "sosgibs/internal/errors"
	"sosgibs/internal/infra/fs"
	"sosgibs/internal/infra/wms"
	"sosgibs/internal/logging"
	"sosgibs/internal/presentation"
	"sosgibs/internal/tui"
)

func runBundle(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	interactive := cfg.TUI && !cfg.DryRun && isTerminal(stdout)

	logger := logging.New(stderr, cfg.Verbose && !interactive)
	runner := &app.Runner{
		FS: fs.OSFS{},
		Fetcher: wms.Client{
			HTTP:      &http.Client{},
			UserAgent: cfg.UserAgent,
		},
		Logger:  logger,
		Options: cfg.Options,
	}
	printer := presentation.Printer{Writer: stdout, Verbose: cfg.Verbose}

	if cfg.DryRun {
		dates, jobs, err := runner.Plan(cfg.Bundle, cfg.Range)
		if err != nil {
			return &exitCodeError{code: exitCodeFor(err), err: err}
		}
		existing, err := runner.Existing(jobs)
		if err != nil {
			return &exitCodeError{code: exitCodeFor(err), err: err}
		}
		printer.PrintDryRun(cfg.Bundle, dates, jobs, existing)
		return nil
	}

	var (
		report app.Report
		err    error
	)
	if interactive {
		report, err = runInteractive(ctx, runner, cfg)
	} else {
		report, err = runner.Run(ctx, cfg.Bundle, cfg.Range)
	}

	if len(report.Outcomes) > 0 {
		printer.PrintReport(cfg.Bundle, report)
	}
	if err != nil {
		return &exitCodeError{code: exitCodeFor(err), err: err}
	}
	if code := report.Summary.ExitCode(); code != domain.ExitOK {
		return &exitCodeError{code: code}
	}
	return nil
}

// runInteractive drives the run from a goroutine and feeds progress into the TUI.
func runInteractive(ctx context.Context, runner *app.Runner, cfg config.Config) (app.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewModel(tui.Config{
		ShortName: cfg.Bundle.ShortName,
		OutputDir: cfg.Bundle.OutputDir,
		Layers:    cfg.Bundle.Layers,
		Total:     cfg.Range.Days(),
		Cancel:    cancel,
	})
	program := tea.NewProgram(model)

	runner.OnOutcome = func(done, total int, outcome domain.FetchOutcome) {
		program.Send(tui.FetchProgressMsg{Current: done, Total: total, Outcome: outcome})
	}

	type result struct {
		report app.Report
		err    error
	}
	finished := make(chan result, 1)
	go func() {
		report, err := runner.Run(ctx, cfg.Bundle, cfg.Range)
		if err != nil {
			program.Send(tui.ErrorMsg{Err: err})
		} else {
			program.Send(tui.RunDoneMsg{Report: report})
		}
		finished <- result{report: report, err: err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		res := <-finished
		if res.err != nil {
			return res.report, res.err
		}
		return res.report, appErrors.Wrap(appErrors.Internal, "tui", "", err)
	}
	res := <-finished
	return res.report, res.err
}

func exitCodeFor(err error) int {
	if appErrors.IsConfig(err) {
		return domain.ExitConfig
	}
	return domain.ExitInternal
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
