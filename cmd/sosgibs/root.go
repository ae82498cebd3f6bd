package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"sosgibs/internal/config"
	"sosgibs/internal/domain"
	appErrors "sosgibs/internal/errors"
)

// exitCodeError carries the process status out of a command. err is printed
// when set; fetch failures have already been reported by the summary.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer, now func() time.Time) int {
	root := newRootCommand(stdout, stderr, now)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return domain.ExitOK
	}

	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintln(stderr, appErrors.UserMessage(exitErr.err))
		}
		return exitErr.code
	}
	// Flag parsing and argument errors from cobra.
	fmt.Fprintln(stderr, err)
	return domain.ExitConfig
}

func newRootCommand(stdout, stderr io.Writer, now func() time.Time) *cobra.Command {
	var flags config.Flags

	rootCmd := &cobra.Command{
		Use:   "sosgibs",
		Short: "Build a daily animated imagery bundle from a WMS tile service",
		Long: `sosgibs fetches one composited image per day from a WMS tile service and
writes a playback bundle: Images/Color/Daily/*.png, a playlist, labels.txt and an About file.

Exit status: 0 success, 1 internal or output directory failure, 2 configuration error,
3 every image failed, 4 some images failed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags, cmd.Flags().Changed, now())
			if err != nil {
				return &exitCodeError{code: domain.ExitConfig, err: appErrors.Wrap(appErrors.InvalidConfig, "config", "", err)}
			}
			return runBundle(cmd.Context(), cfg, stdout, stderr)
		},
	}

	f := rootCmd.Flags()
	f.StringVarP(&flags.Layers, "layers", "l", "", "Comma separated list of layers, in stacking order")
	f.StringVarP(&flags.StartDate, "start-date", "s", "", "Start date, inclusive (YYYY-MM-DD)")
	f.StringVarP(&flags.EndDate, "end-date", "e", "", "End date, inclusive (YYYY-MM-DD)")
	f.IntVarP(&flags.Resolution, "resolution", "r", 4, "Output resolution scale (width = resolution x 1024)")
	f.IntVarP(&flags.Threads, "threads", "t", 1, "Number of concurrent downloads")
	f.BoolVarP(&flags.Verbose, "verbose", "v", false, "Verbose output")
	f.StringVarP(&flags.ConfigPath, "config", "c", "", "Configuration file path (TOML)")
	f.StringVarP(&flags.OutputDir, "output-dir", "o", "", "Bundle output directory (default output/<short-name>)")
	f.StringVar(&flags.ShortName, "short-name", "GIBS", "Dataset code used in file names")
	f.StringVar(&flags.LongName, "long-name", "GIBS Test Imagery", "Display name written to the playlist")
	f.StringVar(&flags.ServiceURL, "service-url", "", "WMS endpoint (default NASA GIBS)")
	f.DurationVar(&flags.Timeout, "timeout", 90*time.Second, "Timeout for each request attempt")
	f.IntVar(&flags.Retries, "retries", 3, "Retries for each image after a network failure")
	f.BoolVar(&flags.DryRun, "dry-run", false, "Print the planned requests without fetching")
	f.BoolVar(&flags.TUI, "tui", false, "Show an interactive progress view when attached to a terminal")

	rootCmd.AddCommand(newConfigCommand(stdout))
	return rootCmd
}
