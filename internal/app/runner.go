package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"sosgibs/internal/domain"
	appErrors "sosgibs/internal/errors"
	"sosgibs/internal/logging"
)

// Options carries the tunables of a run that are not part of the bundle itself.
type Options struct {
	BaseURL      string
	WidthPerUnit int
	Concurrency  int
	Timeout      time.Duration
	Retry        RetryPolicy
	Playlist     PlaylistSettings
}

// Report is what a run produced. Outcomes line up with Dates.
type Report struct {
	Dates    []time.Time
	Outcomes []domain.FetchOutcome
	Summary  domain.Summary
}

// Runner wires date expansion, request building, fetching and descriptor writing.
type Runner struct {
	FS        FileSystem
	Fetcher   Fetcher
	Logger    logging.Logger
	Options   Options
	OnOutcome OutcomeFunc
	Sleep     func(ctx context.Context, d time.Duration) error
}

// Plan validates the inputs and builds the jobs without touching the network
// or the filesystem.
func (r *Runner) Plan(cfg domain.BundleConfig, dateRange domain.DateRange) ([]time.Time, []domain.FetchJob, error) {
	layers := nonEmpty(cfg.Layers)
	if len(layers) == 0 {
		return nil, nil, appErrors.Wrap(appErrors.InvalidConfig, "plan", "", appErrors.ErrNoLayers)
	}
	dates, err := ExpandDates(dateRange)
	if err != nil {
		return nil, nil, err
	}
	builder := RequestBuilder{
		BaseURL:      r.Options.BaseURL,
		WidthPerUnit: r.Options.WidthPerUnit,
		Bundle:       cfg,
	}
	jobs, err := builder.BuildAll(layers, cfg.Resolution, dates)
	if err != nil {
		return nil, nil, err
	}
	r.Logger.Verbosef("Planned %d requests from %s to %s", len(jobs), dates[len(dates)-1].Format(domain.ISODate), dates[0].Format(domain.ISODate))
	return dates, jobs, nil
}

// Existing reports, per job, whether its image is already on disk. It only
// reads the filesystem.
func (r *Runner) Existing(jobs []domain.FetchJob) ([]bool, error) {
	existing := make([]bool, len(jobs))
	for i, job := range jobs {
		ok, err := r.FS.Exists(job.LocalPath)
		if err != nil {
			return nil, appErrors.Wrap(appErrors.IOFailure, "stat", job.LocalPath, err)
		}
		existing[i] = ok
	}
	return existing, nil
}

// Run fetches every date and always writes the descriptors afterwards, even
// when fetches failed. Only configuration and shared output-directory
// failures are returned as errors.
func (r *Runner) Run(ctx context.Context, cfg domain.BundleConfig, dateRange domain.DateRange) (Report, error) {
	if r.FS == nil || r.Fetcher == nil {
		return Report{}, errors.New("runner requires FS and Fetcher")
	}

	dates, jobs, err := r.Plan(cfg, dateRange)
	if err != nil {
		return Report{}, err
	}

	if err := r.FS.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Report{}, appErrors.Wrap(appErrors.IOFailure, "mkdir", cfg.OutputDir, err)
	}
	unlock, err := r.FS.Lock(cfg.OutputDir)
	if err != nil {
		if errors.Is(err, appErrors.ErrLocked) {
			return Report{}, appErrors.Wrap(appErrors.Locked, "lock", cfg.OutputDir, err)
		}
		return Report{}, appErrors.Wrap(appErrors.IOFailure, "lock", cfg.OutputDir, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			r.Logger.Verbosef("Releasing lock on %s failed: %v", cfg.OutputDir, err)
		}
	}()
	if err := r.FS.MkdirAll(cfg.ImageDir(), 0o755); err != nil {
		return Report{}, appErrors.Wrap(appErrors.IOFailure, "mkdir", cfg.ImageDir(), err)
	}

	pool := FetchPool{
		Fetcher:     r.Fetcher,
		FS:          r.FS,
		Logger:      r.Logger,
		Concurrency: r.Options.Concurrency,
		Timeout:     r.Options.Timeout,
		Retry:       r.Options.Retry,
		OnOutcome:   r.OnOutcome,
		Sleep:       r.Sleep,
	}
	outcomes := pool.Run(ctx, jobs)
	report := Report{
		Dates:    dates,
		Outcomes: outcomes,
		Summary:  domain.Summarize(outcomes),
	}

	writer := BundleWriter{FS: r.FS, Playlist: r.playlist()}
	if err := writer.Write(cfg, dates); err != nil {
		return report, err
	}
	r.Logger.Verbosef("Wrote descriptors to %s", cfg.OutputDir)
	return report, nil
}

func (r *Runner) playlist() PlaylistSettings {
	if r.Options.Playlist == (PlaylistSettings{}) {
		return DefaultPlaylist()
	}
	return r.Options.Playlist
}

// nonEmpty trims each value and drops blanks, keeping order.
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
