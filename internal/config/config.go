package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sosgibs/internal/app"
	"sosgibs/internal/domain"
	appErrors "sosgibs/internal/errors"
)

const (
	defaultShortName  = "GIBS"
	defaultLongName   = "GIBS Test Imagery"
	defaultResolution = 4
	defaultThreads    = 1
	defaultUserAgent  = "sosgibs"
)

// Flags holds the raw command-line values. Only flags reported as set by the
// caller override the file and environment.
type Flags struct {
	ConfigPath string
	Layers     string
	StartDate  string
	EndDate    string
	Resolution int
	Threads    int
	Verbose    bool
	OutputDir  string
	ShortName  string
	LongName   string
	ServiceURL string
	Timeout    time.Duration
	Retries    int
	DryRun     bool
	TUI        bool
}

// Config is the validated configuration for one run.
type Config struct {
	Bundle    domain.BundleConfig
	Range     domain.DateRange
	Options   app.Options
	UserAgent string
	Verbose   bool
	DryRun    bool
	TUI       bool
}

// Load resolves defaults, the optional TOML file, the environment and the
// flags, in that order of precedence, and validates the result. now supplies
// the default date when no range is given.
func Load(flags Flags, isSet func(name string) bool, now time.Time) (Config, error) {
	if isSet == nil {
		isSet = func(string) bool { return false }
	}

	file := File{}
	path := flags.ConfigPath
	if path == "" {
		path = envOrEmpty("SOSGIBS_CONFIG")
	}
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		file = loaded
	}

	shortName := firstNonEmpty(pick(isSet("short-name"), flags.ShortName), file.ShortName, defaultShortName)
	longName := firstNonEmpty(pick(isSet("long-name"), flags.LongName), file.LongName, defaultLongName)
	outputDir := firstNonEmpty(
		pick(isSet("output-dir"), flags.OutputDir),
		envOrEmpty("SOSGIBS_OUTPUT_DIR"),
		file.OutputDir,
		filepath.Join("output", shortName),
	)

	layers := file.Layers
	if isSet("layers") {
		layers = splitLayers(flags.Layers)
	}
	layers = trimLayers(layers)
	if len(layers) == 0 {
		return Config{}, appErrors.ErrNoLayers
	}

	resolution := defaultResolution
	if file.Resolution != 0 {
		resolution = file.Resolution
	}
	if isSet("resolution") {
		resolution = flags.Resolution
	}
	if resolution <= 0 {
		return Config{}, fmt.Errorf("%w, got %d", appErrors.ErrInvalidResolution, resolution)
	}

	threads := defaultThreads
	if file.Threads != 0 {
		threads = file.Threads
	}
	if raw := envOrEmpty("SOSGIBS_THREADS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SOSGIBS_THREADS %q", raw)
		}
		threads = parsed
	}
	if isSet("threads") {
		threads = flags.Threads
	}
	if threads <= 0 {
		return Config{}, fmt.Errorf("threads must be a positive integer, got %d", threads)
	}

	dateRange, err := resolveRange(flags.StartDate, flags.EndDate, now)
	if err != nil {
		return Config{}, err
	}

	service := file.Service
	if isSet("service-url") {
		service.BaseURL = strings.TrimSpace(flags.ServiceURL)
	}
	service = service.withDefaults()
	timeout := time.Duration(service.TimeoutSeconds) * time.Second
	if isSet("timeout") {
		timeout = flags.Timeout
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	retries := *service.Retries
	if isSet("retries") {
		retries = flags.Retries
	}
	if retries < 0 {
		return Config{}, fmt.Errorf("retries must not be negative, got %d", retries)
	}
	if service.WidthPerUnit <= 0 || service.WidthPerUnit%2 != 0 {
		return Config{}, fmt.Errorf("width_per_unit must be a positive even number, got %d", service.WidthPerUnit)
	}

	verbose := flags.Verbose || envTruthy("SOSGIBS_VERBOSE")

	return Config{
		Bundle: domain.BundleConfig{
			ShortName:  shortName,
			LongName:   longName,
			Layers:     layers,
			Resolution: resolution,
			OutputDir:  outputDir,
		},
		Range: dateRange,
		Options: app.Options{
			BaseURL:      service.BaseURL,
			WidthPerUnit: service.WidthPerUnit,
			Concurrency:  threads,
			Timeout:      timeout,
			Retry: app.RetryPolicy{
				Retries:   retries,
				BaseDelay: time.Duration(service.RetryBaseDelayMS) * time.Millisecond,
				MaxDelay:  time.Duration(service.RetryMaxDelayMS) * time.Millisecond,
			},
			Playlist: app.DefaultPlaylist(),
		},
		UserAgent: service.UserAgent,
		Verbose:   verbose,
		DryRun:    flags.DryRun,
		TUI:       flags.TUI,
	}, nil
}

// resolveRange requires both bounds or neither. Without bounds the range is
// the most recent complete UTC day.
func resolveRange(start, end string, now time.Time) (domain.DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if (start == "") != (end == "") {
		return domain.DateRange{}, errors.New("if you provide a start or end date, you have to provide both")
	}
	if start == "" {
		yesterday := domain.Day(now.UTC()).AddDate(0, 0, -1)
		return domain.DateRange{Start: yesterday, End: yesterday}, nil
	}

	parsedStart, err := domain.ParseDay(start)
	if err != nil {
		return domain.DateRange{}, errors.New("invalid start date, use YYYY-MM-DD")
	}
	parsedEnd, err := domain.ParseDay(end)
	if err != nil {
		return domain.DateRange{}, errors.New("invalid end date, use YYYY-MM-DD")
	}
	if parsedStart.After(parsedEnd) {
		return domain.DateRange{}, fmt.Errorf("%w (%s > %s)", appErrors.ErrInvalidRange, start, end)
	}
	return domain.DateRange{Start: parsedStart, End: parsedEnd}, nil
}

func splitLayers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func trimLayers(layers []string) []string {
	out := make([]string, 0, len(layers))
	for _, layer := range layers {
		if trimmed := strings.TrimSpace(layer); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func pick(set bool, value string) string {
	if !set {
		return ""
	}
	return strings.TrimSpace(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func envOrEmpty(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envTruthy(key string) bool {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return val == "1" || val == "true" || val == "yes" || val == "y"
}
