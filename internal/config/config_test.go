package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sosgibs/internal/app"
	appErrors "sosgibs/internal/errors"
)

var fixedNow = time.Date(2024, 10, 2, 15, 1, 0, 0, time.UTC)

func setFlags(names ...string) func(string) bool {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SOSGIBS_CONFIG", "SOSGIBS_OUTPUT_DIR", "SOSGIBS_VERBOSE", "SOSGIBS_THREADS"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(Flags{Layers: "Layer1"}, setFlags("layers"), fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Bundle.ShortName != "GIBS" || cfg.Bundle.LongName != "GIBS Test Imagery" {
		t.Fatalf("unexpected names %+v", cfg.Bundle)
	}
	if cfg.Bundle.OutputDir != filepath.Join("output", "GIBS") {
		t.Fatalf("unexpected output dir %s", cfg.Bundle.OutputDir)
	}
	if cfg.Bundle.Resolution != 4 || cfg.Options.Concurrency != 1 {
		t.Fatalf("unexpected resolution/threads %d/%d", cfg.Bundle.Resolution, cfg.Options.Concurrency)
	}
	if cfg.Options.Timeout != 90*time.Second || cfg.Options.Retry.Retries != app.DefaultRetries {
		t.Fatalf("unexpected request policy %+v", cfg.Options)
	}
	if cfg.Options.BaseURL != app.DefaultBaseURL || cfg.Options.WidthPerUnit != 1024 {
		t.Fatalf("unexpected service %+v", cfg.Options)
	}
	want := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	if !cfg.Range.Start.Equal(want) || !cfg.Range.End.Equal(want) {
		t.Fatalf("expected yesterday as default range, got %v..%v", cfg.Range.Start, cfg.Range.End)
	}
}

func TestLoadTrimsLayersAndKeepsOrder(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(Flags{Layers: " B , A,, C "}, setFlags("layers"), fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(cfg.Bundle.Layers, "|") != "B|A|C" {
		t.Fatalf("unexpected layers %v", cfg.Bundle.Layers)
	}
}

func TestLoadRejectsInvalidInput(t *testing.T) {
	clearEnv(t)
	cases := []struct {
		name  string
		flags Flags
		set   []string
		is    error
	}{
		{"missing layers", Flags{}, nil, appErrors.ErrNoLayers},
		{"blank layers", Flags{Layers: " , "}, []string{"layers"}, appErrors.ErrNoLayers},
		{"zero resolution", Flags{Layers: "L", Resolution: 0}, []string{"layers", "resolution"}, appErrors.ErrInvalidResolution},
		{"inverted range", Flags{Layers: "L", StartDate: "2020-01-03", EndDate: "2020-01-01"}, []string{"layers"}, appErrors.ErrInvalidRange},
		{"start only", Flags{Layers: "L", StartDate: "2020-01-03"}, []string{"layers"}, nil},
		{"bad date", Flags{Layers: "L", StartDate: "2020-1-3", EndDate: "2020-01-04"}, []string{"layers"}, nil},
		{"zero threads", Flags{Layers: "L", Threads: 0}, []string{"layers", "threads"}, nil},
		{"negative retries", Flags{Layers: "L", Retries: -1}, []string{"layers", "retries"}, nil},
		{"zero timeout", Flags{Layers: "L"}, []string{"layers", "timeout"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.flags, setFlags(tc.set...), fixedNow)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected %v, got %v", tc.is, err)
			}
		})
	}
}

func TestLoadParsesDateRange(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(Flags{Layers: "L", StartDate: "2020-01-01", EndDate: "2020-01-03"}, setFlags("layers"), fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Range.Days() != 3 {
		t.Fatalf("expected 3 days, got %d", cfg.Range.Days())
	}
}

func TestLoadFilePrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sosgibs.toml")
	content := `
short_name = "SST"
long_name = "Sea Surface Temperature"
layers = ["GHRSST_L4_MUR_Sea_Surface_Temperature", "Coastlines"]
resolution = 2
threads = 4

[service]
base_url = "http://localhost:9000/wms"
width_per_unit = 512
timeout_seconds = 30
retries = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(Flags{ConfigPath: path, Threads: 8}, setFlags("threads"), fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bundle.ShortName != "SST" || cfg.Bundle.OutputDir != filepath.Join("output", "SST") {
		t.Fatalf("unexpected bundle %+v", cfg.Bundle)
	}
	if len(cfg.Bundle.Layers) != 2 || cfg.Bundle.Resolution != 2 {
		t.Fatalf("file values not applied: %+v", cfg.Bundle)
	}
	if cfg.Options.Concurrency != 8 {
		t.Fatalf("flag must override file threads, got %d", cfg.Options.Concurrency)
	}
	if cfg.Options.Retry.Retries != 0 {
		t.Fatalf("explicit zero retries must be kept, got %d", cfg.Options.Retry.Retries)
	}
	if cfg.Options.Timeout != 30*time.Second || cfg.Options.WidthPerUnit != 512 {
		t.Fatalf("unexpected service options %+v", cfg.Options)
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOSGIBS_OUTPUT_DIR", "/data/bundles/gibs")
	t.Setenv("SOSGIBS_VERBOSE", "yes")
	t.Setenv("SOSGIBS_THREADS", "3")

	cfg, err := Load(Flags{Layers: "L"}, setFlags("layers"), fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bundle.OutputDir != "/data/bundles/gibs" || !cfg.Verbose || cfg.Options.Concurrency != 3 {
		t.Fatalf("environment not applied: %+v", cfg)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("layerz = [\"x\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestSampleRoundTrips(t *testing.T) {
	sample, err := Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	file, err := LoadFile(path)
	if err != nil {
		t.Fatalf("sample does not parse: %v", err)
	}
	if file.ShortName != "GIBS" || file.Service.Retries == nil || *file.Service.Retries != app.DefaultRetries {
		t.Fatalf("unexpected sample %+v", file)
	}
}
