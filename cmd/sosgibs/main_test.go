package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"sosgibs/internal/domain"
)

var fixedNow = func() time.Time { return time.Date(2024, 10, 2, 12, 0, 0, 0, time.UTC) }

// newService answers 200 with ten bytes unless the TIME parameter is listed in reject.
func newService(t *testing.T, reject ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	rejected := map[string]bool{}
	for _, r := range reject {
		rejected[r] = true
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if rejected[r.URL.Query().Get("TIME")] || rejected["*"] {
			http.Error(w, "InvalidDimensionValue", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("0123456789"))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	for _, key := range []string{"SOSGIBS_CONFIG", "SOSGIBS_OUTPUT_DIR", "SOSGIBS_VERBOSE", "SOSGIBS_THREADS"} {
		t.Setenv(key, "")
	}
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr, fixedNow)
	return code, stdout.String(), stderr.String()
}

func TestExecuteFullSuccess(t *testing.T) {
	server, hits := newService(t)
	out := filepath.Join(t.TempDir(), "GIBS")

	code, stdout, stderr := run(t,
		"--layers", "Layer1",
		"--start-date", "2020-01-01", "--end-date", "2020-01-03",
		"--resolution", "4", "--threads", "2",
		"--output-dir", out, "--service-url", server.URL+"/wms.cgi",
	)
	if code != domain.ExitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 requests, got %d", hits.Load())
	}
	if !strings.Contains(stdout, "Summary: 3 succeeded, 0 transient failures, 0 permanent failures.") {
		t.Fatalf("missing summary line:\n%s", stdout)
	}
	labels, err := os.ReadFile(filepath.Join(out, "labels.txt"))
	if err != nil {
		t.Fatalf("read labels: %v", err)
	}
	if string(labels) != "2020-01-03\n2020-01-02\n2020-01-01\n" {
		t.Fatalf("unexpected labels %q", labels)
	}
	if _, err := os.Stat(filepath.Join(out, "Images", "Color", "Daily", "GIBS.daily.20200102.color.png")); err != nil {
		t.Fatalf("expected image: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, ".sosgibs.lock")); !os.IsNotExist(err) {
		t.Fatalf("lock file must not be part of the bundle")
	}
}

func TestExecuteInvalidRangeExitsBeforeNetwork(t *testing.T) {
	server, hits := newService(t)
	out := filepath.Join(t.TempDir(), "GIBS")

	code, _, stderr := run(t,
		"-l", "Layer1", "-s", "2020-01-03", "-e", "2020-01-01",
		"-o", out, "--service-url", server.URL,
	)
	if code != domain.ExitConfig {
		t.Fatalf("expected exit %d, got %d", domain.ExitConfig, code)
	}
	if !strings.Contains(stderr, "Invalid configuration") {
		t.Fatalf("expected configuration message, got %q", stderr)
	}
	if hits.Load() != 0 {
		t.Fatalf("no request may be made, got %d", hits.Load())
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output directory must not be created")
	}
}

func TestExecuteMissingLayers(t *testing.T) {
	code, _, stderr := run(t, "-s", "2020-01-01", "-e", "2020-01-02", "-o", t.TempDir())
	if code != domain.ExitConfig {
		t.Fatalf("expected exit %d, got %d", domain.ExitConfig, code)
	}
	if !strings.Contains(stderr, "layers must be provided") {
		t.Fatalf("unexpected message %q", stderr)
	}
}

func TestExecuteUnknownFlagIsConfigError(t *testing.T) {
	code, _, _ := run(t, "--bogus")
	if code != domain.ExitConfig {
		t.Fatalf("expected exit %d, got %d", domain.ExitConfig, code)
	}
}

func TestExecutePartialFailure(t *testing.T) {
	server, _ := newService(t, "2020-01-02")
	out := filepath.Join(t.TempDir(), "GIBS")

	code, stdout, _ := run(t,
		"-l", "Layer1", "-s", "2020-01-01", "-e", "2020-01-03",
		"-o", out, "--service-url", server.URL, "-t", "3",
	)
	if code != domain.ExitPartialFailed {
		t.Fatalf("expected exit %d, got %d", domain.ExitPartialFailed, code)
	}
	if !strings.Contains(stdout, "2020-01-02  permanent failure") {
		t.Fatalf("expected failed date in output:\n%s", stdout)
	}
	entries, _ := os.ReadDir(filepath.Join(out, "Images", "Color", "Daily"))
	if len(entries) != 2 {
		t.Fatalf("expected 2 images, got %d", len(entries))
	}
}

func TestExecuteTotalFailure(t *testing.T) {
	server, _ := newService(t, "*")
	out := filepath.Join(t.TempDir(), "GIBS")

	code, _, _ := run(t,
		"-l", "Layer1", "-s", "2020-01-01", "-e", "2020-01-02",
		"-o", out, "--service-url", server.URL,
	)
	if code != domain.ExitAllFailed {
		t.Fatalf("expected exit %d, got %d", domain.ExitAllFailed, code)
	}
	if _, err := os.Stat(filepath.Join(out, "playlist.GIBS.daily.sos")); err != nil {
		t.Fatalf("descriptors must be written on total failure: %v", err)
	}
}

func TestExecuteDryRunHasNoSideEffects(t *testing.T) {
	server, hits := newService(t)
	out := filepath.Join(t.TempDir(), "GIBS")

	code, stdout, _ := run(t,
		"-l", "Layer1", "-s", "2020-01-01", "-e", "2020-01-10",
		"-o", out, "--service-url", server.URL, "--dry-run",
	)
	if code != domain.ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if hits.Load() != 0 {
		t.Fatalf("dry run must not fetch")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the output directory")
	}
	if !strings.Contains(stdout, "Would fetch 10 images from 2020-01-01 until 2020-01-10") {
		t.Fatalf("unexpected dry run output:\n%s", stdout)
	}
}

func TestExecuteDryRunMarksExistingImages(t *testing.T) {
	server, hits := newService(t)
	out := filepath.Join(t.TempDir(), "GIBS")
	args := []string{"-l", "Layer1", "-s", "2020-01-01", "-e", "2020-01-02", "-o", out, "--service-url", server.URL}

	if code, _, stderr := run(t, args...); code != domain.ExitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	fetched := hits.Load()

	code, stdout, _ := run(t, append(args, "--dry-run")...)
	if code != domain.ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if hits.Load() != fetched {
		t.Fatalf("dry run must not fetch")
	}
	if strings.Count(stdout, "(exists)") != 2 || !strings.Contains(stdout, "2 of them already exist") {
		t.Fatalf("expected both images marked as existing:\n%s", stdout)
	}
}

func TestExecuteVerbosePrintsAttempts(t *testing.T) {
	server, _ := newService(t)
	out := filepath.Join(t.TempDir(), "GIBS")

	code, _, stderr := run(t,
		"-l", "Layer1", "-s", "2020-01-01", "-e", "2020-01-02",
		"-o", out, "--service-url", server.URL, "-v",
	)
	if code != domain.ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if n := strings.Count(stderr, "Downloading "); n != 2 {
		t.Fatalf("expected one line per attempt, got %d:\n%s", n, stderr)
	}
}

func TestConfigInitPrintsSample(t *testing.T) {
	code, stdout, _ := run(t, "config", "init")
	if code != domain.ExitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(stdout, "short_name = 'GIBS'") && !strings.Contains(stdout, `short_name = "GIBS"`) {
		t.Fatalf("unexpected sample:\n%s", stdout)
	}
}
