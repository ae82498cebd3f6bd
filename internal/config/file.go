package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"sosgibs/internal/app"
)

// File mirrors the optional TOML configuration file.
type File struct {
	ShortName  string   `toml:"short_name"`
	LongName   string   `toml:"long_name"`
	OutputDir  string   `toml:"output_dir"`
	Layers     []string `toml:"layers"`
	Resolution int      `toml:"resolution"`
	Threads    int      `toml:"threads"`
	Service    Service  `toml:"service"`
}

// Service configures the tile service and request policy.
type Service struct {
	BaseURL          string `toml:"base_url"`
	UserAgent        string `toml:"user_agent"`
	WidthPerUnit     int    `toml:"width_per_unit"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	Retries          *int   `toml:"retries"`
	RetryBaseDelayMS int    `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS  int    `toml:"retry_max_delay_ms"`
}

// LoadFile reads and decodes a TOML configuration file. Unknown keys are rejected.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var file File
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return file, nil
}

func (s Service) withDefaults() Service {
	if strings.TrimSpace(s.BaseURL) == "" {
		s.BaseURL = app.DefaultBaseURL
	}
	if strings.TrimSpace(s.UserAgent) == "" {
		s.UserAgent = defaultUserAgent
	}
	if s.WidthPerUnit == 0 {
		s.WidthPerUnit = app.DefaultWidthPerUnit
	}
	if s.TimeoutSeconds == 0 {
		s.TimeoutSeconds = int(app.DefaultTimeout.Seconds())
	}
	if s.Retries == nil {
		retries := app.DefaultRetries
		s.Retries = &retries
	}
	if s.RetryBaseDelayMS == 0 {
		s.RetryBaseDelayMS = int(app.DefaultRetryBaseDelay.Milliseconds())
	}
	if s.RetryMaxDelayMS == 0 {
		s.RetryMaxDelayMS = int(app.DefaultRetryMaxDelay.Milliseconds())
	}
	return s
}

// Sample renders a File populated with defaults, used by `sosgibs config init`.
func Sample() (string, error) {
	service := Service{}.withDefaults()
	data, err := toml.Marshal(File{
		ShortName:  defaultShortName,
		LongName:   defaultLongName,
		OutputDir:  "output/" + defaultShortName,
		Layers:     []string{"MODIS_Terra_CorrectedReflectance_TrueColor"},
		Resolution: defaultResolution,
		Threads:    defaultThreads,
		Service:    service,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
