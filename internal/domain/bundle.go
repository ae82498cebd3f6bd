package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// BundleConfig describes the bundle being produced. Layers are in visual stacking order.
type BundleConfig struct {
	ShortName  string
	LongName   string
	Layers     []string
	Resolution int
	OutputDir  string
}

// ImageDir is where per-day images live inside the bundle.
func (c BundleConfig) ImageDir() string {
	return filepath.Join(c.OutputDir, ImageSubdir)
}

// ImageName follows the playback tool's <shortName>.daily.<YYYYMMDD>.color.png scheme.
func (c BundleConfig) ImageName(date time.Time) string {
	return fmt.Sprintf("%s.daily.%s.color.png", c.ShortName, date.Format(CompactDate))
}

func (c BundleConfig) PlaylistName() string {
	return fmt.Sprintf("playlist.%s.daily.sos", c.ShortName)
}

func (c BundleConfig) AboutName() string {
	return fmt.Sprintf("About_%s.txt", c.ShortName)
}

const (
	ImageSubdir = "Images/Color/Daily"
	LabelsName  = "labels.txt"
)
