package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"sosgibs/internal/domain"
	appErrors "sosgibs/internal/errors"
)

// PlaylistSettings are the fixed playback parameters written to the playlist.
type PlaylistSettings struct {
	Layer         string
	LayerData     string
	FPS           int
	LabelColor    string
	MajorCategory string
	SubCategory   string
	Source        string
	Creator       string
}

func DefaultPlaylist() PlaylistSettings {
	return PlaylistSettings{
		Layer:         "NASA Imagery",
		LayerData:     domain.ImageSubdir,
		FPS:           4,
		LabelColor:    "white",
		MajorCategory: "Site-Custom",
		SubCategory:   "Uncategorized",
		Source:        "NASA Worldview",
		Creator:       "NASA Global Imagery Browse Services",
	}
}

const aboutSourceURL = "https://worldview.earthdata.nasa.gov"

// BundleWriter regenerates the playlist, labels and about files. It describes
// the requested dates, not which of them were fetched successfully.
type BundleWriter struct {
	FS       FileSystem
	Playlist PlaylistSettings
}

func (w BundleWriter) Write(cfg domain.BundleConfig, dates []time.Time) error {
	files := []struct {
		name string
		data []byte
	}{
		{cfg.PlaylistName(), renderPlaylist(cfg, w.Playlist)},
		{domain.LabelsName, renderLabels(dates)},
		{cfg.AboutName(), renderAbout(cfg, dates)},
	}

	for _, f := range files {
		path := filepath.Join(cfg.OutputDir, f.name)
		if err := w.FS.WriteFile(path, f.data); err != nil {
			return appErrors.Wrap(appErrors.IOFailure, "write descriptor", path, err)
		}
	}
	return nil
}

func renderPlaylist(cfg domain.BundleConfig, s PlaylistSettings) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "name = %s\n", cfg.LongName)
	fmt.Fprintf(&b, "layer = %s\n", s.Layer)
	fmt.Fprintf(&b, "layerdata = %s\n", filepath.ToSlash(s.LayerData))
	fmt.Fprintf(&b, "fps = %d\n", s.FPS)
	fmt.Fprintf(&b, "label = %s\n", domain.LabelsName)
	fmt.Fprintf(&b, "labelColor = %s\n", s.LabelColor)
	fmt.Fprintf(&b, "majorcategory = %s\n", s.MajorCategory)
	fmt.Fprintf(&b, "subcategory = %s\n", s.SubCategory)
	fmt.Fprintf(&b, "source = %s\n", s.Source)
	fmt.Fprintf(&b, "creator = %s\n", s.Creator)
	return []byte(b.String())
}

func renderLabels(dates []time.Time) []byte {
	var b strings.Builder
	for _, d := range dates {
		b.WriteString(d.Format(domain.ISODate))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func renderAbout(cfg domain.BundleConfig, dates []time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "About %s\n\n", cfg.ShortName)

	b.WriteString("Layers:\n")
	for _, layer := range cfg.Layers {
		fmt.Fprintf(&b, "\t%s\n", layer)
	}

	b.WriteString("\nTime steps:\n")
	b.WriteString("\tDaily\n")

	fmt.Fprintf(&b, "\nSource %s\n\n", aboutSourceURL)
	b.WriteString("Files available: colorized PNG\n\n")

	b.WriteString("File naming syntax:\n")
	fmt.Fprintf(&b, "\t%s.daily.YYYYMMDD.color.png\n\n", cfg.ShortName)
	fmt.Fprintf(&b, "Where %s is the data code; \"daily\" is the time step; YYYYMMDD is the year, month and day of the image.\n", cfg.ShortName)
	if len(dates) > 0 {
		d := dates[0]
		fmt.Fprintf(&b, "e.g., %s is the image for %s.\n", cfg.ImageName(d), d.Format("January 2, 2006"))
	}
	return []byte(b.String())
}
