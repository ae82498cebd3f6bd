package app

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sosgibs/internal/domain"
	appErrors "sosgibs/internal/errors"
)

const (
	DefaultBaseURL      = "https://gibs.earthdata.nasa.gov/wms/epsg4326/all/wms.cgi"
	DefaultWidthPerUnit = 1024

	wholeEarthBBox = "-180,-90,180,90"
	projection     = "EPSG:4326"
)

// RequestBuilder turns a date into a GetMap request for the whole globe.
// Width is resolution*WidthPerUnit and height is exactly half of that, so
// WidthPerUnit must be even.
type RequestBuilder struct {
	BaseURL      string
	WidthPerUnit int
	Bundle       domain.BundleConfig
}

func (b RequestBuilder) Build(layers []string, resolution int, date time.Time) (domain.FetchJob, error) {
	if resolution <= 0 {
		err := fmt.Errorf("%w, got %d", appErrors.ErrInvalidResolution, resolution)
		return domain.FetchJob{}, appErrors.Wrap(appErrors.InvalidResolution, "build request", "", err)
	}

	base := b.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return domain.FetchJob{}, appErrors.Wrap(appErrors.InvalidConfig, "build request", base, err)
	}

	perUnit := b.widthPerUnit()
	if perUnit%2 != 0 {
		err := fmt.Errorf("width per unit must be even, got %d", perUnit)
		return domain.FetchJob{}, appErrors.Wrap(appErrors.InvalidConfig, "build request", "", err)
	}
	width := resolution * perUnit
	height := resolution * (perUnit / 2)
	day := domain.Day(date)

	q := u.Query()
	q.Set("SERVICE", "WMS")
	q.Set("VERSION", "1.1.1")
	q.Set("REQUEST", "GetMap")
	q.Set("SRS", projection)
	q.Set("FORMAT", "image/png")
	q.Set("TRANSPARENT", "FALSE")
	q.Set("STYLES", "")
	q.Set("WIDTH", strconv.Itoa(width))
	q.Set("HEIGHT", strconv.Itoa(height))
	q.Set("BBOX", wholeEarthBBox)
	q.Set("LAYERS", strings.Join(layers, ","))
	q.Set("TIME", day.Format(domain.ISODate))
	u.RawQuery = q.Encode()

	return domain.FetchJob{
		Date:       day,
		RequestURL: u.String(),
		LocalPath:  filepath.Join(b.Bundle.ImageDir(), b.Bundle.ImageName(day)),
	}, nil
}

// BuildAll builds one job per date, preserving order.
func (b RequestBuilder) BuildAll(layers []string, resolution int, dates []time.Time) ([]domain.FetchJob, error) {
	jobs := make([]domain.FetchJob, 0, len(dates))
	for _, date := range dates {
		job, err := b.Build(layers, resolution, date)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (b RequestBuilder) widthPerUnit() int {
	if b.WidthPerUnit <= 0 {
		return DefaultWidthPerUnit
	}
	return b.WidthPerUnit
}
