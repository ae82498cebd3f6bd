package app

import (
	"fmt"
	"time"

	"sosgibs/internal/domain"
	appErrors "sosgibs/internal/errors"
)

// ExpandDates lists every day from r.End down to r.Start inclusive, most recent first.
func ExpandDates(r domain.DateRange) ([]time.Time, error) {
	start, end := domain.Day(r.Start), domain.Day(r.End)
	if start.After(end) {
		err := fmt.Errorf("%w (%s > %s)", appErrors.ErrInvalidRange, start.Format(domain.ISODate), end.Format(domain.ISODate))
		return nil, appErrors.Wrap(appErrors.InvalidRange, "expand dates", "", err)
	}

	dates := make([]time.Time, 0, r.Days())
	for d := end; !d.Before(start); d = d.AddDate(0, 0, -1) {
		dates = append(dates, d)
	}
	return dates, nil
}
