package domain

import "time"

const (
	// ISODate is the form used on the wire and in labels.txt.
	ISODate = "2006-01-02"
	// CompactDate is the form embedded in image file names.
	CompactDate = "20060102"
)

// DateRange is an inclusive range of calendar days. Both bounds are UTC midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to UTC midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date as a UTC calendar day.
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(ISODate, value, time.UTC)
}

// Days returns the number of calendar days the range covers, or 0 when Start is after End.
func (r DateRange) Days() int {
	start, end := Day(r.Start), Day(r.End)
	if start.After(end) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
