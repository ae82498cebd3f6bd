package domain

import "time"

// FetchJob is one tile-service request and the file its body is written to.
type FetchJob struct {
	Date       time.Time
	RequestURL string
	LocalPath  string
}

type Status int

const (
	StatusSuccess Status = iota
	StatusTransientFailure
	StatusPermanentFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusTransientFailure:
		return "transient failure"
	case StatusPermanentFailure:
		return "permanent failure"
	default:
		return "unknown"
	}
}

// FetchOutcome records how a single FetchJob ended.
type FetchOutcome struct {
	Job          FetchJob
	Status       Status
	BytesWritten int64
	Attempts     int
	Err          error
}

func (o FetchOutcome) Succeeded() bool {
	return o.Status == StatusSuccess
}
