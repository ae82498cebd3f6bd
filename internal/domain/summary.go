package domain

// Exit codes are stable; scripts depend on them.
const (
	ExitOK            = 0
	ExitInternal      = 1
	ExitConfig        = 2
	ExitAllFailed     = 3
	ExitPartialFailed = 4
)

type Summary struct {
	Total     int
	Succeeded int
	Transient int
	Permanent int
	Bytes     int64
}

func Summarize(outcomes []FetchOutcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusSuccess:
			s.Succeeded++
			s.Bytes += o.BytesWritten
		case StatusTransientFailure:
			s.Transient++
		case StatusPermanentFailure:
			s.Permanent++
		}
	}
	return s
}

func (s Summary) Failed() int {
	return s.Transient + s.Permanent
}

// ExitCode maps fetch results to the process status: every job failing is
// distinct from some jobs failing.
func (s Summary) ExitCode() int {
	switch {
	case s.Failed() == 0:
		return ExitOK
	case s.Succeeded == 0:
		return ExitAllFailed
	default:
		return ExitPartialFailed
	}
}
