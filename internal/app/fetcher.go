package app

import (
	"context"
	"errors"
	"time"

	"sosgibs/internal/domain"
	appErrors "sosgibs/internal/errors"
	"sosgibs/internal/logging"
)

const (
	DefaultTimeout        = 90 * time.Second
	DefaultRetries        = 3
	DefaultRetryBaseDelay = 1 * time.Second
	DefaultRetryMaxDelay  = 10 * time.Second
)

// RetryPolicy bounds how often a transient failure is retried. Retries counts
// attempts after the first one.
type RetryPolicy struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// OutcomeFunc is called once per finished job from the collecting goroutine.
type OutcomeFunc func(done, total int, outcome domain.FetchOutcome)

// FetchPool downloads jobs with at most Concurrency requests in flight and
// writes each successful body to the job's local path.
type FetchPool struct {
	Fetcher     Fetcher
	FS          FileSystem
	Logger      logging.Logger
	Concurrency int
	Timeout     time.Duration
	Retry       RetryPolicy
	OnOutcome   OutcomeFunc
	Sleep       func(ctx context.Context, d time.Duration) error
}

// Run attempts every job and returns one outcome per job, in job order.
// A failing job never stops the others.
func (p *FetchPool) Run(ctx context.Context, jobs []domain.FetchJob) []domain.FetchOutcome {
	stop := p.Logger.Measure("Fetching imagery")
	defer stop()

	outcomes := make([]domain.FetchOutcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes
	}

	workerCount := p.Concurrency
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}
	p.Logger.Verbosef("Using %d fetch workers for %d jobs", workerCount, len(jobs))

	type result struct {
		index   int
		outcome domain.FetchOutcome
	}

	indexes := make(chan int)
	results := make(chan result)

	for i := 0; i < workerCount; i++ {
		go func() {
			for idx := range indexes {
				results <- result{index: idx, outcome: p.fetchOne(ctx, jobs[idx])}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range jobs {
			indexes <- i
		}
	}()

	for done := 1; done <= len(jobs); done++ {
		res := <-results
		outcomes[res.index] = res.outcome
		if p.OnOutcome != nil {
			p.OnOutcome(done, len(jobs), res.outcome)
		}
	}
	return outcomes
}

func (p *FetchPool) fetchOne(ctx context.Context, job domain.FetchJob) domain.FetchOutcome {
	outcome := domain.FetchOutcome{Job: job}
	maxAttempts := p.Retry.Retries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			outcome.Status = domain.StatusTransientFailure
			if outcome.Err == nil {
				outcome.Err = appErrors.Wrap(appErrors.Transient, "fetch", job.RequestURL, err)
			}
			return outcome
		}

		outcome.Attempts = attempt
		p.Logger.Verbosef("Downloading %s to %s (attempt %d/%d)", job.RequestURL, job.LocalPath, attempt, maxAttempts)

		body, err := p.attempt(ctx, job.RequestURL)
		if err == nil {
			if err := p.FS.WriteFile(job.LocalPath, body); err != nil {
				outcome.Status = domain.StatusPermanentFailure
				outcome.Err = appErrors.Wrap(appErrors.IOFailure, "write image", job.LocalPath, err)
				p.Logger.Verbosef("Failed %s: %v", job.Date.Format(domain.ISODate), outcome.Err)
				return outcome
			}
			outcome.Status = domain.StatusSuccess
			outcome.BytesWritten = int64(len(body))
			outcome.Err = nil
			return outcome
		}

		outcome.Err = err
		if appErrors.KindOf(err) != appErrors.Transient {
			outcome.Status = domain.StatusPermanentFailure
			p.Logger.Verbosef("Failed %s: %v", job.Date.Format(domain.ISODate), err)
			return outcome
		}
		if attempt == maxAttempts {
			break
		}

		delay := p.backoffDelay(attempt)
		p.Logger.Verbosef("Retrying %s in %s: %v", job.Date.Format(domain.ISODate), delay, err)
		if err := p.sleep(ctx, delay); err != nil {
			break
		}
	}

	outcome.Status = domain.StatusTransientFailure
	p.Logger.Verbosef("Giving up on %s after %d attempts: %v", job.Date.Format(domain.ISODate), outcome.Attempts, outcome.Err)
	return outcome
}

// attempt bounds a single request by the per-attempt timeout.
func (p *FetchPool) attempt(ctx context.Context, requestURL string) ([]byte, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := p.Fetcher.Fetch(attemptCtx, requestURL)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && appErrors.KindOf(err) == appErrors.Internal {
		err = appErrors.Wrap(appErrors.Transient, "fetch", requestURL, err)
	}
	return body, err
}

// backoffDelay doubles from BaseDelay per attempt and is capped at MaxDelay.
func (p *FetchPool) backoffDelay(attempt int) time.Duration {
	base := p.Retry.BaseDelay
	if base < 0 {
		base = 0
	}
	maxDelay := p.Retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultRetryMaxDelay
	}
	if base == 0 {
		return 0
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func (p *FetchPool) sleep(ctx context.Context, delay time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, delay)
	}
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
