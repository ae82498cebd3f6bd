package app

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	appErrors "sosgibs/internal/errors"
)

type memFS struct {
	mu       sync.Mutex
	files    map[string][]byte
	dirs     map[string]bool
	writeErr map[string]error
	mkdirErr error
	lockErr  error
	locked   bool
}

func newMemFS() *memFS {
	return &memFS{files: map[string][]byte{}, dirs: map[string]bool{}, writeErr: map[string]error{}}
}

func (m *memFS) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *memFS) MkdirAll(path string, perm fs.FileMode) error {
	if m.mkdirErr != nil {
		return m.mkdirErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
	return nil
}

func (m *memFS) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr[path]; err != nil {
		return err
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

func (m *memFS) Lock(dir string) (func() error, error) {
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	m.mu.Lock()
	m.locked = true
	m.mu.Unlock()
	return func() error {
		m.mu.Lock()
		m.locked = false
		m.mu.Unlock()
		return nil
	}, nil
}

func (m *memFS) file(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	return data, ok
}

// fakeService answers by the TIME query parameter. A date listed in permanent
// always fails with a Permanent error; a date in transient fails that many
// times with a Transient error before succeeding.
type fakeService struct {
	mu        sync.Mutex
	body      []byte
	permanent map[string]bool
	transient map[string]int
	delay     map[string]time.Duration
	calls     map[string]int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	total       atomic.Int32
}

func newFakeService(body string) *fakeService {
	return &fakeService{
		body:      []byte(body),
		permanent: map[string]bool{},
		transient: map[string]int{},
		delay:     map[string]time.Duration{},
		calls:     map[string]int{},
	}
}

func (f *fakeService) Fetch(ctx context.Context, requestURL string) ([]byte, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		prev := f.maxInFlight.Load()
		if cur <= prev || f.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}
	f.total.Add(1)

	u, err := url.Parse(requestURL)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.Permanent, "parse", requestURL, err)
	}
	date := u.Query().Get("TIME")

	f.mu.Lock()
	f.calls[date]++
	call := f.calls[date]
	delay := f.delay[date]
	permanent := f.permanent[date]
	transient := f.transient[date]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, appErrors.Wrap(appErrors.Transient, "get", requestURL, ctx.Err())
		}
	}
	if permanent {
		return nil, appErrors.Wrap(appErrors.Permanent, "get", requestURL, errors.New("unexpected status 400"))
	}
	if call <= transient {
		return nil, appErrors.Wrap(appErrors.Transient, "get", requestURL, errors.New("connection reset by peer"))
	}
	return f.body, nil
}

func (f *fakeService) callsFor(date string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[date]
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
