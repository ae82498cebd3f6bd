package logging

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger provides optional verbose logging and lightweight timing helpers.
// Copies share the same writer lock, so fetch workers can log concurrently.
type Logger struct {
	Writer  io.Writer
	Verbose bool
	RunID   string

	mu *sync.Mutex
}

func New(writer io.Writer, verbose bool) Logger {
	return Logger{Writer: writer, Verbose: verbose, RunID: uuid.NewString(), mu: &sync.Mutex{}}
}

func (l Logger) Infof(format string, args ...any) {
	if l.Writer == nil {
		return
	}
	if l.mu != nil {
		l.mu.Lock()
		defer l.mu.Unlock()
	}
	fmt.Fprintf(l.Writer, format+"\n", args...)
}

func (l Logger) Verbosef(format string, args ...any) {
	if !l.Verbose {
		return
	}
	if l.RunID != "" {
		l.Infof("Verbose: [%s] "+format, append([]any{shortID(l.RunID)}, args...)...)
		return
	}
	l.Infof("Verbose: "+format, args...)
}

// Measure returns a stop function that logs the elapsed time when called.
func (l Logger) Measure(label string) func() {
	if !l.Verbose {
		return func() {}
	}
	start := time.Now()
	return func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		l.Verbosef("%s took %s", label, elapsed)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
