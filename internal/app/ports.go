package app

import (
	"context"
	"io/fs"
)

// FileSystem is the output side of a run. Lock must fail with
// errors.ErrLocked, possibly wrapped, when another run holds dir.
type FileSystem interface {
	Exists(path string) (bool, error)
	MkdirAll(path string, perm fs.FileMode) error
	WriteFile(path string, data []byte) error
	Lock(dir string) (func() error, error)
}

// Fetcher performs a single GET. Errors must be tagged with the Transient or
// Permanent kind from internal/errors.
type Fetcher interface {
	Fetch(ctx context.Context, requestURL string) ([]byte, error)
}
