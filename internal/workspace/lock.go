package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".omrdiff.lock"

// ErrResultsBusy indicates another omrdiff process holds the results lock.
var ErrResultsBusy = errors.New("results directory in use by another omrdiff run")

// ResultsLock is an advisory lock on the results root. Artifacts are keyed by
// stem, so only concurrent processes need excluding.
type ResultsLock struct {
	lock *flock.Flock
	path string
}

// LockResults creates the results root if needed and takes its lock without
// blocking.
func (r Roots) LockResults() (*ResultsLock, error) {
	if err := os.MkdirAll(r.Results, 0o755); err != nil {
		return nil, fmt.Errorf("create results directory %q: %w", r.Results, err)
	}
	path := filepath.Join(r.Results, lockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire results lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrResultsBusy, path)
	}
	return &ResultsLock{lock: lock, path: path}, nil
}

// Release drops the lock. It is safe to call on a nil lock.
func (l *ResultsLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
