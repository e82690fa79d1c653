package lock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const FileName = "outreach-sync.lock"

var ErrHeld = errors.New("another outreach-sync instance holds the lock")

// Instance is an exclusive lock on the data dir. Only one process may write
// status cells for a given data dir at a time.
type Instance struct {
	fl *flock.Flock
}

func Acquire(dataDir string) (*Instance, error) {
	path := filepath.Join(dataDir, FileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrHeld, path)
	}
	return &Instance{fl: fl}, nil
}

func (i *Instance) Path() string { return i.fl.Path() }

func (i *Instance) Release() error {
	if i == nil || i.fl == nil {
		return nil
	}
	return i.fl.Unlock()
}
