package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the root of an in-place batch while it runs.
const LockFileName = ".pdf-compressor.lock"

// treeLock keeps two in-place runs from rewriting the same tree.
type treeLock struct {
	fl *flock.Flock
}

func lockTree(root string) (*treeLock, error) {
	fl := flock.New(filepath.Join(root, LockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", root, err)
	}
	if !locked {
		return nil, fmt.Errorf("another in-place batch is already running on %s", root)
	}
	return &treeLock{fl: fl}, nil
}

func (l *treeLock) release() error {
	if err := l.fl.Unlock(); err != nil {
		return err
	}
	if err := os.Remove(l.fl.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
