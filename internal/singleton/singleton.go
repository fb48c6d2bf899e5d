// SPDX-License-Identifier: AGPL-3.0-only
package singleton

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const retryDelay = 50 * time.Millisecond

// Lock is an inter-process lock held on "<path>.lock".
type Lock struct {
	flock *flock.Flock
}

func newFlock(path string) (*flock.Flock, string, error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, lockPath, fmt.Errorf("singleton: create lock directory: %w", err)
	}
	return flock.New(lockPath), lockPath, nil
}

// Acquire blocks until the lock for path is held or ctx is done.
// Processes that seed a shared database call this so only one of them
// writes the initial rows.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	fl, lockPath, err := newFlock(path)
	if err != nil {
		return nil, err
	}
	locked, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		return nil, fmt.Errorf("singleton: lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("singleton: lock %s: not acquired", lockPath)
	}
	return &Lock{flock: fl}, nil
}

// Release releases the lock.
func (l *Lock) Release() error {
	return l.flock.Unlock()
}
