// Package storage implements the persisted state for agentswarm: the
// active-work snapshot (task records, history) and the work-session log.
// Both are whole-file JSON documents guarded by an exclusive flock during
// writes.
package storage

import (
	"fmt"
	"os"
	"syscall"
)

// lockFile acquires an exclusive flock on the given path, creating the file
// if needed. The returned unlock function releases the lock and closes the
// handle. syscall.Flock is Unix-specific; Windows would need a different
// mechanism.
func lockFile(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
