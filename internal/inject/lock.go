package inject

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the target while an injection runs.
const LockFileName = ".obsidian-inject.lock"

// ErrLocked means another obsidian-inject process holds the target.
var ErrLocked = errors.New("target is locked by another obsidian-inject process")

// LockFunc acquires exclusive access to a target and returns its release.
type LockFunc func(target string) (release func(), err error)

// FileLock takes a non-blocking flock on <target>/.obsidian-inject.lock.
// The lock file is removed on release.
func FileLock(target string) (func(), error) {
	path := filepath.Join(target, LockFileName)
	fl := flock.New(path)

	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%s: %w", target, ErrLocked)
	}

	return func() {
		_ = fl.Unlock()
		_ = os.Remove(path)
	}, nil
}

// NoLock does not lock. It is used with in-memory filesystems.
func NoLock(string) (func(), error) {
	return func() {}, nil
}
