package storage

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock is the exclusive lock a JSONCollection holds for its whole
// lifetime, from OpenJSON until Close.
type FileLock interface {
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)
	Unlock() error
}

// FileLockFactory returns the lock guarding the minter file at path.
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockFactory locks with flock(2) via github.com/gofrs/flock.
type FlockFactory struct{}

func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}
