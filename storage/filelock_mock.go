package storage

import (
	"context"
	"sync"
	"time"
)

// MockFileLock is an in-process exclusive lock. A second TryLockContext
// while held reports false, the way flock does for another process.
type MockFileLock struct {
	mu     sync.Mutex
	held   bool
	failOn error
}

func (l *MockFileLock) TryLockContext(context.Context, time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failOn != nil {
		return false, l.failOn
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *MockFileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}

// IsLocked reports whether the lock is held.
func (l *MockFileLock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// MockFileLockFactory hands out one MockFileLock per path, so collections
// opened on the same minter file contend for it.
type MockFileLockFactory struct {
	mu    sync.Mutex
	locks map[string]*MockFileLock

	// DefaultLockError makes every lock created afterwards fail to lock.
	DefaultLockError error
}

func NewMockFileLockFactory() *MockFileLockFactory {
	return &MockFileLockFactory{locks: make(map[string]*MockFileLock)}
}

func (f *MockFileLockFactory) New(path string) FileLock {
	return f.lock(path)
}

// GetLock returns the lock for path, creating it if needed.
func (f *MockFileLockFactory) GetLock(path string) *MockFileLock {
	return f.lock(path)
}

func (f *MockFileLockFactory) lock(path string) *MockFileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[path]
	if !ok {
		l = &MockFileLock{failOn: f.DefaultLockError}
		f.locks[path] = l
	}
	return l
}
