package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// FormatVersion is written into the metadata of every JSON collection.
const FormatVersion = "1.0"

// Constants for file locking
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// jsonDocument represents the JSON file structure
type jsonDocument struct {
	Records  Records  `json:"records"`
	Metadata Metadata `json:"metadata"`
}

// Metadata contains storage metadata
type Metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONCollection implements Collection using a JSON file. An exclusive lock
// on "<path>.lock" is held from OpenJSON until Close, so at most one session
// owns the file at a time.
type JSONCollection struct {
	filePath    string
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
	timeFunc    func() time.Time
	lockTimeout time.Duration

	createdAt time.Time
	closed    bool
}

// JSONOption is a function that modifies JSONCollection configuration
type JSONOption func(*JSONCollection)

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs FileSystem) JSONOption {
	return func(c *JSONCollection) {
		c.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory implementation
func WithFileLockFactory(factory FileLockFactory) JSONOption {
	return func(c *JSONCollection) {
		c.lockFactory = factory
	}
}

// WithTimeFunc sets a custom time function for testing
func WithTimeFunc(fn func() time.Time) JSONOption {
	return func(c *JSONCollection) {
		c.timeFunc = fn
	}
}

// WithLockTimeout bounds how long OpenJSON waits for the lock.
func WithLockTimeout(d time.Duration) JSONOption {
	return func(c *JSONCollection) {
		c.lockTimeout = d
	}
}

// OpenJSON opens the JSON collection at filePath and takes its lock.
func OpenJSON(filePath string, opts ...JSONOption) (*JSONCollection, error) {
	c := &JSONCollection{
		filePath:    filePath,
		timeFunc:    time.Now,
		lockTimeout: lockTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fs == nil {
		c.fs = OSFileSystem{}
	}
	if c.lockFactory == nil {
		c.lockFactory = FlockFactory{}
	}

	c.fileLock = c.lockFactory.New(filePath + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), c.lockTimeout)
	defer cancel()
	if err := c.acquireLock(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the data file path.
func (c *JSONCollection) Path() string {
	return c.filePath
}

// acquireLock attempts to acquire an exclusive file lock with retry logic
func (c *JSONCollection) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := c.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrLocked, c.filePath)
			}
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrLocked, c.filePath)
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("%w: %s", ErrLocked, c.filePath)
}

// Load reads the JSON file into memory
func (c *JSONCollection) Load() (Records, error) {
	if c.closed {
		return nil, ErrClosed
	}

	if _, err := c.fs.Stat(c.filePath); errors.Is(err, os.ErrNotExist) {
		return Records{}, nil
	}

	data, err := c.fs.ReadFile(c.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Empty file is OK
	if len(data) == 0 {
		return Records{}, nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	c.createdAt = doc.Metadata.CreatedAt

	if doc.Records == nil {
		return Records{}, nil
	}
	return doc.Records, nil
}

// Save writes data to the JSON file atomically (temp file, then rename).
func (c *JSONCollection) Save(data Records) error {
	if c.closed {
		return ErrClosed
	}

	now := c.timeFunc()
	if c.createdAt.IsZero() {
		c.createdAt = now
	}
	if data == nil {
		data = Records{}
	}
	doc := jsonDocument{
		Records: data,
		Metadata: Metadata{
			Version:   FormatVersion,
			CreatedAt: c.createdAt,
			UpdatedAt: now,
		},
	}

	// encoding/json writes map keys in sorted order
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmpFile := c.filePath + ".tmp"
	if err := c.fs.WriteFile(tmpFile, content, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := c.fs.Rename(tmpFile, c.filePath); err != nil {
		_ = c.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// Close releases the lock. It is safe to call more than once.
func (c *JSONCollection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.fileLock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
