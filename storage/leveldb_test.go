package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLevelDBCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minter.ldb")

	c, err := Open(LevelDBKind, path)
	if err != nil {
		t.Fatalf("failed to open leveldb: %v", err)
	}

	records, err := c.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty collection, got %v", records)
	}

	first := Records{":/basecount": "0", ":/c0/top": "10", ":/c0/value": "0", ":/c1/top": "20", ":/c1/value": "5"}
	if err := c.Save(first); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	// Saving replaces the whole collection, removing keys not in the new set.
	second := Records{":/basecount": "3", ":/c0/top": "10", ":/c0/value": "3"}
	if err := c.Save(second); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	c, err = Open(LevelDBKind, path)
	if err != nil {
		t.Fatalf("failed to reopen leveldb: %v", err)
	}
	defer func() { _ = c.Close() }()

	got, err := c.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLevelDBClosed(t *testing.T) {
	c, err := OpenLevelDB(filepath.Join(t.TempDir(), "minter.ldb"))
	if err != nil {
		t.Fatalf("failed to open leveldb: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
	if _, err := c.Load(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestLevelDBRequiresPath(t *testing.T) {
	if _, err := OpenLevelDB("  "); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestLevelDBLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minter.ldb")

	c, err := OpenLevelDB(path)
	if err != nil {
		t.Fatalf("failed to open leveldb: %v", err)
	}
	defer func() { _ = c.Close() }()

	if _, err := OpenLevelDB(path); !errors.Is(err, ErrLocked) {
		t.Errorf("second open: expected ErrLocked, got %v", err)
	}
}

func TestIsLockContention(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ewouldblock", fmt.Errorf("open LOCK: %w", syscall.EWOULDBLOCK), true},
		{"eagain", syscall.EAGAIN, true},
		{"message only", errors.New("flock: resource temporarily unavailable"), true},
		{"permission", syscall.EACCES, false},
		{"other", errors.New("corrupted manifest"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLockContention(tt.err); got != tt.want {
				t.Errorf("isLockContention(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
