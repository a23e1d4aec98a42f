package minter

import (
	"testing"

	"github.com/arthur-debert/pidminter/storage"
)

// memMinter opens JSON collections over one shared in-memory file system,
// so successive sessions see each other's commits.
type memMinter struct {
	t     *testing.T
	fs    *storage.MockFileSystem
	locks *storage.MockFileLockFactory
	path  string
}

func newMemMinter(t *testing.T) *memMinter {
	t.Helper()
	return &memMinter{
		t:     t,
		fs:    storage.NewMockFileSystem(),
		locks: storage.NewMockFileLockFactory(),
		path:  "minter.json",
	}
}

func (m *memMinter) collection() storage.Collection {
	m.t.Helper()
	c, err := storage.OpenJSON(m.path,
		storage.WithFileSystem(m.fs),
		storage.WithFileLockFactory(m.locks),
	)
	if err != nil {
		m.t.Fatalf("failed to open collection: %v", err)
	}
	return c
}

func (m *memMinter) content() string {
	m.t.Helper()
	b, _ := m.fs.GetFileContent(m.path)
	return string(b)
}

// initialized returns a memMinter holding a freshly committed new minter.
func initialized(t *testing.T) *memMinter {
	t.Helper()
	m := newMemMinter(t)
	s, err := OpenSession(m.collection(), WithNew())
	if err != nil {
		t.Fatalf("failed to open new session: %v", err)
	}
	if err := s.Close(Success); err != nil {
		t.Fatalf("failed to commit new minter: %v", err)
	}
	return m
}
