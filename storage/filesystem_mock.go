package storage

import (
	"io/fs"
	"path"
	"sync"
	"time"
)

// MockFileSystem keeps minter files in memory. Setting one of the error
// fields makes the matching operation fail, so tests can break a save
// between writing the temporary file and renaming it into place.
type MockFileSystem struct {
	mu    sync.Mutex
	files map[string][]byte

	ReadFileError  error
	WriteFileError error
	RenameError    error

	// Writes counts successful WriteFile calls.
	Writes int
}

func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{files: make(map[string][]byte)}
}

// memInfo is the fs.FileInfo of an in-memory file.
type memInfo struct {
	name string
	size int
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return int64(i.size) }
func (i memInfo) Mode() fs.FileMode  { return 0644 }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }

func (m *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return memInfo{name: path.Base(name), size: len(data)}, nil
}

func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileError != nil {
		return nil, m.ReadFileError
	}
	data, ok := m.GetFileContent(name)
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MockFileSystem) WriteFile(name string, data []byte, _ fs.FileMode) error {
	if m.WriteFileError != nil {
		return m.WriteFileError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	m.Writes++
	return nil
}

func (m *MockFileSystem) Rename(oldpath, newpath string) error {
	if m.RenameError != nil {
		return m.RenameError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[oldpath]
	if !ok {
		return fs.ErrNotExist
	}
	m.files[newpath] = data
	delete(m.files, oldpath)
	return nil
}

func (m *MockFileSystem) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return fs.ErrNotExist
	}
	delete(m.files, name)
	return nil
}

// FileExists reports whether name is present.
func (m *MockFileSystem) FileExists(name string) bool {
	_, ok := m.GetFileContent(name)
	return ok
}

// GetFileContent returns a copy of the content of name.
func (m *MockFileSystem) GetFileContent(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}
