package txlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir, RotationConfig{MaxSizeMB: 1, MaxBackups: 1})

	l := New(NewSlogLogger(w))
	l.BadRequest(testID)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "transactions.log"))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), testHex+" END BADREQUEST") {
		t.Errorf("log = %q", data)
	}
}
