package testutil

import (
	"bytes"
	"os"
	"testing"

	"github.com/arthur-debert/pidminter/storage"
	"github.com/google/go-cmp/cmp"
)

// Snapshot captures the bytes of a file so a test can later prove the file
// was not touched.
type Snapshot struct {
	path    string
	content []byte
}

// TakeSnapshot reads path.
func TakeSnapshot(t *testing.T, path string) Snapshot {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to snapshot %s: %v", path, err)
	}
	return Snapshot{path: path, content: content}
}

// AssertUnchanged fails the test if the file differs from the snapshot.
func (s Snapshot) AssertUnchanged(t *testing.T) {
	t.Helper()
	now, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", s.path, err)
	}
	if !bytes.Equal(s.content, now) {
		t.Errorf("%s changed:\n%s", s.path, cmp.Diff(string(s.content), string(now)))
	}
}

// AssertChanged fails the test if the file still equals the snapshot.
func (s Snapshot) AssertChanged(t *testing.T) {
	t.Helper()
	now, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", s.path, err)
	}
	if bytes.Equal(s.content, now) {
		t.Errorf("expected %s to change", s.path)
	}
}

// AssertRecords loads the collection and compares it with want.
func AssertRecords(t *testing.T, c storage.Collection, want storage.Records) {
	t.Helper()
	got, err := c.Load()
	if err != nil {
		t.Fatalf("failed to load records: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

// AssertRecordValue checks a single unprefixed minter key.
func AssertRecordValue(t *testing.T, records storage.Records, key, want string) {
	t.Helper()
	got, ok := records[":/"+key]
	if !ok {
		t.Errorf("key %q not found", key)
		return
	}
	if got != want {
		t.Errorf("%s = %q, want %q", key, got, want)
	}
}
