package minter

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/pidminter/storage"
	"github.com/google/go-cmp/cmp"
)

func TestNewSessionPersistsDefaults(t *testing.T) {
	m := initialized(t)

	c := m.collection()
	records, err := c.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	_ = c.Close()

	for _, k := range DefaultKeys() {
		if _, ok := records[KeyPrefix+k]; !ok {
			t.Errorf("default key %q was not persisted", k)
		}
	}
	if got := records[":/basecount"]; got != "0" {
		t.Errorf("basecount = %q, want 0", got)
	}
	if got := records[":/padwidth"]; got != "20" {
		t.Errorf("padwidth = %q, want 20", got)
	}
	if got := records[":/saclist"]; got != "" {
		t.Errorf("saclist = %q, want empty", got)
	}
	if len(records) != len(DefaultKeys()) {
		t.Errorf("expected %d keys, got %d", len(DefaultKeys()), len(records))
	}
}

func TestOpenSessionPreconditions(t *testing.T) {
	t.Run("existing minter must exist", func(t *testing.T) {
		m := newMemMinter(t)
		if _, err := OpenSession(m.collection()); !errors.Is(err, ErrNotExist) {
			t.Fatalf("expected ErrNotExist, got %v", err)
		}
		if m.locks.GetLock("minter.json.lock").IsLocked() {
			t.Error("collection should be closed after a failed open")
		}
	})

	t.Run("new minter must not exist", func(t *testing.T) {
		m := initialized(t)
		before := m.content()
		if _, err := OpenSession(m.collection(), WithNew()); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if m.content() != before {
			t.Error("failed open must not touch storage")
		}
	})
}

func TestSessionOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		outcome   Outcome
		wantWrite bool
		wantState SessionState
	}{
		{name: "success commits", outcome: Success, wantWrite: true, wantState: StateCommitted},
		{name: "failure discards", outcome: Failure, wantState: StateDiscarded},
		{name: "abandoned discards", outcome: Abandoned, wantState: StateDiscarded},
		{name: "dry-run outcome discards", outcome: DryRun, wantState: StateDiscarded},
		{name: "dry-run session discards on success", opts: []Option{WithDryRun()}, outcome: Success, wantState: StateDiscarded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := initialized(t)
			before := m.content()
			writesBefore := m.fs.Writes

			s, err := OpenSession(m.collection(), tt.opts...)
			if err != nil {
				t.Fatalf("failed to open session: %v", err)
			}
			if err := s.SetInt("basecount", 42); err != nil {
				t.Fatalf("failed to set: %v", err)
			}
			if err := s.Close(tt.outcome); err != nil {
				t.Fatalf("close failed: %v", err)
			}

			if s.State() != tt.wantState {
				t.Errorf("state = %v, want %v", s.State(), tt.wantState)
			}
			wrote := m.fs.Writes > writesBefore
			if wrote != tt.wantWrite {
				t.Errorf("wrote = %v, want %v", wrote, tt.wantWrite)
			}
			if !tt.wantWrite && m.content() != before {
				t.Error("discarded session changed storage")
			}
			if m.locks.GetLock("minter.json.lock").IsLocked() {
				t.Error("collection lock should be released")
			}

			s2, err := OpenSession(m.collection(), WithDryRun())
			if err != nil {
				t.Fatalf("failed to reopen: %v", err)
			}
			defer func() { _ = s2.Close(DryRun) }()
			got, _ := s2.GetInt("basecount")
			want := 0
			if tt.wantWrite {
				want = 42
			}
			if got != want {
				t.Errorf("basecount after reopen = %d, want %d", got, want)
			}
		})
	}
}

func TestSessionClosedTwice(t *testing.T) {
	m := initialized(t)
	s, err := OpenSession(m.collection())
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	if err := s.Close(Failure); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := s.Close(Success); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := s.Get("basecount"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed from Get, got %v", err)
	}
	if err := s.Set("basecount", "1"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed from Set, got %v", err)
	}
}

func TestSessionSaveFailure(t *testing.T) {
	m := initialized(t)
	before := m.content()

	s, err := OpenSession(m.collection())
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	_ = s.SetInt("total", 9)

	m.fs.WriteFileError = errors.New("disk full")
	err = s.Close(Success)
	if !errors.Is(err, m.fs.WriteFileError) {
		t.Fatalf("expected write error, got %v", err)
	}
	if s.State() != StateDiscarded {
		t.Errorf("state = %v, want discarded", s.State())
	}
	if m.content() != before {
		t.Error("failed save changed storage")
	}
	if m.locks.GetLock("minter.json.lock").IsLocked() {
		t.Error("collection lock should be released")
	}
}

func TestSessionTypedAccess(t *testing.T) {
	m := initialized(t)
	s, err := OpenSession(m.collection())
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	defer func() { _ = s.Close(DryRun) }()

	t.Run("missing key", func(t *testing.T) {
		if _, err := s.Get("nope"); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("invalid integer", func(t *testing.T) {
		_ = s.Set("germ", "abc")
		if _, err := s.GetInt("germ"); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("expected ErrInvalidValue, got %v", err)
		}
		_ = s.Set("germ", "-3")
		if _, err := s.GetInt("germ"); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("expected ErrInvalidValue for negative, got %v", err)
		}
	})

	t.Run("lists", func(t *testing.T) {
		if err := s.SetList("saclist", []string{"c0", "c1"}); err != nil {
			t.Fatalf("SetList failed: %v", err)
		}
		if err := s.Append("saclist", "c2"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		got, _ := s.GetList("saclist")
		if diff := cmp.Diff([]string{"c0", "c1", "c2"}, got); diff != "" {
			t.Errorf("list mismatch (-want +got):\n%s", diff)
		}

		popped, err := s.Pop("saclist", 0)
		if err != nil || popped != "c0" {
			t.Fatalf("Pop(0) = %q, %v", popped, err)
		}
		popped, err = s.Pop("saclist", -1)
		if err != nil || popped != "c2" {
			t.Fatalf("Pop(-1) = %q, %v", popped, err)
		}
		if raw, _ := s.Get("saclist"); raw != "c1" {
			t.Errorf("raw list = %q, want %q", raw, "c1")
		}
		if _, err := s.Pop("saclist", 5); err == nil {
			t.Error("expected out of range error")
		}
	})

	t.Run("tokens must be whitespace free", func(t *testing.T) {
		for _, bad := range []string{"", "a b", "tab\there", "nl\n"} {
			if err := s.SetList("siclist", []string{"ok", bad}); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("SetList with %q: expected ErrInvalidToken, got %v", bad, err)
			}
			if err := s.Append("siclist", bad); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Append %q: expected ErrInvalidToken, got %v", bad, err)
			}
		}
	})

	t.Run("records are prefixed copies", func(t *testing.T) {
		r := s.Records()
		if _, ok := r[":/basecount"]; !ok {
			t.Fatal("expected prefixed key in records")
		}
		r[":/basecount"] = "999"
		if v, _ := s.Get("basecount"); v == "999" {
			t.Error("Records must return a copy")
		}
	})
}

func TestSessionOverLevelDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minter.ldb")

	open := func() storage.Collection {
		c, err := storage.Open(storage.LevelDBKind, path)
		if err != nil {
			t.Fatalf("failed to open leveldb: %v", err)
		}
		return c
	}

	s, err := OpenSession(open(), WithNew())
	if err != nil {
		t.Fatalf("failed to open new session: %v", err)
	}
	if err := s.Close(Success); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	s, err = OpenSession(open())
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	_ = s.SetInt("total", 5)
	if err := s.Close(Failure); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	s, err = OpenSession(open())
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	defer func() { _ = s.Close(DryRun) }()
	if n, _ := s.GetInt("total"); n != 0 {
		t.Errorf("total = %d, want 0 after failed session", n)
	}
}
