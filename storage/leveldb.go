package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB implements Collection on a LevelDB database directory. Keys are
// kept in byte order, like the BerkeleyDB B-tree files classic minters use.
// LevelDB's own LOCK file provides the single-writer guarantee.
type LevelDB struct {
	path string
	db   *leveldb.DB
}

// OpenLevelDB creates or opens a LevelDB database at the specified path.
func OpenLevelDB(path string) (*LevelDB, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("leveldb collection path required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve leveldb path: %w", err)
	}
	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		if isLockContention(err) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, abs)
		}
		return nil, fmt.Errorf("open leveldb collection: %w", err)
	}
	return &LevelDB{path: abs, db: db}, nil
}

// isLockContention reports whether err means another holder has the
// database's LOCK file. goleveldb returns the flock errno unwrapped; the
// message match covers platforms that report it differently.
func isLockContention(err error) bool {
	if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
		return true
	}
	return strings.Contains(err.Error(), "resource temporarily unavailable")
}

// Path returns the database directory.
func (l *LevelDB) Path() string {
	return l.path
}

// Load reads every key in the database.
func (l *LevelDB) Load() (Records, error) {
	if l.db == nil {
		return nil, ErrClosed
	}
	out := Records{}
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		out[string(iter.Key())] = string(iter.Value())
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate leveldb collection: %w", err)
	}
	return out, nil
}

// Save replaces the database contents with data in a single batch.
func (l *LevelDB) Save(data Records) error {
	if l.db == nil {
		return ErrClosed
	}
	batch := new(leveldb.Batch)

	iter := l.db.NewIterator(&util.Range{}, nil)
	for iter.Next() {
		if _, keep := data[string(iter.Key())]; !keep {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterate leveldb collection: %w", err)
	}

	for _, k := range data.Keys() {
		batch.Put([]byte(k), []byte(data[k]))
	}
	if err := l.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write leveldb batch: %w", err)
	}
	return nil
}

// Close closes the database. It is safe to call more than once.
func (l *LevelDB) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
