// Package storage provides the durable record collections that back a
// minter. A collection is a flat mapping from string keys to string values,
// loaded and saved as a single unit, which matches how a minting session
// works: read everything on entry, write everything back on commit.
package storage

import (
	"errors"
	"fmt"
	"sort"
)

// Records is the durable unit of a minter: string keys to string values.
type Records map[string]string

// Clone returns an independent copy of r.
func (r Records) Clone() Records {
	out := make(Records, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the keys of r in ascending order.
func (r Records) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Collection defines the low-level interface for batch persistence of one
// minter's records.
type Collection interface {
	// Load reads every record. A collection that has never been saved
	// loads as an empty Records.
	Load() (Records, error)

	// Save replaces the stored records with data, atomically.
	Save(data Records) error

	// Close releases any resources held by the collection. It never
	// writes.
	Close() error
}

// Kind names a Collection implementation.
type Kind string

const (
	// JSONKind stores records in a single JSON file guarded by a lock file.
	JSONKind Kind = "json"

	// LevelDBKind stores records in a LevelDB database directory.
	LevelDBKind Kind = "leveldb"
)

var (
	// ErrLocked is returned when another process holds the collection.
	ErrLocked = errors.New("collection is locked by another process")

	// ErrClosed is returned by operations on a closed collection.
	ErrClosed = errors.New("collection is closed")

	// ErrUnknownKind is returned by Open for an unsupported Kind.
	ErrUnknownKind = errors.New("unknown collection kind")
)

// Open opens the collection at path using the given implementation. The
// collection is created on first Save if it does not exist yet.
func Open(kind Kind, path string) (Collection, error) {
	switch kind {
	case JSONKind, "":
		return OpenJSON(path)
	case LevelDBKind:
		return OpenLevelDB(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
