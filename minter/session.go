package minter

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/arthur-debert/pidminter/storage"
)

// KeyPrefix namespaces every minter key inside its collection.
const KeyPrefix = ":/"

var (
	// ErrKeyNotFound is returned when a key is absent from the working copy.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidValue is returned when a stored value cannot be parsed.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidToken is returned when a list element contains whitespace
	// or is empty.
	ErrInvalidToken = errors.New("list tokens must be non-empty and contain no whitespace")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrAlreadyExists is returned when a new minter is opened over a
	// collection that already holds records.
	ErrAlreadyExists = errors.New("minter already exists")

	// ErrNotExist is returned when an existing minter is opened over an
	// empty collection.
	ErrNotExist = errors.New("minter does not exist")
)

// SessionState is the lifecycle position of a Session.
type SessionState int

const (
	StateOpen SessionState = iota
	StateCommitted
	StateDiscarded
)

func (s SessionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCommitted:
		return "committed"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Session is a transactional working copy of one minter's records.
type Session struct {
	collection storage.Collection
	records    storage.Records
	state      SessionState
	isNew      bool
	dryRun     bool
	logger     *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	isNew  bool
	dryRun bool
	logger *slog.Logger
}

// WithNew initializes a new minter: the default key set is seeded into the
// working copy before it is read.
func WithNew() Option {
	return func(o *options) { o.isNew = true }
}

// WithDryRun makes the session discard its working copy on every exit.
func WithDryRun() Option {
	return func(o *options) { o.dryRun = true }
}

// WithDryRunIf is WithDryRun when enabled is true.
func WithDryRunIf(enabled bool) Option {
	return func(o *options) { o.dryRun = o.dryRun || enabled }
}

// WithLogger sets the logger used for session lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// OpenSession loads the collection into a new working copy. The session takes
// ownership of c and closes it when the session closes; if OpenSession
// fails, c is closed before returning.
func OpenSession(c storage.Collection, opts ...Option) (*Session, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	o.logger.Debug("opening minter session", "is_new", o.isNew, "dry_run", o.dryRun)

	records, err := c.Load()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to load minter: %w", err)
	}

	switch {
	case o.isNew && len(records) > 0:
		_ = c.Close()
		return nil, ErrAlreadyExists
	case !o.isNew && len(records) == 0:
		_ = c.Close()
		return nil, ErrNotExist
	}

	s := &Session{
		collection: c,
		records:    records,
		isNew:      o.isNew,
		dryRun:     o.dryRun,
		logger:     o.logger,
	}
	if o.isNew {
		seedDefaults(s)
	}
	return s, nil
}

// State reports where the session is in its lifecycle.
func (s *Session) State() SessionState {
	return s.state
}

// DryRun reports whether the session will discard its changes.
func (s *Session) DryRun() bool {
	return s.dryRun
}

// IsNew reports whether the session initialized a new minter.
func (s *Session) IsNew() bool {
	return s.isNew
}

func key(k string) string {
	return KeyPrefix + k
}

// indexed keys are frequent and noisy, so they are not logged
func isCounterKey(k string) bool {
	return strings.HasSuffix(k, "/top") || strings.HasSuffix(k, "/value")
}

// Get returns the raw value stored under k.
func (s *Session) Get(k string) (string, error) {
	if s.state != StateOpen {
		return "", ErrSessionClosed
	}
	v, ok := s.records[key(k)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, k)
	}
	if !isCounterKey(k) {
		s.logger.Debug("minter read", "key", k, "value", v)
	}
	return v, nil
}

// GetInt returns the non-negative decimal integer stored under k.
func (s *Session) GetInt(k string) (int, error) {
	v, err := s.Get(k)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrInvalidValue, k, v)
	}
	return n, nil
}

// GetList returns the whitespace-separated tokens stored under k.
func (s *Session) GetList(k string) ([]string, error) {
	v, err := s.Get(k)
	if err != nil {
		return nil, err
	}
	return strings.Fields(v), nil
}

// Set stores v under k in the working copy.
func (s *Session) Set(k, v string) error {
	if s.state != StateOpen {
		return ErrSessionClosed
	}
	s.records[key(k)] = v
	if !isCounterKey(k) {
		s.logger.Debug("minter write", "key", k, "value", v)
	}
	return nil
}

// SetInt stores n under k as a decimal string.
func (s *Session) SetInt(k string, n int) error {
	return s.Set(k, strconv.Itoa(n))
}

// SetList stores tokens under k joined by single spaces. Tokens are not
// encoded, so each must be non-empty and free of whitespace.
func (s *Session) SetList(k string, tokens []string) error {
	for _, t := range tokens {
		if err := checkToken(t); err != nil {
			return err
		}
	}
	return s.Set(k, strings.Join(tokens, " "))
}

// Append adds token to the end of the list stored under k.
func (s *Session) Append(k, token string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	list, err := s.GetList(k)
	if err != nil {
		return err
	}
	return s.SetList(k, append(list, token))
}

// Pop removes and returns the element at idx of the list stored under k.
// A negative idx counts from the end.
func (s *Session) Pop(k string, idx int) (string, error) {
	list, err := s.GetList(k)
	if err != nil {
		return "", err
	}
	if idx < 0 {
		idx += len(list)
	}
	if idx < 0 || idx >= len(list) {
		return "", fmt.Errorf("pop index %d out of range for %s (length %d)", idx, k, len(list))
	}
	token := list[idx]
	list = append(list[:idx], list[idx+1:]...)
	return token, s.SetList(k, list)
}

// Delete removes k from the working copy. Removing a missing key is not an
// error.
func (s *Session) Delete(k string) error {
	if s.state != StateOpen {
		return ErrSessionClosed
	}
	delete(s.records, key(k))
	return nil
}

// Has reports whether k is present in the working copy.
func (s *Session) Has(k string) bool {
	_, ok := s.records[key(k)]
	return ok
}

// Keys returns the unprefixed keys of the working copy in sorted order.
func (s *Session) Keys() []string {
	all := s.records.Keys()
	out := make([]string, 0, len(all))
	for _, k := range all {
		out = append(out, strings.TrimPrefix(k, KeyPrefix))
	}
	return out
}

// Records returns a copy of the working copy, with prefixed keys as stored.
func (s *Session) Records() storage.Records {
	return s.records.Clone()
}

func checkToken(t string) error {
	if t == "" || strings.ContainsFunc(t, unicode.IsSpace) {
		return fmt.Errorf("%w: %q", ErrInvalidToken, t)
	}
	return nil
}
