// Package txlog writes the transaction log: one line per record, recording
// the beginning, progress and end of every operation against a minter.
//
// Record layout:
//
//	<txid> BEGIN <function> <args...>
//	<txid> PROGRESS <function>
//	<txid> END SUCCESS [<args...>]
//	<txid> END BADREQUEST
//	<txid> END UNAUTHORIZED
//	<txid> END ERROR <error type>[: <message>]
//	- ERROR <caller> <error type>[: <message>]
//
// Fields are percent-encoded so that records contain only graphic ASCII and
// spaces, records and lines correspond one to one, and fields other than
// error messages are separated by single spaces.
package txlog

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arthur-debert/pidminter/codec"
	"github.com/google/uuid"
)

// Logger writes transaction records and reports internal errors to
// administrators.
type Logger struct {
	log      *slog.Logger
	notifier *Notifier
	debug    bool
}

// Option configures a Logger.
type Option func(*Logger)

// WithNotifier makes Error and OtherError notify administrators.
func WithNotifier(n *Notifier) Option {
	return func(l *Logger) { l.notifier = n }
}

// WithDebug disables administrator notification, as during development.
func WithDebug(debug bool) Option {
	return func(l *Logger) { l.debug = debug }
}

// New returns a Logger writing records to log.
func New(log *slog.Logger, opts ...Option) *Logger {
	l := &Logger{log: log}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewTransactionID returns a fresh transaction identifier.
func NewTransactionID() uuid.UUID {
	return uuid.New()
}

func txid(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

func encodeFields(args []string) string {
	encoded := make([]string, len(args))
	for i, a := range args {
		encoded[i] = codec.Encode(codec.LogField, a)
	}
	return strings.Join(encoded, " ")
}

// Begin logs the start of a transaction. The first argument is normally the
// name of the operation.
func (l *Logger) Begin(id uuid.UUID, args ...string) {
	l.log.Info(fmt.Sprintf("%s BEGIN %s", txid(id), encodeFields(args)))
}

// Progress logs progress made as part of a transaction.
func (l *Logger) Progress(id uuid.UUID, function string) {
	l.log.Info(fmt.Sprintf("%s PROGRESS %s", txid(id), function))
}

// Success logs the successful end of a transaction.
func (l *Logger) Success(id uuid.UUID, args ...string) {
	tail := ""
	if len(args) > 0 {
		tail = " " + encodeFields(args)
	}
	l.log.Info(fmt.Sprintf("%s END SUCCESS%s", txid(id), tail))
}

// BadRequest logs the end of a transaction that failed because the request
// was faulty.
func (l *Logger) BadRequest(id uuid.UUID) {
	l.log.Info(fmt.Sprintf("%s END BADREQUEST", txid(id)))
}

// Unauthorized logs the end of a transaction that failed authorization.
func (l *Logger) Unauthorized(id uuid.UUID) {
	l.log.Info(fmt.Sprintf("%s END UNAUTHORIZED", txid(id)))
}

// Error logs the end of a transaction that failed due to an internal error
// and notifies administrators.
func (l *Logger) Error(id uuid.UUID, err error) {
	desc := describe(err)
	l.log.Error(fmt.Sprintf("%s END ERROR %s", txid(id), desc))
	l.notify(desc)
}

// OtherError logs an internal error that is not tied to a transaction and
// notifies administrators.
func (l *Logger) OtherError(caller string, err error) {
	desc := describe(err)
	l.log.Error(fmt.Sprintf("- ERROR %s %s", codec.Encode(codec.LogField, caller), desc))
	l.notify(desc)
}

func (l *Logger) notify(desc string) {
	if l.debug || l.notifier == nil {
		return
	}
	l.notifier.Notify(context.Background(), desc)
}

// describe renders err as "<type>[: <message>]". Wrapping added with
// fmt.Errorf is looked through so the type names the underlying failure.
func describe(err error) string {
	if err == nil {
		return codec.Encode(codec.LogMessage, "<nil>")
	}
	root := err
	for typeName(root) == "fmt.wrapError" {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}

	msg := err.Error()
	if msg != "" {
		msg = ": " + msg
	}
	return codec.Encode(codec.LogMessage, typeName(root)) + codec.Encode(codec.LogMessage, msg)
}

func typeName(err error) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
