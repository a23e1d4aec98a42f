package minter

import (
	"errors"

	"github.com/arthur-debert/pidminter/storage"
)

var (
	// ErrExhausted signals that the allocator has no more identifiers to
	// hand out. Returned from an Update callback it abandons the session.
	ErrExhausted = errors.New("minter exhausted")

	// ErrAbandoned signals that the consumer stopped taking identifiers.
	// Returned from an Update callback it abandons the session.
	ErrAbandoned = errors.New("minting abandoned")
)

// OutcomeOf maps the error returned by a minting step to the session
// outcome it calls for.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrExhausted), errors.Is(err, ErrAbandoned):
		return Abandoned
	default:
		return Failure
	}
}

// Update runs fn against the state of the minter stored in c and closes the
// session with the outcome fn's result calls for. The error from fn is
// returned unchanged; if fn succeeded, the error from committing is
// returned instead. If fn panics the session is discarded and the panic
// continues.
func Update(c storage.Collection, fn func(*State) error, opts ...Option) (err error) {
	st, err := OpenState(c, opts...)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = st.Close(Failure)
			panic(r)
		}
	}()

	fnErr := fn(st)
	closeErr := st.Close(OutcomeOf(fnErr))
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}

// View reads the state of the minter stored in c without ever writing.
func View(c storage.Collection, fn func(*State) error, opts ...Option) error {
	return Update(c, fn, append(opts, WithDryRun())...)
}
