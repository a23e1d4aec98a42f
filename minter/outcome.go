package minter

import (
	"fmt"
)

// Outcome tells Close how a session ended.
type Outcome int

const (
	// Success commits the working copy, unless the session is a dry run.
	Success Outcome = iota

	// DryRun discards the working copy.
	DryRun

	// Failure discards the working copy after an error.
	Failure

	// Abandoned discards the working copy because the caller stopped
	// early: the allocator ran out of work or the consumer gave up.
	Abandoned
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case DryRun:
		return "dry-run"
	case Failure:
		return "failure"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

type pather interface {
	Path() string
}

// Close ends the session. Only Success on a session that is not a dry run
// writes the working copy back; all other outcomes leave storage untouched.
// The underlying collection is closed in every case.
func (s *Session) Close(outcome Outcome) error {
	if s.state != StateOpen {
		return ErrSessionClosed
	}
	if s.dryRun && outcome == Success {
		outcome = DryRun
	}

	path := ""
	if p, ok := s.collection.(pather); ok {
		path = p.Path()
	}

	if outcome == Success {
		if err := s.collection.Save(s.records); err != nil {
			s.state = StateDiscarded
			_ = s.collection.Close()
			s.logger.Error("minter state not saved; minted identifiers will be repeated",
				"path", path, "error", err)
			return fmt.Errorf("failed to save minter: %w", err)
		}
		s.state = StateCommitted
		if err := s.collection.Close(); err != nil {
			return fmt.Errorf("failed to close minter: %w", err)
		}
		s.logger.Debug("minter state saved", "path", path, "keys", len(s.records))
		return nil
	}

	switch outcome {
	case DryRun:
		s.logger.Debug("dry run: minter state not saved; minted identifiers will be repeated", "path", path)
	case Abandoned:
		s.logger.Warn("minting stopped early: minter state not saved; minted identifiers will be repeated", "path", path)
	default:
		s.logger.Warn("minter state not saved due to failure; minted identifiers will be repeated", "path", path)
	}

	s.state = StateDiscarded
	if err := s.collection.Close(); err != nil {
		return fmt.Errorf("failed to close minter: %w", err)
	}
	return nil
}
