package minter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/pidminter/storage"
)

// ErrInvalidState is returned when the typed state breaks an invariant.
var ErrInvalidState = errors.New("invalid minter state")

// Counter is one allocation sequence: its high-water mark and current value.
type Counter struct {
	Top   int `json:"top" yaml:"top"`
	Value int `json:"value" yaml:"value"`
}

// State is the typed view of a minter's records.
type State struct {
	// BaseCount is the number of identifiers minted before this session.
	BaseCount int
	// CombinedCount is the cumulative count across all counters.
	CombinedCount int
	// MaxCombinedCount caps CombinedCount; 0 means unbounded.
	MaxCombinedCount int
	// TotalCount is the lifetime number of identifiers minted.
	TotalCount int
	// MaxPerCounter caps each individual counter.
	MaxPerCounter int

	Template string
	Mask     string
	AtLast   string

	// ActiveCounters lists counter ids still eligible for allocation,
	// InactiveCounters the exhausted or retired ones.
	ActiveCounters   []string
	InactiveCounters []string

	// Counters is index-addressed: counter n is stored under c<n>/top and
	// c<n>/value.
	Counters []Counter

	session *Session
}

// OpenState opens a session on c and reads the typed state from it.
func OpenState(c storage.Collection, opts ...Option) (*State, error) {
	s, err := OpenSession(c, opts...)
	if err != nil {
		return nil, err
	}
	st, err := readState(s)
	if err != nil {
		_ = s.Close(Failure)
		return nil, err
	}
	return st, nil
}

// Session returns the session the state was read from.
func (st *State) Session() *Session {
	return st.session
}

func readState(s *Session) (*State, error) {
	st := &State{session: s}

	ints := []struct {
		key string
		dst *int
	}{
		{keyBaseCount, &st.BaseCount},
		{keyCombinedCount, &st.CombinedCount},
		{keyMaxCombinedCount, &st.MaxCombinedCount},
		{keyTotalCount, &st.TotalCount},
		{keyMaxPerCounter, &st.MaxPerCounter},
	}
	for _, f := range ints {
		n, err := s.GetInt(f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{keyTemplate, &st.Template},
		{keyMask, &st.Mask},
		{keyAtLast, &st.AtLast},
	}
	for _, f := range strs {
		v, err := s.Get(f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	var err error
	if st.ActiveCounters, err = s.GetList(keyActiveCounters); err != nil {
		return nil, err
	}
	if st.InactiveCounters, err = s.GetList(keyInactiveCounters); err != nil {
		return nil, err
	}

	st.Counters, err = readCounters(s)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// readCounters probes c0, c1, ... until the first index with a missing key.
func readCounters(s *Session) ([]Counter, error) {
	counters := []Counter{}
	for n := 0; ; n++ {
		if !s.Has(CounterTopKey(n)) || !s.Has(CounterValueKey(n)) {
			return counters, nil
		}
		top, err := s.GetInt(CounterTopKey(n))
		if err != nil {
			return nil, err
		}
		value, err := s.GetInt(CounterValueKey(n))
		if err != nil {
			return nil, err
		}
		counters = append(counters, Counter{Top: top, Value: value})
	}
}

// Validate checks the invariants of the state.
func (st *State) Validate() error {
	for n, c := range st.Counters {
		if c.Top < 0 || c.Value < 0 {
			return fmt.Errorf("%w: counter %d has a negative field", ErrInvalidState, n)
		}
		if c.Value > c.Top {
			return fmt.Errorf("%w: counter %d value %d exceeds top %d", ErrInvalidState, n, c.Value, c.Top)
		}
	}
	if len(st.ActiveCounters)+len(st.InactiveCounters) > len(st.Counters) {
		return fmt.Errorf("%w: %d active and %d inactive counters but only %d counters",
			ErrInvalidState, len(st.ActiveCounters), len(st.InactiveCounters), len(st.Counters))
	}
	for _, n := range []int{st.BaseCount, st.CombinedCount, st.MaxCombinedCount, st.TotalCount, st.MaxPerCounter} {
		if n < 0 {
			return fmt.Errorf("%w: counts must not be negative", ErrInvalidState)
		}
	}
	return nil
}

// write serializes every field back into the session's working copy.
// Counter keys beyond the current list are removed so that a shrunken list
// reads back with the same length.
func (st *State) write() error {
	s := st.session
	ints := []struct {
		key string
		val int
	}{
		{keyBaseCount, st.BaseCount},
		{keyCombinedCount, st.CombinedCount},
		{keyMaxCombinedCount, st.MaxCombinedCount},
		{keyTotalCount, st.TotalCount},
		{keyMaxPerCounter, st.MaxPerCounter},
	}
	for _, f := range ints {
		if err := s.SetInt(f.key, f.val); err != nil {
			return err
		}
	}
	for k, v := range map[string]string{keyTemplate: st.Template, keyMask: st.Mask, keyAtLast: st.AtLast} {
		if err := s.Set(k, v); err != nil {
			return err
		}
	}
	if err := s.SetList(keyActiveCounters, st.ActiveCounters); err != nil {
		return err
	}
	if err := s.SetList(keyInactiveCounters, st.InactiveCounters); err != nil {
		return err
	}

	for n, c := range st.Counters {
		if err := s.SetInt(CounterTopKey(n), c.Top); err != nil {
			return err
		}
		if err := s.SetInt(CounterValueKey(n), c.Value); err != nil {
			return err
		}
	}
	for n := len(st.Counters); s.Has(CounterTopKey(n)) || s.Has(CounterValueKey(n)); n++ {
		_ = s.Delete(CounterTopKey(n))
		_ = s.Delete(CounterValueKey(n))
	}
	return nil
}

// Close ends the session. With Success the typed fields are validated and
// written back before the working copy is committed; a state that fails
// validation is discarded and the validation error returned.
func (st *State) Close(outcome Outcome) error {
	if outcome == Success && !st.session.DryRun() {
		if err := st.Validate(); err != nil {
			_ = st.session.Close(Failure)
			return err
		}
		if err := st.write(); err != nil {
			_ = st.session.Close(Failure)
			return err
		}
	}
	return st.session.Close(outcome)
}

// Record returns the state as a map keyed by field name, for diagnostics.
// With compact set, list-valued fields are rendered as single strings.
func (st *State) Record(compact bool) map[string]any {
	d := map[string]any{
		"base_count":            st.BaseCount,
		"combined_count":        st.CombinedCount,
		"max_combined_count":    st.MaxCombinedCount,
		"total_count":           st.TotalCount,
		"max_per_counter":       st.MaxPerCounter,
		"template_str":          st.Template,
		"mask_str":              st.Mask,
		"atlast_str":            st.AtLast,
		"active_counter_list":   copyStrings(st.ActiveCounters),
		"inactive_counter_list": copyStrings(st.InactiveCounters),
		"counter_list":          append([]Counter{}, st.Counters...),
	}
	if compact {
		d["active_counter_list"] = formatList(st.ActiveCounters)
		d["inactive_counter_list"] = formatList(st.InactiveCounters)
		d["counter_list"] = formatCounters(st.Counters)
	}
	return d
}

func copyStrings(in []string) []string {
	return append([]string{}, in...)
}

func formatList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

func formatCounters(counters []Counter) string {
	parts := make([]string, len(counters))
	for i, c := range counters {
		parts[i] = fmt.Sprintf("(%d, %d)", c.Top, c.Value)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
