package sink

// Multi fans one WindowRecord out to several sinks, per spec.md §6's
// "sink(s)" (plural). A sink that returns ErrSink is dropped from the
// fan-out for the remainder of the run rather than aborting the
// others, matching spec.md §7's SinkError handling.
type Multi struct {
	sinks []Sink
	dead  []bool
}

// NewMulti wraps one or more sinks for fan-out writes.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, dead: make([]bool, len(sinks))}
}

// WriteRecord writes to every live sink, disabling any that fail. It
// returns the first ErrSink encountered, if any, so the caller can log
// it; the other sinks still receive the record.
func (m *Multi) WriteRecord(r WindowRecord) error {
	var firstErr error
	for i, s := range m.sinks {
		if m.dead[i] {
			continue
		}
		if err := s.WriteRecord(r); err != nil {
			m.dead[i] = true
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Flush flushes every live sink.
func (m *Multi) Flush() error {
	var firstErr error
	for i, s := range m.sinks {
		if m.dead[i] {
			continue
		}
		if err := s.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink regardless of live/dead state.
func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
