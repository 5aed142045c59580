// Package sink implements the Record Sink: the CSV and console
// WindowRecord writers, per spec.md §6/§9's "polymorphic sinks" note
// ("the CSV writer, console writer, and any future network sink share
// the capability set {write_record, flush, close}").
package sink

import (
	"fmt"
	"time"
)

// WindowRecord is one per-window decision/quality record, per spec.md
// §3's WindowRecord type.
type WindowRecord struct {
	Timestamp         time.Time
	SampleCount       int64
	LeftAlphaPower    float64
	RightAlphaPower   float64
	LI                float64
	Direction         string
	Confidence        float64
	SmoothedDirection string
	QualityScore      float64
	LeftSNRdB         float64
	RightSNRdB        float64
	LeftArtifact      string
	RightArtifact     string
}

// Sink is the capability set every record destination implements.
type Sink interface {
	WriteRecord(WindowRecord) error
	Flush() error
	Close() error
}

// ErrSink wraps a sink-level failure — disk full, permission denied —
// spec.md §7 calls a SinkError: logged at ERROR and the sink disabled
// for the remainder of the run, without aborting the scheduler loop.
type ErrSink struct {
	Err error
}

func (e *ErrSink) Error() string { return fmt.Sprintf("sink: %v", e.Err) }
func (e *ErrSink) Unwrap() error { return e.Err }

// formatSig formats v with the given number of significant digits,
// per spec.md §6 ("fractional numerics formatted with 6 significant
// digits").
func formatSig(v float64, sig int) string {
	return fmt.Sprintf("%.*g", sig, v)
}
