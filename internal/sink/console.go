package sink

import (
	"github.com/charmbracelet/log"
)

// ConsoleSink writes each WindowRecord as a structured log line,
// reusing the same github.com/charmbracelet/log logger the rest of the
// program uses for diagnostics — grounded on the teacher's dual
// logging/telemetry split in src/telemetry.go, generalized onto the
// pack's structured logger instead of hand-rolled Fprintf.
type ConsoleSink struct {
	logger *log.Logger
}

// NewConsoleSink wraps logger for WindowRecord output.
func NewConsoleSink(logger *log.Logger) *ConsoleSink {
	return &ConsoleSink{logger: logger}
}

func (s *ConsoleSink) WriteRecord(r WindowRecord) error {
	s.logger.Info("window",
		"sample_count", r.SampleCount,
		"li", formatSig(r.LI, 6),
		"direction", r.Direction,
		"smoothed", r.SmoothedDirection,
		"confidence", formatSig(r.Confidence, 6),
		"quality_score", formatSig(r.QualityScore, 6),
		"left_artifact", r.LeftArtifact,
		"right_artifact", r.RightArtifact,
	)
	return nil
}

// Flush is a no-op: the underlying logger writes synchronously.
func (s *ConsoleSink) Flush() error { return nil }

// Close is a no-op: ConsoleSink does not own the logger's writer.
func (s *ConsoleSink) Close() error { return nil }
