package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
)

var csvHeader = []string{
	"timestamp", "sample_count", "left_alpha_power", "right_alpha_power",
	"lateralization_index", "attention_direction", "confidence",
	"smoothed_direction", "quality_score", "left_snr_db", "right_snr_db",
	"left_artifact", "right_artifact",
}

// CSVSink is the append-only log-file sink from spec.md §6. It writes
// a header row only when the destination file is newly created or
// empty, matching "header row on creation." Grounded on the teacher's
// log writer in src/telemetry.go, which opens its output file in
// append mode and guards the header the same way; here the header
// writer uses encoding/csv instead of hand-rolled Fprintf, since the
// teacher's log lines aren't actually comma-separated structured data
// the way this sink's are.
type CSVSink struct {
	mu            sync.Mutex
	file          *os.File
	writer        *csv.Writer
	flushInterval int
	sinceFlush    int
}

// NewCSVSink opens (or creates) path for append and writes the header
// row if the file is empty. flushInterval is spec.md §4.8's
// logging.flush_interval_records: the sink flushes to disk every that
// many WriteRecord calls, rather than buffering indefinitely until
// Close; a value <= 1 flushes every record.
func NewCSVSink(path string, flushInterval int) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &ErrSink{Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &ErrSink{Err: err}
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, &ErrSink{Err: err}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, &ErrSink{Err: err}
		}
	}

	if flushInterval < 1 {
		flushInterval = 1
	}

	return &CSVSink{file: f, writer: w, flushInterval: flushInterval}, nil
}

// WriteRecord appends one CSV row, per spec.md §6's fixed column order
// and formatting rules.
func (s *CSVSink) WriteRecord(r WindowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		fmt.Sprintf("%.6f", float64(r.Timestamp.UnixNano())/1e9),
		strconv.FormatInt(r.SampleCount, 10),
		formatSig(r.LeftAlphaPower, 6),
		formatSig(r.RightAlphaPower, 6),
		formatSig(r.LI, 6),
		r.Direction,
		formatSig(r.Confidence, 6),
		r.SmoothedDirection,
		formatSig(r.QualityScore, 6),
		formatSig(r.LeftSNRdB, 6),
		formatSig(r.RightSNRdB, 6),
		r.LeftArtifact,
		r.RightArtifact,
	}

	if err := s.writer.Write(row); err != nil {
		return &ErrSink{Err: err}
	}

	s.sinceFlush++
	if s.sinceFlush >= s.flushInterval {
		s.sinceFlush = 0
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			return &ErrSink{Err: err}
		}
	}
	return nil
}

// Flush flushes buffered rows to disk.
func (s *CSVSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &ErrSink{Err: err}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	if err := s.Flush(); err != nil {
		s.file.Close()
		return err
	}
	if err := s.file.Close(); err != nil {
		return &ErrSink{Err: err}
	}
	return nil
}
