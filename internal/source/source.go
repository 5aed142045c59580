// Package source implements the Frame Source: the acquisition state
// machine described in spec.md §4.1, reading ASCII CSV lines from a
// serial byte stream, handling auto-detection and exponential-backoff
// reconnection, and exposing diagnostic counters.
//
// Grounded on the teacher's src/serial_port.go (the github.com/pkg/term
// open/read/write/close wrapper), generalized from a blocking
// byte-at-a-time API into the explicit, non-blocking ReadOutcome result
// type spec.md §9 calls for in place of exception-driven control flow.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eegwolf/eegwolf/internal/biosample"
)

// State is the Frame Source's connection state machine, per spec.md
// §4.1: DISCONNECTED -> CONNECTING -> CONNECTED -> (on error)
// RECONNECTING -> CONNECTED | DISCONNECTED (terminal).
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the explicit result of one ReadSample call.
type Outcome int

const (
	OutcomeSample Outcome = iota
	OutcomeEmpty
	OutcomeCorrupt
	OutcomeDisconnected
)

// ReadResult is the ReadOutcome variant spec.md §9 asks for in place of
// raise/catch parse-error handling.
type ReadResult struct {
	Outcome Outcome
	Sample  biosample.Sample
}

// Port is the minimal transport surface the Frame Source needs. The
// real implementation wraps github.com/pkg/term; tests substitute a
// creack/pty pair or an in-memory fake.
type Port interface {
	io.ReadCloser
}

// Dialer opens a named port and, when the configured port is "auto",
// discovers candidate endpoints.
type Dialer interface {
	Open(name string, baud int) (Port, error)
	Discover() ([]string, error)
}

// ErrFatal wraps a condition spec.md §7 calls FatalSourceError:
// reconnect exhaustion or permission denied on the endpoint.
type ErrFatal struct {
	Reason string
	Err    error
}

func (e *ErrFatal) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source: fatal: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("source: fatal: %s", e.Reason)
}

func (e *ErrFatal) Unwrap() error { return e.Err }

// Config collects Frame Source construction parameters, drawn from
// spec.md §4.8's serial.* options.
type Config struct {
	Port                 string
	BaudRate             int
	ReadTimeout          time.Duration
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	ADCMax               int
}

// Stats exposes the diagnostic counters spec.md §4.1 names.
type Stats struct {
	PacketsReceived  int64
	PacketsCorrupted int64
	BytesRead        int64
}

// Source is the Frame Source. It owns the underlying Port and all
// reconnect bookkeeping.
type Source struct {
	cfg    Config
	dialer Dialer
	logger *log.Logger

	mu    sync.Mutex
	state State
	stats Stats

	port Port

	lineCh chan lineOrErr
	closed chan struct{}

	attempt     int
	nextRetryAt time.Time
}

type lineOrErr struct {
	line string
	n    int
	err  error
}

// New constructs a Source. It does not open the port; call Connect.
func New(cfg Config, dialer Dialer, logger *log.Logger) *Source {
	return &Source{cfg: cfg, dialer: dialer, logger: logger, state: StateDisconnected}
}

// State returns the current connection state.
func (s *Source) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a snapshot of the diagnostic counters.
func (s *Source) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Connect opens the configured (or auto-detected) endpoint and starts
// the background line reader. A failure to even begin — bad endpoint
// name, permission denied — is an ErrFatal.
func (s *Source) Connect() error {
	s.mu.Lock()
	s.state = StateConnecting
	s.mu.Unlock()

	name := s.cfg.Port
	if name == "auto" || name == "" {
		candidates, err := s.dialer.Discover()
		if err != nil {
			return &ErrFatal{Reason: "device discovery failed", Err: err}
		}
		if len(candidates) == 0 {
			return &ErrFatal{Reason: "no matching device found", Err: ErrNoDeviceFound}
		}
		name = candidates[0]
	}

	port, err := s.dialer.Open(name, s.cfg.BaudRate)
	if err != nil {
		return &ErrFatal{Reason: fmt.Sprintf("could not open endpoint %s", name), Err: err}
	}

	s.startReading(port)

	s.mu.Lock()
	s.state = StateConnected
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("connected to serial endpoint", "endpoint", name)
	}
	return nil
}

func (s *Source) startReading(port Port) {
	s.port = port
	s.lineCh = make(chan lineOrErr, 64)
	s.closed = make(chan struct{})

	go func(ch chan<- lineOrErr, done <-chan struct{}, r io.Reader) {
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadString('\n')
			select {
			case ch <- lineOrErr{line: line, n: len(line), err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}(s.lineCh, s.closed, port)
}

// Disconnect closes the current port and stops the background reader.
func (s *Source) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed != nil {
		close(s.closed)
		s.closed = nil
	}
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}
	s.state = StateDisconnected
}

// ReadSample returns the next decoded sample, or an Outcome explaining
// why none is available right now. It never blocks: a source with no
// complete line buffered returns OutcomeEmpty immediately.
func (s *Source) ReadSample() ReadResult {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateDisconnected:
		return ReadResult{Outcome: OutcomeDisconnected}
	case StateReconnecting:
		return s.tickReconnect()
	default:
		return s.tickRead()
	}
}

func (s *Source) tickRead() ReadResult {
	select {
	case item := <-s.lineCh:
		s.mu.Lock()
		s.stats.BytesRead += int64(item.n)
		s.mu.Unlock()

		if item.err != nil {
			s.enterReconnecting(item.err)
			return ReadResult{Outcome: OutcomeEmpty}
		}

		sample, ok := parseLine(item.line, s.cfg.ADCMax)
		s.mu.Lock()
		s.attempt = 0 // a successfully parsed line, clean or not, proves the link is alive
		if !ok {
			s.stats.PacketsCorrupted++
		} else {
			s.stats.PacketsReceived++
		}
		s.mu.Unlock()

		if !ok {
			if s.logger != nil {
				s.logger.Debug("dropped corrupt line", "line", strings.TrimRight(item.line, "\r\n"))
			}
			return ReadResult{Outcome: OutcomeCorrupt}
		}
		return ReadResult{Outcome: OutcomeSample, Sample: sample}
	default:
		return ReadResult{Outcome: OutcomeEmpty}
	}
}

func (s *Source) enterReconnecting(cause error) {
	if s.port != nil {
		_ = s.port.Close()
	}
	if s.logger != nil {
		s.logger.Warn("serial read failed, entering reconnect", "cause", cause)
	}
	s.fail()
}

// fail records one reconnect failure (a read error, or a failed reopen
// attempt) against the attempt budget, transitioning to DISCONNECTED
// once spec.md §4.1's max_reconnect_attempts is exceeded, or otherwise
// scheduling the next attempt after delay*2^min(attempt,5), capped at
// 30s.
func (s *Source) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempt++
	if s.attempt > s.cfg.MaxReconnectAttempts {
		s.state = StateDisconnected
		if s.logger != nil {
			s.logger.Warn("reconnect attempts exhausted, disconnecting")
		}
		return
	}

	shift := s.attempt
	if shift > 5 {
		shift = 5
	}
	delay := s.cfg.ReconnectDelay * (1 << uint(shift))
	const cap30s = 30 * time.Second
	if delay > cap30s {
		delay = cap30s
	}
	s.nextRetryAt = time.Now().Add(delay)
	s.state = StateReconnecting
}

func (s *Source) tickReconnect() ReadResult {
	s.mu.Lock()
	due := !time.Now().Before(s.nextRetryAt)
	s.mu.Unlock()

	if !due {
		return ReadResult{Outcome: OutcomeEmpty}
	}

	if err := s.Connect(); err != nil {
		if s.logger != nil {
			s.logger.Warn("reconnect attempt failed", "err", err)
		}
		s.fail()
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state == StateDisconnected {
		return ReadResult{Outcome: OutcomeDisconnected}
	}
	return ReadResult{Outcome: OutcomeEmpty}
}

// parseLine decodes one CSV line `t_us,left,right[,...]\n`, tolerating
// trailing extra fields and ±5% sample-rate jitter in arrival timing
// (spec.md §6), but rejecting lines with fewer than three numeric
// fields or out-of-range ADC values (spec.md §4.1).
func parseLine(line string, adcMax int) (biosample.Sample, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return biosample.Sample{}, false
	}
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return biosample.Sample{}, false
	}

	t, err := parseIntField(fields[0])
	if err != nil || t < 0 {
		return biosample.Sample{}, false
	}
	left, err := parseIntField(fields[1])
	if err != nil {
		return biosample.Sample{}, false
	}
	right, err := parseIntField(fields[2])
	if err != nil {
		return biosample.Sample{}, false
	}

	if left < 0 || left > adcMax || right < 0 || right > adcMax {
		return biosample.Sample{}, false
	}

	return biosample.Sample{TimestampUS: t, Left: left, Right: right}, true
}

func parseIntField(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	// Tolerate "123.0"-style numeric fields.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// ErrNoDeviceFound is returned by discovery when no candidate endpoint
// matches a known microcontroller descriptor.
var ErrNoDeviceFound = errors.New("source: no matching serial device found")
