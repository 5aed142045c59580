package sink

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() WindowRecord {
	return WindowRecord{
		Timestamp:         time.Unix(1700000000, 500000000),
		SampleCount:       1250,
		LeftAlphaPower:    12.3456789,
		RightAlphaPower:   9.87654321,
		LI:                -0.123456789,
		Direction:         "LEFT",
		Confidence:        0.654321,
		SmoothedDirection: "LEFT",
		QualityScore:      87.654321,
		LeftSNRdB:         14.5,
		RightSNRdB:        13.2,
		LeftArtifact:      "CLEAN",
		RightArtifact:     "CLEAN",
	}
}

func TestCSVSinkWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	s, err := NewCSVSink(path, 1)
	require.NoError(t, err)
	require.NoError(t, s.WriteRecord(sampleRecord()))
	require.NoError(t, s.Close())

	s2, err := NewCSVSink(path, 1)
	require.NoError(t, err)
	require.NoError(t, s2.WriteRecord(sampleRecord()))
	require.NoError(t, s2.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 3) // one header + two data rows
	assert.Contains(t, lines[0], "timestamp")
	assert.Contains(t, lines[1], "LEFT")
}

func TestCSVSinkFormatsSixSignificantDigits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	s, err := NewCSVSink(path, 1)
	require.NoError(t, err)
	require.NoError(t, s.WriteRecord(sampleRecord()))
	require.NoError(t, s.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "12.3457") // 12.3456789 to 6 sig figs
}

func TestCSVSinkUppercaseEnums(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	s, err := NewCSVSink(path, 1)
	require.NoError(t, err)
	r := sampleRecord()
	r.Direction = "RIGHT"
	r.RightArtifact = "MUSCLE_ARTIFACT"
	require.NoError(t, s.WriteRecord(r))
	require.NoError(t, s.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "RIGHT")
	assert.Contains(t, string(b), "MUSCLE_ARTIFACT")
}

type failingSink struct{ calls int }

func (f *failingSink) WriteRecord(WindowRecord) error { f.calls++; return &ErrSink{Err: os.ErrPermission} }
func (f *failingSink) Flush() error                   { return nil }
func (f *failingSink) Close() error                   { return nil }

type okSink struct{ calls int }

func (o *okSink) WriteRecord(WindowRecord) error { o.calls++; return nil }
func (o *okSink) Flush() error                   { return nil }
func (o *okSink) Close() error                   { return nil }

func TestMultiDisablesFailingSinkButKeepsOthers(t *testing.T) {
	failing := &failingSink{}
	ok := &okSink{}
	m := NewMulti(failing, ok)

	err := m.WriteRecord(sampleRecord())
	assert.Error(t, err)
	err = m.WriteRecord(sampleRecord())
	assert.NoError(t, err) // failing sink already disabled, doesn't error again

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 2, ok.calls)
}
