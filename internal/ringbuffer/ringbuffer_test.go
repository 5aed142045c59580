package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSnapshotLastReturnsMostRecent(t *testing.T) {
	b := New(10)
	for i := 1; i <= 6; i++ {
		b.Push(float64(i))
	}

	got, ok := b.SnapshotLast(4)
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4, 5, 6}, got)
}

func TestSnapshotLastInsufficientData(t *testing.T) {
	b := New(10)
	b.Push(1)
	_, ok := b.SnapshotLast(4)
	assert.False(t, ok)
}

func TestEvictsOldestWhenFull(t *testing.T) {
	b := New(3)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.Push(4) // evicts 1

	got, ok := b.SnapshotLast(3)
	require.True(t, ok)
	assert.Equal(t, []float64{2, 3, 4}, got)
	assert.Equal(t, 3, b.Len())
}

func TestAdvanceDropsOldest(t *testing.T) {
	b := New(10)
	for i := 1; i <= 5; i++ {
		b.Push(float64(i))
	}
	b.Advance(2)
	assert.Equal(t, 3, b.Len())

	got, ok := b.SnapshotLast(3)
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4, 5}, got)
}

// Property: after any sequence of pushes bounded by capacity C, Len()
// never exceeds C, and SnapshotLast(Len()) always succeeds and returns
// values in push order.
func TestRapidNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 64).Draw(t, "capacity")
		n := rapid.IntRange(0, 200).Draw(t, "n")

		b := New(capacity)
		var pushed []float64
		for i := 0; i < n; i++ {
			v := rapid.Float64().Draw(t, "v")
			b.Push(v)
			pushed = append(pushed, v)
			if len(pushed) > capacity {
				pushed = pushed[1:]
			}
			assert.LessOrEqual(t, b.Len(), capacity)
		}

		if b.Len() > 0 {
			got, ok := b.SnapshotLast(b.Len())
			require.True(t, ok)
			assert.Equal(t, pushed, got)
		}
	})
}
