package experience

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTransition(id int) Transition {
	return Transition{
		State:     []float64{float64(id), 0.5},
		Action:    id % 4,
		Reward:    float64(id),
		NextState: []float64{float64(id) + 1, 0.5},
		Done:      id%2 == 0,
	}
}

func newTestMemory(capacity int) *ReplayMemory {
	return NewReplayMemory(capacity, rand.New(rand.NewSource(1)), zerolog.Nop())
}

func TestReplayMemory_Creation(t *testing.T) {
	memory := newTestMemory(100)

	assert.NotNil(t, memory)
	assert.Equal(t, 100, memory.Capacity())
	assert.Equal(t, 0, memory.Len())
	assert.False(t, memory.IsFull())

	assert.Equal(t, DefaultCapacity, newTestMemory(0).Capacity())
}

func TestReplayMemory_PushAndSnapshot(t *testing.T) {
	memory := newTestMemory(10)

	for i := 0; i < 5; i++ {
		memory.Push(createTestTransition(i))
	}

	assert.Equal(t, 5, memory.Len())
	snapshot := memory.Snapshot()
	require.Len(t, snapshot, 5)
	for i, tr := range snapshot {
		assert.Equal(t, float64(i), tr.Reward)
	}
}

func TestReplayMemory_CircularBehavior(t *testing.T) {
	memory := newTestMemory(3)

	for i := 0; i < 5; i++ {
		memory.Push(createTestTransition(i))
	}

	assert.Equal(t, 3, memory.Len())
	assert.True(t, memory.IsFull())

	// only the last three survive, oldest first
	snapshot := memory.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, 2.0, snapshot[0].Reward)
	assert.Equal(t, 3.0, snapshot[1].Reward)
	assert.Equal(t, 4.0, snapshot[2].Reward)

	stats := memory.Stats()
	assert.Equal(t, int64(5), stats.TotalAdded)
	assert.Equal(t, int64(2), stats.TotalDropped)
	assert.Equal(t, 100.0, stats.UtilizationPct)
}

func TestReplayMemory_PushCopiesSlices(t *testing.T) {
	memory := newTestMemory(4)
	tr := createTestTransition(1)
	memory.Push(tr)

	tr.State[0] = 99
	tr.NextState[0] = 99
	got := memory.Snapshot()[0]
	assert.Equal(t, 1.0, got.State[0])
	assert.Equal(t, 2.0, got.NextState[0])

	sample, err := memory.Sample(1)
	require.NoError(t, err)
	sample[0].State[0] = 42
	assert.Equal(t, 1.0, memory.Snapshot()[0].State[0])
}

func TestReplayMemory_SampleErrors(t *testing.T) {
	memory := newTestMemory(10)
	for i := 0; i < 3; i++ {
		memory.Push(createTestTransition(i))
	}

	_, err := memory.Sample(4)
	assert.ErrorIs(t, err, ErrUnderfull)
	_, err = memory.Sample(0)
	assert.ErrorIs(t, err, ErrInvalidSampleSize)
	_, err = memory.Sample(-2)
	assert.ErrorIs(t, err, ErrInvalidSampleSize)

	_, err = memory.Sample(3)
	assert.NoError(t, err)
}

func TestReplayMemory_SampleWithoutReplacement(t *testing.T) {
	memory := newTestMemory(50)
	for i := 0; i < 80; i++ {
		memory.Push(createTestTransition(i))
	}

	for round := 0; round < 100; round++ {
		batch, err := memory.Sample(50)
		require.NoError(t, err)
		seen := make(map[float64]bool, len(batch))
		for _, tr := range batch {
			assert.False(t, seen[tr.Reward], "transition %v sampled twice", tr.Reward)
			seen[tr.Reward] = true
			assert.GreaterOrEqual(t, tr.Reward, 30.0, "evicted transition sampled")
		}
		assert.Len(t, seen, 50)
	}
}

func TestReplayMemory_SampleIsRoughlyUniform(t *testing.T) {
	memory := newTestMemory(10)
	for i := 0; i < 10; i++ {
		memory.Push(createTestTransition(i))
	}

	counts := make(map[float64]int)
	const draws = 5000
	for i := 0; i < draws; i++ {
		batch, err := memory.Sample(2)
		require.NoError(t, err)
		for _, tr := range batch {
			counts[tr.Reward]++
		}
	}

	// each transition is expected 1000 times
	for id := 0; id < 10; id++ {
		assert.InDelta(t, 1000, counts[float64(id)], 150, "transition %d", id)
	}
	assert.Equal(t, int64(2*draws), memory.Stats().TotalSampled)
}

func TestReplayMemory_SameSeedSameSamples(t *testing.T) {
	a := newTestMemory(20)
	b := newTestMemory(20)
	for i := 0; i < 20; i++ {
		a.Push(createTestTransition(i))
		b.Push(createTestTransition(i))
	}
	for i := 0; i < 10; i++ {
		sa, _ := a.Sample(5)
		sb, _ := b.Sample(5)
		assert.Equal(t, sa, sb)
	}
}

func TestReplayMemory_Clear(t *testing.T) {
	memory := newTestMemory(10)
	for i := 0; i < 5; i++ {
		memory.Push(createTestTransition(i))
	}

	memory.Clear()

	assert.Equal(t, 0, memory.Len())
	assert.Empty(t, memory.Snapshot())
	assert.Equal(t, int64(5), memory.Stats().TotalAdded)

	memory.Push(createTestTransition(7))
	assert.Equal(t, 1, memory.Len())
}

func TestReplayMemory_ConcurrentAccess(t *testing.T) {
	memory := newTestMemory(1000)

	var wg sync.WaitGroup
	numWriters := 10
	writesPerWriter := 100

	for w := 0; w < numWriters; w++ {
		wg.Add(1)
		go func(writerID int) {
			defer wg.Done()
			for i := 0; i < writesPerWriter; i++ {
				memory.Push(createTestTransition(writerID*writesPerWriter + i))
			}
		}(w)
	}

	numReaders := 5
	for r := 0; r < numReaders; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if memory.Len() >= 5 {
					_, err := memory.Sample(5)
					assert.NoError(t, err)
				}
				_ = memory.Stats()
			}
		}()
	}

	wg.Wait()

	stats := memory.Stats()
	assert.Equal(t, int64(numWriters*writesPerWriter), stats.TotalAdded)
	assert.Equal(t, 1000, stats.CurrentSize)
}
