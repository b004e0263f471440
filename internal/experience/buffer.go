package experience

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrUnderfull is returned when a sample asks for more transitions than are stored
	ErrUnderfull = errors.New("replay memory holds fewer transitions than requested")
	// ErrInvalidSampleSize is returned for non-positive sample sizes
	ErrInvalidSampleSize = errors.New("sample size must be positive")
)

// DefaultCapacity is used when a non-positive capacity is requested
const DefaultCapacity = 10000

// Transition is one (s, a, r, s', done) tuple
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Done      bool
}

func (t Transition) clone() Transition {
	t.State = slices.Clone(t.State)
	t.NextState = slices.Clone(t.NextState)
	return t
}

// ReplayMemory is a fixed-capacity circular store of transitions with
// uniform sampling. Once full every push overwrites the oldest transition.
type ReplayMemory struct {
	mu       sync.RWMutex
	buffer   []Transition
	capacity int
	size     int
	head     int // Write position
	tail     int // Oldest transition

	rng *rand.Rand

	// Statistics
	totalAdded   int64
	totalDropped int64
	totalSampled int64

	logger zerolog.Logger
}

// NewReplayMemory creates a replay memory drawing samples from rng
func NewReplayMemory(capacity int, rng *rand.Rand, logger zerolog.Logger) *ReplayMemory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &ReplayMemory{
		buffer:   make([]Transition, capacity),
		capacity: capacity,
		rng:      rng,
		logger:   logger.With().Str("component", "replay_memory").Logger(),
	}
}

// Push stores a copy of t, evicting the oldest transition at capacity
func (m *ReplayMemory) Push(t Transition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.size >= m.capacity {
		m.tail = (m.tail + 1) % m.capacity
		m.totalDropped++
		if m.totalDropped == 1 {
			m.logger.Debug().
				Int("capacity", m.capacity).
				Msg("Replay memory full, dropping oldest transitions")
		}
	} else {
		m.size++
	}

	m.buffer[m.head] = t.clone()
	m.head = (m.head + 1) % m.capacity
	m.totalAdded++
}

// Sample returns n distinct transitions chosen uniformly at random. The
// returned transitions share no memory with the store.
func (m *ReplayMemory) Sample(n int) ([]Transition, error) {
	// rng is not safe for concurrent use, so sampling takes the write lock
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleSize, n)
	}
	if n > m.size {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrUnderfull, n, m.size)
	}

	result := make([]Transition, 0, n)
	for _, offset := range m.pickDistinct(n) {
		idx := (m.tail + offset) % m.capacity
		result = append(result, m.buffer[idx].clone())
	}
	m.totalSampled += int64(n)

	return result, nil
}

// pickDistinct draws n distinct offsets in [0, size) with Floyd's algorithm
func (m *ReplayMemory) pickDistinct(n int) []int {
	chosen := make(map[int]struct{}, n)
	picks := make([]int, 0, n)
	for j := m.size - n; j < m.size; j++ {
		t := m.rng.Intn(j + 1)
		if _, dup := chosen[t]; dup {
			t = j
		}
		chosen[t] = struct{}{}
		picks = append(picks, t)
	}
	return picks
}

// Snapshot returns copies of every stored transition, oldest first
func (m *ReplayMemory) Snapshot() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Transition, m.size)
	for i := 0; i < m.size; i++ {
		result[i] = m.buffer[(m.tail+i)%m.capacity].clone()
	}
	return result
}

// Len returns the current number of stored transitions
func (m *ReplayMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// Capacity returns the maximum number of stored transitions
func (m *ReplayMemory) Capacity() int {
	return m.capacity
}

// IsFull returns true if the memory is at capacity
func (m *ReplayMemory) IsFull() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size >= m.capacity
}

// Clear removes all transitions. Counters are kept.
func (m *ReplayMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.size = 0
	m.head = 0
	m.tail = 0
	m.buffer = make([]Transition, m.capacity)

	m.logger.Debug().Msg("Replay memory cleared")
}

// Stats returns memory statistics
func (m *ReplayMemory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		CurrentSize:    m.size,
		Capacity:       m.capacity,
		TotalAdded:     m.totalAdded,
		TotalDropped:   m.totalDropped,
		TotalSampled:   m.totalSampled,
		UtilizationPct: float64(m.size) / float64(m.capacity) * 100,
	}
}

// Stats contains replay memory statistics
type Stats struct {
	CurrentSize    int
	Capacity       int
	TotalAdded     int64
	TotalDropped   int64
	TotalSampled   int64
	UtilizationPct float64
}
