package trainer

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/nn"
)

// Config holds the DQN hyperparameters of one training run
type Config struct {
	Episodes     int
	BatchSize    int
	Gamma        float64
	LearningRate float64

	EpsilonStart float64
	EpsilonEnd   float64
	// EpsilonDecay is the number of steps over which exploration decays by a factor of e
	EpsilonDecay float64

	// TargetUpdate is the episode interval between target network syncs
	TargetUpdate   int
	MemoryCapacity int
	Hidden         []int

	// LogEvery is the episode interval between progress log lines, 0 disables them
	LogEvery int
	Seed     int64
}

// DefaultConfig returns the standard training setup
func DefaultConfig() Config {
	return Config{
		Episodes:       10000,
		BatchSize:      64,
		Gamma:          0.99,
		LearningRate:   1e-3,
		EpsilonStart:   1.0,
		EpsilonEnd:     0.1,
		EpsilonDecay:   5000,
		TargetUpdate:   500,
		MemoryCapacity: 10000,
		Hidden:         append([]int(nil), nn.DefaultHidden...),
		LogEvery:       500,
		Seed:           1,
	}
}

// Validate reports every invalid hyperparameter at once
func (c Config) Validate() error {
	var result error

	if c.Episodes <= 0 {
		result = multierror.Append(result, fmt.Errorf("episodes must be positive, got %d", c.Episodes))
	}
	if c.BatchSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("batch size must be positive, got %d", c.BatchSize))
	}
	if c.MemoryCapacity < c.BatchSize {
		result = multierror.Append(result, fmt.Errorf("memory capacity %d is smaller than batch size %d", c.MemoryCapacity, c.BatchSize))
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		result = multierror.Append(result, fmt.Errorf("gamma must be in [0, 1], got %g", c.Gamma))
	}
	if c.LearningRate <= 0 {
		result = multierror.Append(result, fmt.Errorf("learning rate must be positive, got %g", c.LearningRate))
	}
	if c.EpsilonStart < 0 || c.EpsilonStart > 1 || c.EpsilonEnd < 0 || c.EpsilonEnd > 1 {
		result = multierror.Append(result, fmt.Errorf("epsilon bounds must be in [0, 1], got %g and %g", c.EpsilonStart, c.EpsilonEnd))
	}
	if c.EpsilonDecay <= 0 {
		result = multierror.Append(result, fmt.Errorf("epsilon decay must be positive, got %g", c.EpsilonDecay))
	}
	if c.TargetUpdate <= 0 {
		result = multierror.Append(result, fmt.Errorf("target update interval must be positive, got %d", c.TargetUpdate))
	}
	if c.LogEvery < 0 {
		result = multierror.Append(result, fmt.Errorf("log interval must not be negative, got %d", c.LogEvery))
	}
	for i, h := range c.Hidden {
		if h <= 0 {
			result = multierror.Append(result, fmt.Errorf("hidden layer %d has width %d", i, h))
		}
	}

	return result
}

// Epsilon is the exploration rate after steps environment steps:
// end + (start - end) * exp(-steps / decay)
func (c Config) Epsilon(steps int) float64 {
	return c.EpsilonEnd + (c.EpsilonStart-c.EpsilonEnd)*math.Exp(-float64(steps)/c.EpsilonDecay)
}
