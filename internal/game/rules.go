package game

import "fmt"

// Rules holds the turn rules shared by every round
type Rules struct {
	// FirstMoverRerolls is the reroll budget of the player who moves first
	FirstMoverRerolls int
	// SecondMoverRerolls is the reroll budget of the player who moves second
	SecondMoverRerolls int
	// OpponentMargin is how far below the target the scripted opponent
	// tolerates its sum before rerolling the lowest die
	OpponentMargin int
}

// DefaultRules returns the standard 3/2 reroll split with a margin of 4
func DefaultRules() Rules {
	return Rules{
		FirstMoverRerolls:  3,
		SecondMoverRerolls: 2,
		OpponentMargin:     4,
	}
}

// Validate checks the rules are usable
func (r Rules) Validate() error {
	if r.FirstMoverRerolls < 1 {
		return fmt.Errorf("%w: first mover needs at least one reroll (got %d)", ErrInvalidRules, r.FirstMoverRerolls)
	}
	if r.SecondMoverRerolls < 0 {
		return fmt.Errorf("%w: second mover rerolls must be non-negative (got %d)", ErrInvalidRules, r.SecondMoverRerolls)
	}
	if r.OpponentMargin < 0 {
		return fmt.Errorf("%w: opponent margin must be non-negative (got %d)", ErrInvalidRules, r.OpponentMargin)
	}
	return nil
}

// RewardConfig holds configurable terminal reward values
type RewardConfig struct {
	Win  float64
	Loss float64
	Draw float64
}

// DefaultRewardConfig returns the default reward configuration
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		Win:  2.0,
		Loss: -1.0,
		Draw: 1.0,
	}
}

// RewardFor maps a round outcome to the agent's reward
func (c RewardConfig) RewardFor(o Outcome) float64 {
	switch o {
	case OutcomeWin:
		return c.Win
	case OutcomeLoss:
		return c.Loss
	default:
		return c.Draw
	}
}
