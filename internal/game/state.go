package game

import (
	"fmt"
	"slices"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/states"
)

// PlayerID identifies a seat in a training round
type PlayerID int

const (
	PlayerAgent PlayerID = iota
	PlayerOpponent
)

func (p PlayerID) String() string {
	switch p {
	case PlayerAgent:
		return "agent"
	case PlayerOpponent:
		return "opponent"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// PlayerState is one player's dice and remaining budget
type PlayerState struct {
	Rolls       []int
	RerollsLeft int
	MaxRerolls  int
}

// Sum returns the total of the player's faces
func (p PlayerState) Sum() int {
	return dice.Sum(p.Rolls)
}

func (p PlayerState) clone() PlayerState {
	p.Rolls = slices.Clone(p.Rolls)
	return p
}

// RoundState is the semantic state of a training round. Numeric encoding for
// the approximator lives in Encoder.
type RoundState struct {
	Dice     []int
	Target   int
	Agent    PlayerState
	Opponent PlayerState
	Active   PlayerID
	Phase    states.RoundPhase
}

// Player returns the state of the given seat
func (s *RoundState) Player(id PlayerID) (*PlayerState, error) {
	switch id {
	case PlayerAgent:
		return &s.Agent, nil
	case PlayerOpponent:
		return &s.Opponent, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayer, id)
	}
}

// Clone returns a deep copy
func (s RoundState) Clone() RoundState {
	s.Dice = slices.Clone(s.Dice)
	s.Agent = s.Agent.clone()
	s.Opponent = s.Opponent.clone()
	return s
}
