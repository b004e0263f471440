package states

import "fmt"

// RoundPhase represents where a round is in its turn sequence
type RoundPhase int

const (
	// PhaseAgentTurn - the learning agent is choosing rerolls
	PhaseAgentTurn RoundPhase = iota

	// PhaseOpponentResolving - the scripted opponent plays its whole turn
	PhaseOpponentResolving

	// PhaseRoundOver - both turns are done and the round is scored
	PhaseRoundOver
)

// String returns the string representation of a RoundPhase
func (p RoundPhase) String() string {
	switch p {
	case PhaseAgentTurn:
		return "agent_turn"
	case PhaseOpponentResolving:
		return "opponent_resolving"
	case PhaseRoundOver:
		return "round_over"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true if no further steps are accepted in this phase
func (p RoundPhase) IsTerminal() bool {
	return p == PhaseRoundOver
}

// CanReceiveActions returns true if the agent may act in this phase
func (p RoundPhase) CanReceiveActions() bool {
	return p == PhaseAgentTurn
}

// AllowedTransitions returns the valid phases this phase can transition to
func (p RoundPhase) AllowedTransitions() []RoundPhase {
	switch p {
	case PhaseAgentTurn:
		return []RoundPhase{PhaseOpponentResolving}
	case PhaseOpponentResolving:
		return []RoundPhase{PhaseRoundOver}
	case PhaseRoundOver:
		return []RoundPhase{PhaseAgentTurn}
	default:
		return []RoundPhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p RoundPhase) CanTransitionTo(target RoundPhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to a RoundPhase
func ParsePhase(s string) (RoundPhase, error) {
	switch s {
	case "agent_turn":
		return PhaseAgentTurn, nil
	case "opponent_resolving":
		return PhaseOpponentResolving, nil
	case "round_over":
		return PhaseRoundOver, nil
	default:
		return PhaseAgentTurn, fmt.Errorf("unknown round phase %q", s)
	}
}
