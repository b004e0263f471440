package states

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Transition represents a phase change in the history
type Transition struct {
	From   RoundPhase
	To     RoundPhase
	Reason string
}

// Machine tracks the phase of a single round and rejects transitions the
// turn sequence does not allow. It is owned by one environment and is not
// safe for concurrent use.
type Machine struct {
	current        RoundPhase
	history        []Transition
	maxHistorySize int
	logger         zerolog.Logger
}

// NewMachine creates a machine starting in PhaseAgentTurn
func NewMachine(logger zerolog.Logger) *Machine {
	return &Machine{
		current:        PhaseAgentTurn,
		history:        make([]Transition, 0, 8),
		maxHistorySize: 64,
		logger:         logger.With().Str("component", "round_phase").Logger(),
	}
}

// Current returns the current phase
func (m *Machine) Current() RoundPhase {
	return m.current
}

// TransitionTo attempts to move to the target phase
func (m *Machine) TransitionTo(target RoundPhase, reason string) error {
	if !m.current.CanTransitionTo(target) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, target)
	}

	m.addToHistory(Transition{From: m.current, To: target, Reason: reason})
	previous := m.current
	m.current = target

	m.logger.Debug().
		Str("from_phase", previous.String()).
		Str("to_phase", target.String()).
		Str("reason", reason).
		Msg("Phase transition")

	return nil
}

// Restart returns a finished round to PhaseAgentTurn and clears the history.
// Restarting from any phase other than PhaseRoundOver is only allowed before
// the first transition.
func (m *Machine) Restart() error {
	if m.current != PhaseRoundOver && len(m.history) > 0 {
		return fmt.Errorf("cannot restart round in phase %s", m.current)
	}
	m.history = m.history[:0]
	m.current = PhaseAgentTurn
	return nil
}

// ForceRestart resets to PhaseAgentTurn regardless of the current phase.
// Environments use it on Reset, which may abandon a round half way.
func (m *Machine) ForceRestart() {
	m.history = m.history[:0]
	m.current = PhaseAgentTurn
}

// addToHistory adds a transition to the history, maintaining max size
func (m *Machine) addToHistory(transition Transition) {
	m.history = append(m.history, transition)
	if len(m.history) > m.maxHistorySize {
		m.history = m.history[len(m.history)-m.maxHistorySize:]
	}
}

// History returns a copy of the transition history
func (m *Machine) History() []Transition {
	history := make([]Transition, len(m.history))
	copy(history, m.history)
	return history
}
