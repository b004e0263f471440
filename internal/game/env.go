package game

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/common"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/states"
)

// StepInfo carries the details of a step that a learner does not need but a
// log or test does
type StepInfo struct {
	Phase     states.RoundPhase
	Reroll    *RerollInfo
	TurnEnded bool
	// Forced is set when the agent asked for a reroll with no budget left
	Forced bool

	AgentSum      int
	OpponentSum   int
	AgentScore    int
	OpponentScore int
	Outcome       Outcome

	// OpponentTurn is the scripted opponent's turn log, set once the round is over
	OpponentTurn *TurnResult
}

// StepResult is the outcome of Env.Step
type StepResult struct {
	Observation Observation
	Reward      float64
	Done        bool
	Info        StepInfo
}

// Env is one two-player round seen from the learning agent's seat. The
// scripted opponent's turn is resolved inside the step that ends the agent's
// turn, so the learner only ever observes its own decisions.
type Env struct {
	collection dice.Collection
	rules      Rules
	rewards    RewardConfig
	roller     *dice.Roller
	heuristic  Heuristic
	encoder    Encoder
	machine    *states.Machine

	state   RoundState
	started bool
	done    bool
	rounds  int

	logger zerolog.Logger
}

// NewEnv creates an environment for collection c
func NewEnv(c dice.Collection, rules Rules, rewards RewardConfig, roller *dice.Roller, logger zerolog.Logger) (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if roller == nil {
		return nil, fmt.Errorf("environment requires a dice roller")
	}

	logger = logger.With().Str("component", "round_env").Str("collection", c.Key).Logger()
	return &Env{
		collection: c.Clone(),
		rules:      rules,
		rewards:    rewards,
		roller:     roller,
		heuristic:  Heuristic{Margin: rules.OpponentMargin},
		encoder:    NewEncoder(c, rules.FirstMoverRerolls),
		machine:    states.NewMachine(logger),
		logger:     logger,
	}, nil
}

// Reset starts a fresh round: both players roll, budgets are set to the
// first/second mover maxima and control goes to the agent
func (e *Env) Reset() Observation {
	e.machine.ForceRestart()

	agentRolls := e.roller.RollAll(e.collection.Dice)
	opponentRolls := e.roller.RollAll(e.collection.Dice)

	e.state = RoundState{
		Dice:   e.collection.Dice,
		Target: e.collection.Target,
		Agent: PlayerState{
			Rolls:       agentRolls,
			RerollsLeft: e.rules.FirstMoverRerolls,
			MaxRerolls:  e.rules.FirstMoverRerolls,
		},
		Opponent: PlayerState{
			Rolls:       opponentRolls,
			RerollsLeft: e.rules.SecondMoverRerolls,
			MaxRerolls:  e.rules.SecondMoverRerolls,
		},
		Active: PlayerAgent,
		Phase:  states.PhaseAgentTurn,
	}
	e.started = true
	e.done = false
	e.rounds++

	e.logger.Debug().
		Int("round", e.rounds).
		Ints("agent_rolls", agentRolls).
		Ints("opponent_rolls", opponentRolls).
		Msg("Round reset")

	return e.observe()
}

// Step applies an agent action. Actions 0..D-1 reroll that die, D stops.
func (e *Env) Step(action int) (StepResult, error) {
	if !e.started {
		return StepResult{}, ErrRoundNotStarted
	}
	if e.done {
		return StepResult{}, ErrRoundOver
	}
	stop := e.collection.StopAction()
	if !common.IsValidIndex(action, e.collection.NumActions()) {
		return StepResult{}, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidAction, action, stop)
	}

	var info StepInfo
	agent := &e.state.Agent

	switch {
	case action == stop:
		info.TurnEnded = true
	case agent.RerollsLeft > 0:
		old := agent.Rolls[action]
		agent.Rolls[action] = e.roller.Roll(e.collection.Dice[action])
		agent.RerollsLeft--
		info.Reroll = &RerollInfo{Index: action, Old: old, New: agent.Rolls[action]}
	default:
		info.TurnEnded = true
		info.Forced = true
	}

	if !info.TurnEnded {
		info.Phase = e.machine.Current()
		info.AgentSum = agent.Sum()
		info.OpponentSum = e.state.Opponent.Sum()
		return StepResult{Observation: e.observe(), Info: info}, nil
	}

	reward, err := e.finishRound(&info)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Observation: e.observe(), Reward: reward, Done: true, Info: info}, nil
}

// finishRound hands control to the scripted opponent, resolves its turn and
// scores the round
func (e *Env) finishRound(info *StepInfo) (float64, error) {
	if err := e.machine.TransitionTo(states.PhaseOpponentResolving, "agent turn ended"); err != nil {
		return 0, err
	}
	e.state.Phase = states.PhaseOpponentResolving
	e.state.Active = PlayerOpponent

	opp := &e.state.Opponent
	turn := e.heuristic.ResolveTurn(opp.Rolls, e.collection.Dice, e.collection.Target, opp.RerollsLeft, e.roller)
	opp.Rolls = turn.Rolls
	opp.RerollsLeft = turn.Log[len(turn.Log)-1].RerollsLeft

	if err := e.machine.TransitionTo(states.PhaseRoundOver, "opponent turn resolved"); err != nil {
		return 0, err
	}
	e.state.Phase = states.PhaseRoundOver
	e.done = true

	agentSum := e.state.Agent.Sum()
	outcome, _, _ := DetermineWinner(agentSum, turn.Sum, e.collection.Target)
	reward := e.rewards.RewardFor(outcome)

	info.Phase = states.PhaseRoundOver
	info.AgentSum = agentSum
	info.OpponentSum = turn.Sum
	info.AgentScore = dice.Score(agentSum, e.collection.Target)
	info.OpponentScore = dice.Score(turn.Sum, e.collection.Target)
	info.Outcome = outcome
	info.OpponentTurn = &turn

	e.logger.Debug().
		Int("round", e.rounds).
		Int("agent_sum", agentSum).
		Int("opponent_sum", turn.Sum).
		Str("outcome", outcome.String()).
		Float64("reward", reward).
		Msg("Round scored")

	return reward, nil
}

// observe encodes the agent's view. After the round is over this is the
// agent's final dice.
func (e *Env) observe() Observation {
	return e.encoder.Encode(e.state.Agent.Rolls, e.state.Agent.RerollsLeft)
}

// State returns a deep copy of the round state
func (e *Env) State() RoundState {
	return e.state.Clone()
}

// Done reports whether the current round has been scored
func (e *Env) Done() bool {
	return e.done
}

// Collection returns the collection this environment plays
func (e *Env) Collection() dice.Collection {
	return e.collection.Clone()
}

// Rules returns the environment's turn rules
func (e *Env) Rules() Rules {
	return e.rules
}

// Encoder returns the observation encoder
func (e *Env) Encoder() Encoder {
	return e.encoder
}

// NumActions is the action space size
func (e *Env) NumActions() int {
	return e.collection.NumActions()
}

// ObservationSize is the encoded observation length
func (e *Env) ObservationSize() int {
	return e.encoder.Size()
}

// PhaseHistory returns the phase transitions of the current round
func (e *Env) PhaseHistory() []states.Transition {
	return e.machine.History()
}
