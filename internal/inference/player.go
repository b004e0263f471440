package inference

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/nn"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/policy"
)

var (
	// ErrWrongDice is returned when a turn is requested for dice the policy was not trained on
	ErrWrongDice = errors.New("dice do not match the loaded policy")
	// ErrNegativeRerolls is returned for a negative reroll budget
	ErrNegativeRerolls = errors.New("reroll budget must not be negative")
)

// Player plays turns greedily with a trained approximator. It never updates
// the network, so one Player may be shared by sequential matches.
type Player struct {
	name       string
	network    *nn.Network
	collection dice.Collection
	encoder    game.Encoder
	roller     *dice.Roller
	logger     zerolog.Logger
}

// Load reads the artifact at path and builds a player for collection c.
// A missing or corrupt artifact, or one trained on other dice, is an error;
// there is no fallback to untrained weights.
func Load(path string, c dice.Collection, maxRerolls int, roller *dice.Roller, logger zerolog.Logger) (*Player, error) {
	a, err := policy.Load(path)
	if err != nil {
		return nil, err
	}
	if err := a.CheckCollection(c); err != nil {
		return nil, fmt.Errorf("policy %q: %w", path, err)
	}
	network, err := a.Network()
	if err != nil {
		return nil, fmt.Errorf("policy %q: %w", path, err)
	}

	norm := maxRerolls
	if a.Metadata.RerollNorm > 0 && a.Metadata.RerollNorm != maxRerolls {
		logger.Warn().
			Int("requested", maxRerolls).
			Int("trained", a.Metadata.RerollNorm).
			Str("path", path).
			Msg("Reroll normalizer differs from training, using the trained value")
		norm = a.Metadata.RerollNorm
	}

	p, err := New(network, c, norm, roller, logger)
	if err != nil {
		return nil, err
	}
	p.logger.Info().
		Str("path", path).
		Str("artifact", a.String()).
		Msg("Policy loaded")
	return p, nil
}

// New wraps an in-memory network. rerollNorm must be the budget normalizer
// the network was trained with.
func New(network *nn.Network, c dice.Collection, rerollNorm int, roller *dice.Roller, logger zerolog.Logger) (*Player, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if network == nil || roller == nil {
		return nil, fmt.Errorf("inference player needs a network and a roller")
	}
	encoder := game.NewEncoder(c, rerollNorm)
	if network.InputDim() != encoder.Size() || network.OutputDim() != c.NumActions() {
		return nil, fmt.Errorf("%w: network is %d -> %d, collection %s needs %d -> %d",
			policy.ErrDimensionMismatch, network.InputDim(), network.OutputDim(), c.Key, encoder.Size(), c.NumActions())
	}

	return &Player{
		name:       "dqn_" + c.Key,
		network:    network,
		collection: c.Clone(),
		encoder:    encoder,
		roller:     roller,
		logger:     logger.With().Str("component", "inference").Str("collection", c.Key).Logger(),
	}, nil
}

// Name implements game.TurnPlayer
func (p *Player) Name() string {
	return p.name
}

// Collection returns the collection the player was built for
func (p *Player) Collection() dice.Collection {
	return p.collection.Clone()
}

// Decide returns the greedy action for faces with rerollsLeft remaining:
// a die index to reroll or the stop action
func (p *Player) Decide(faces []int, rerollsLeft int) (int, error) {
	if len(faces) != len(p.collection.Dice) {
		return 0, fmt.Errorf("%w: got %d faces for %d dice", ErrWrongDice, len(faces), len(p.collection.Dice))
	}
	q, err := p.network.Forward(p.encoder.Encode(faces, rerollsLeft))
	if err != nil {
		return 0, err
	}
	return nn.Greedy(q), nil
}

// PlayTurn rolls diceSides and rerolls greedily until the policy stops or
// the budget runs out. It implements game.TurnPlayer.
func (p *Player) PlayTurn(diceSides []int, rerolls int) (game.TurnResult, error) {
	if !p.collection.SameDice(diceSides) {
		return game.TurnResult{}, fmt.Errorf("%w: got %v, trained on %v", ErrWrongDice, diceSides, p.collection.Dice)
	}
	if rerolls < 0 {
		return game.TurnResult{}, fmt.Errorf("%w: %d", ErrNegativeRerolls, rerolls)
	}

	rolls := p.roller.RollAll(diceSides)
	rec := game.StartTurn(diceSides, rolls, rerolls)
	stop := p.collection.StopAction()

	for left := rerolls; left > 0; {
		action, err := p.Decide(rolls, left)
		if err != nil {
			return game.TurnResult{}, err
		}
		if action == stop {
			break
		}
		old := rolls[action]
		rolls[action] = p.roller.Roll(diceSides[action])
		left--
		rec.Reroll(rolls, left, action, old)
	}

	result := rec.Result(slices.Clone(rolls))
	p.logger.Debug().
		Ints("rolls", result.Rolls).
		Int("sum", result.Sum).
		Int("rerolls_used", len(result.Rerolls())).
		Msg("Turn played")
	return result, nil
}
