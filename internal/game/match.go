package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/events"
)

// DefaultRoundsPerMatch is the length of a standard match
const DefaultRoundsPerMatch = 7

// RoundRecord is the log of one match round
type RoundRecord struct {
	Number     int           `json:"round"`
	FirstMover int           `json:"first_mover"`
	Turns      [2]TurnResult `json:"turns"`
	Points     [2]int        `json:"points"`
	// Winner is the winning seat, -1 on a draw
	Winner int `json:"winner"`
}

// MatchResult is the full log and final score of a match
type MatchResult struct {
	ID         string        `json:"id"`
	Collection string        `json:"collection"`
	Players    [2]string     `json:"players"`
	Rounds     []RoundRecord `json:"rounds"`
	Points     [2]int        `json:"final_score"`
	// Winner is the winning seat, -1 on a draw
	Winner int `json:"winner"`
}

// Match plays a series of rounds between two players. Seat 0 moves first in
// round one; the order alternates every round and the first mover always gets
// the larger reroll budget.
type Match struct {
	collection dice.Collection
	rules      Rules
	rounds     int
	players    [2]TurnPlayer
	publisher  events.Publisher
	logger     zerolog.Logger
}

// NewMatch creates a match of rounds rounds between a (seat 0) and b (seat 1)
func NewMatch(c dice.Collection, rules Rules, rounds int, a, b TurnPlayer, logger zerolog.Logger) (*Match, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("match needs at least one round, got %d", rounds)
	}
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: match needs two players", ErrInvalidPlayer)
	}
	return &Match{
		collection: c.Clone(),
		rules:      rules,
		rounds:     rounds,
		players:    [2]TurnPlayer{a, b},
		logger:     logger.With().Str("component", "match").Str("collection", c.Key).Logger(),
	}, nil
}

// SetPublisher makes the match publish start, turn, round and finish events
func (m *Match) SetPublisher(p events.Publisher) {
	m.publisher = p
}

func (m *Match) publish(e events.Event) {
	if m.publisher != nil {
		m.publisher.Publish(e)
	}
}

// Play runs every round and returns the match log
func (m *Match) Play() (MatchResult, error) {
	start := time.Now()
	result := MatchResult{
		ID:         uuid.New().String(),
		Collection: m.collection.Key,
		Players:    [2]string{m.players[0].Name(), m.players[1].Name()},
		Rounds:     make([]RoundRecord, 0, m.rounds),
		Winner:     -1,
	}

	m.publish(events.NewMatchStartedEvent(result.ID, result.Collection, result.Players, m.rounds))

	first := 0
	for n := 1; n <= m.rounds; n++ {
		record, err := m.playRound(result.ID, n, first)
		if err != nil {
			return result, fmt.Errorf("match %s round %d: %w", result.ID, n, err)
		}
		result.Points[0] += record.Points[0]
		result.Points[1] += record.Points[1]
		result.Rounds = append(result.Rounds, record)
		first = 1 - first
	}

	switch {
	case result.Points[0] > result.Points[1]:
		result.Winner = 0
	case result.Points[1] > result.Points[0]:
		result.Winner = 1
	}

	m.publish(events.NewMatchFinishedEvent(result.ID, result.Points, result.Winner, time.Since(start)))
	m.logger.Info().
		Str("match_id", result.ID).
		Str("player_0", result.Players[0]).
		Str("player_1", result.Players[1]).
		Int("points_0", result.Points[0]).
		Int("points_1", result.Points[1]).
		Int("winner", result.Winner).
		Msg("Match finished")

	return result, nil
}

func (m *Match) playRound(matchID string, number, first int) (RoundRecord, error) {
	record := RoundRecord{Number: number, FirstMover: first, Winner: -1}
	second := 1 - first

	budgets := [2]int{}
	budgets[first] = m.rules.FirstMoverRerolls
	budgets[second] = m.rules.SecondMoverRerolls

	for _, seat := range [2]int{first, second} {
		turn, err := m.players[seat].PlayTurn(m.collection.Dice, budgets[seat])
		if err != nil {
			return record, fmt.Errorf("%s turn: %w", m.players[seat].Name(), err)
		}
		record.Turns[seat] = turn
		m.publish(events.NewTurnPlayedEvent(matchID, number, seat, m.players[seat].Name(),
			budgets[seat], len(turn.Rerolls()), turn.Rolls, turn.Sum, dice.IsBust(turn.Sum, m.collection.Target)))
	}

	outcome, p0, p1 := DetermineWinner(record.Turns[0].Sum, record.Turns[1].Sum, m.collection.Target)
	record.Points = [2]int{p0, p1}
	switch outcome {
	case OutcomeWin:
		record.Winner = 0
	case OutcomeLoss:
		record.Winner = 1
	}

	m.publish(events.NewRoundFinishedEvent(matchID, number, first,
		[2]int{record.Turns[0].Sum, record.Turns[1].Sum}, record.Points, record.Winner))
	m.logger.Debug().
		Int("round", number).
		Int("first_mover", first).
		Int("sum_0", record.Turns[0].Sum).
		Int("sum_1", record.Turns[1].Sum).
		Int("winner", record.Winner).
		Msg("Round finished")

	return record, nil
}
