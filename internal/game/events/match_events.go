package events

import (
	"time"

	"github.com/rs/zerolog"
)

// Event type constants
const (
	TypeMatchStarted  = "match.started"
	TypeTurnPlayed    = "turn.played"
	TypeRoundFinished = "round.finished"
	TypeMatchFinished = "match.finished"
)

// MatchStartedEvent is published before the first round
type MatchStartedEvent struct {
	BaseEvent
	Collection string    `json:"collection"`
	Players    [2]string `json:"players"`
	Rounds     int       `json:"rounds"`
}

// NewMatchStartedEvent creates a new MatchStartedEvent
func NewMatchStartedEvent(matchID, collection string, players [2]string, rounds int) *MatchStartedEvent {
	return &MatchStartedEvent{
		BaseEvent:  newBase(TypeMatchStarted, matchID),
		Collection: collection,
		Players:    players,
		Rounds:     rounds,
	}
}

// TurnPlayedEvent is published after each seat's turn
type TurnPlayedEvent struct {
	BaseEvent
	Round       int    `json:"round"`
	Seat        int    `json:"seat"`
	Player      string `json:"player"`
	Budget      int    `json:"budget"`
	RerollsUsed int    `json:"rerolls_used"`
	Rolls       []int  `json:"rolls"`
	Sum         int    `json:"sum"`
	Bust        bool   `json:"bust"`
}

// NewTurnPlayedEvent creates a new TurnPlayedEvent
func NewTurnPlayedEvent(matchID string, round, seat int, player string, budget, used int, rolls []int, sum int, bust bool) *TurnPlayedEvent {
	return &TurnPlayedEvent{
		BaseEvent:   newBase(TypeTurnPlayed, matchID),
		Round:       round,
		Seat:        seat,
		Player:      player,
		Budget:      budget,
		RerollsUsed: used,
		Rolls:       rolls,
		Sum:         sum,
		Bust:        bust,
	}
}

// RoundFinishedEvent is published once both seats have played a round
type RoundFinishedEvent struct {
	BaseEvent
	Round      int    `json:"round"`
	FirstMover int    `json:"first_mover"`
	Sums       [2]int `json:"sums"`
	Points     [2]int `json:"points"`
	// Winner is the winning seat, -1 on a draw
	Winner int `json:"winner"`
}

// NewRoundFinishedEvent creates a new RoundFinishedEvent
func NewRoundFinishedEvent(matchID string, round, firstMover int, sums, points [2]int, winner int) *RoundFinishedEvent {
	return &RoundFinishedEvent{
		BaseEvent:  newBase(TypeRoundFinished, matchID),
		Round:      round,
		FirstMover: firstMover,
		Sums:       sums,
		Points:     points,
		Winner:     winner,
	}
}

// MatchFinishedEvent is published after the last round
type MatchFinishedEvent struct {
	BaseEvent
	Points [2]int `json:"final_score"`
	// Winner is the winning seat, -1 on a draw
	Winner   int           `json:"winner"`
	Duration time.Duration `json:"duration"`
}

// NewMatchFinishedEvent creates a new MatchFinishedEvent
func NewMatchFinishedEvent(matchID string, points [2]int, winner int, duration time.Duration) *MatchFinishedEvent {
	return &MatchFinishedEvent{
		BaseEvent: newBase(TypeMatchFinished, matchID),
		Points:    points,
		Winner:    winner,
		Duration:  duration,
	}
}

// The events below implement zerolog.LogObjectMarshaler so subscribers can
// embed their fields without switching on the concrete type.

func (e *MatchStartedEvent) MarshalZerologObject(z *zerolog.Event) {
	z.Str("collection", e.Collection).
		Str("player_0", e.Players[0]).
		Str("player_1", e.Players[1]).
		Int("rounds", e.Rounds)
}

func (e *TurnPlayedEvent) MarshalZerologObject(z *zerolog.Event) {
	z.Int("round", e.Round).
		Int("seat", e.Seat).
		Str("player", e.Player).
		Int("budget", e.Budget).
		Int("rerolls_used", e.RerollsUsed).
		Ints("rolls", e.Rolls).
		Int("sum", e.Sum).
		Bool("bust", e.Bust)
}

func (e *RoundFinishedEvent) MarshalZerologObject(z *zerolog.Event) {
	z.Int("round", e.Round).
		Int("first_mover", e.FirstMover).
		Int("sum_0", e.Sums[0]).
		Int("sum_1", e.Sums[1]).
		Int("winner", e.Winner)
}

func (e *MatchFinishedEvent) MarshalZerologObject(z *zerolog.Event) {
	z.Int("points_0", e.Points[0]).
		Int("points_1", e.Points[1]).
		Int("winner", e.Winner).
		Dur("duration", e.Duration)
}
