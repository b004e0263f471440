package subscribers

import (
	"sync"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/events"
)

// Tally is a per-seat scoreboard built from match events
type Tally struct {
	Matches     int    `json:"matches"`
	MatchWins   [2]int `json:"match_wins"`
	MatchDraws  int    `json:"match_draws"`
	Rounds      int    `json:"rounds"`
	RoundWins   [2]int `json:"round_wins"`
	RoundDraws  int    `json:"round_draws"`
	Turns       [2]int `json:"turns"`
	Busts       [2]int `json:"busts"`
	RerollsUsed [2]int `json:"rerolls_used"`
	SumTotal    [2]int `json:"sum_total"`
}

// BustRate is the fraction of seat's turns that went over the target
func (t Tally) BustRate(seat int) float64 {
	if t.Turns[seat] == 0 {
		return 0
	}
	return float64(t.Busts[seat]) / float64(t.Turns[seat])
}

// MeanSum is seat's average final sum, busts included
func (t Tally) MeanSum(seat int) float64 {
	if t.Turns[seat] == 0 {
		return 0
	}
	return float64(t.SumTotal[seat]) / float64(t.Turns[seat])
}

// MeanRerolls is the average number of rerolls seat used per turn
func (t Tally) MeanRerolls(seat int) float64 {
	if t.Turns[seat] == 0 {
		return 0
	}
	return float64(t.RerollsUsed[seat]) / float64(t.Turns[seat])
}

// TallySubscriber accumulates a Tally over every match it sees
type TallySubscriber struct {
	id    string
	mu    sync.Mutex
	tally Tally
}

// NewTallySubscriber creates an empty scoreboard
func NewTallySubscriber(id string) *TallySubscriber {
	return &TallySubscriber{id: id}
}

// ID returns the subscriber's unique identifier
func (ts *TallySubscriber) ID() string {
	return ts.id
}

// InterestedIn returns true for turn, round and match results
func (ts *TallySubscriber) InterestedIn(eventType string) bool {
	switch eventType {
	case events.TypeTurnPlayed, events.TypeRoundFinished, events.TypeMatchFinished:
		return true
	}
	return false
}

// HandleEvent folds an event into the tally
func (ts *TallySubscriber) HandleEvent(event events.Event) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	switch e := event.(type) {
	case *events.TurnPlayedEvent:
		ts.tally.Turns[e.Seat]++
		ts.tally.RerollsUsed[e.Seat] += e.RerollsUsed
		ts.tally.SumTotal[e.Seat] += e.Sum
		if e.Bust {
			ts.tally.Busts[e.Seat]++
		}
	case *events.RoundFinishedEvent:
		ts.tally.Rounds++
		if e.Winner < 0 {
			ts.tally.RoundDraws++
		} else {
			ts.tally.RoundWins[e.Winner]++
		}
	case *events.MatchFinishedEvent:
		ts.tally.Matches++
		if e.Winner < 0 {
			ts.tally.MatchDraws++
		} else {
			ts.tally.MatchWins[e.Winner]++
		}
	}
}

// Tally returns a copy of the scoreboard
func (ts *TallySubscriber) Tally() Tally {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.tally
}

// Reset clears the scoreboard
func (ts *TallySubscriber) Reset() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tally = Tally{}
}
