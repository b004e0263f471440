package game

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/events"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/testutil"
)

// fixedPlayer stands on the same sum every turn and records its budgets
type fixedPlayer struct {
	name    string
	sum     int
	budgets []int
	err     error
}

func (p *fixedPlayer) Name() string { return p.name }

func (p *fixedPlayer) PlayTurn(diceSides []int, rerolls int) (TurnResult, error) {
	p.budgets = append(p.budgets, rerolls)
	if p.err != nil {
		return TurnResult{}, p.err
	}
	faces := []int{p.sum}
	return StartTurn(diceSides, faces, rerolls).Result(faces), nil
}

func TestNewMatch_Validation(t *testing.T) {
	a := &fixedPlayer{name: "a"}
	_, err := NewMatch(testutil.CollectionA(), DefaultRules(), 0, a, a, testutil.NopLogger())
	assert.Error(t, err)

	_, err = NewMatch(testutil.CollectionA(), DefaultRules(), 7, a, nil, testutil.NopLogger())
	assert.ErrorIs(t, err, ErrInvalidPlayer)
}

func TestMatch_AlternatesFirstMover(t *testing.T) {
	a := &fixedPlayer{name: "a", sum: 13}
	b := &fixedPlayer{name: "b", sum: 12}

	m, err := NewMatch(testutil.CollectionA(), DefaultRules(), DefaultRoundsPerMatch, a, b, testutil.NopLogger())
	require.NoError(t, err)
	result, err := m.Play()
	require.NoError(t, err)

	assert.Equal(t, []int{3, 2, 3, 2, 3, 2, 3}, a.budgets)
	assert.Equal(t, []int{2, 3, 2, 3, 2, 3, 2}, b.budgets)

	require.Len(t, result.Rounds, 7)
	for i, r := range result.Rounds {
		assert.Equal(t, i+1, r.Number)
		assert.Equal(t, i%2, r.FirstMover)
		assert.Equal(t, 0, r.Winner)
		assert.Equal(t, [2]int{2, 0}, r.Points)
	}
	assert.Equal(t, [2]int{14, 0}, result.Points)
	assert.Equal(t, 0, result.Winner)
	assert.Equal(t, [2]string{"a", "b"}, result.Players)
	assert.Equal(t, "A", result.Collection)
	assert.NotEmpty(t, result.ID)
}

func TestMatch_DrawnMatch(t *testing.T) {
	a := &fixedPlayer{name: "a", sum: 20}
	b := &fixedPlayer{name: "b", sum: 30}

	m, err := NewMatch(testutil.CollectionA(), DefaultRules(), 3, a, b, testutil.NopLogger())
	require.NoError(t, err)
	result, err := m.Play()
	require.NoError(t, err)

	assert.Equal(t, [2]int{3, 3}, result.Points)
	assert.Equal(t, -1, result.Winner)
	for _, r := range result.Rounds {
		assert.Equal(t, -1, r.Winner)
	}
}

func TestMatch_PublishesEvents(t *testing.T) {
	a := &fixedPlayer{name: "a", sum: 13}
	b := &fixedPlayer{name: "b", sum: 15}

	bus := events.NewEventBus(testutil.NopLogger())
	tally := subscribers.NewTallySubscriber("tally")
	bus.Subscribe(tally)
	var types []string
	var matchIDs []string
	for _, typ := range []string{events.TypeMatchStarted, events.TypeTurnPlayed, events.TypeRoundFinished, events.TypeMatchFinished} {
		bus.SubscribeFunc(typ, func(e events.Event) {
			types = append(types, e.Type())
			matchIDs = append(matchIDs, e.MatchID())
		})
	}

	m, err := NewMatch(testutil.CollectionA(), DefaultRules(), 3, a, b, testutil.NopLogger())
	require.NoError(t, err)
	m.SetPublisher(bus)
	result, err := m.Play()
	require.NoError(t, err)

	require.Len(t, types, 1+3*3+1)
	assert.Equal(t, events.TypeMatchStarted, types[0])
	assert.Equal(t, []string{events.TypeTurnPlayed, events.TypeTurnPlayed, events.TypeRoundFinished}, types[1:4])
	assert.Equal(t, events.TypeMatchFinished, types[len(types)-1])
	for _, id := range matchIDs {
		assert.Equal(t, result.ID, id)
	}

	got := tally.Tally()
	assert.Equal(t, 1, got.Matches)
	assert.Equal(t, [2]int{1, 0}, got.MatchWins)
	assert.Equal(t, [2]int{3, 0}, got.RoundWins)
	assert.Equal(t, [2]int{0, 3}, got.Busts)
}

func TestMatch_PlayerErrorStopsMatch(t *testing.T) {
	boom := errors.New("boom")
	a := &fixedPlayer{name: "a", sum: 10}
	b := &fixedPlayer{name: "b", err: boom}

	m, err := NewMatch(testutil.CollectionA(), DefaultRules(), 7, a, b, testutil.NopLogger())
	require.NoError(t, err)
	_, err = m.Play()
	assert.ErrorIs(t, err, boom)
}

func TestMatch_HeuristicSelfPlayIsDeterministic(t *testing.T) {
	play := func() MatchResult {
		roller := dice.NewRoller(testutil.NewTestRNG(5))
		p0 := NewHeuristicPlayer(4, 21, roller)
		p1 := NewHeuristicPlayer(4, 21, roller)
		m, err := NewMatch(testutil.CollectionB(), DefaultRules(), 7, p0, p1, testutil.NopLogger())
		require.NoError(t, err)
		res, err := m.Play()
		require.NoError(t, err)
		res.ID = ""
		return res
	}

	first := play()
	assert.Equal(t, first, play())
	assert.Equal(t, 14, first.Points[0]+first.Points[1], "every round hands out two points")
}

func TestMatchResult_JSONFieldNames(t *testing.T) {
	rec := StartTurn([]int{4, 8, 12}, []int{2, 2, 2}, 3)
	rec.Reroll([]int{4, 2, 2}, 2, 0, 2)
	turn := rec.Result([]int{4, 2, 2})

	data, err := json.Marshal(turn.Log[1])
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "roll")
	assert.Contains(t, fields, "dice")
	assert.Contains(t, fields, "sum")
	assert.Contains(t, fields, "rerolls_left")
	info, ok := fields["reroll_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.0, info["index"])
	assert.Equal(t, 2.0, info["old"])
	assert.Equal(t, 4.0, info["new"])

	first, err := json.Marshal(turn.Log[0])
	require.NoError(t, err)
	assert.NotContains(t, string(first), "reroll_info")
}
