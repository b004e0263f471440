package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/states"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/testutil"
)

// newScriptedEnv builds an environment over collection A whose roller yields
// exactly faces, in order: agent dice, opponent dice, agent rerolls, then
// opponent rerolls.
func newScriptedEnv(t *testing.T, faces ...int) (*Env, *testutil.ScriptedSource) {
	t.Helper()
	src := testutil.FacesSource(faces...)
	env, err := NewEnv(testutil.CollectionA(), DefaultRules(), DefaultRewardConfig(), dice.NewRoller(src), testutil.NopLogger())
	require.NoError(t, err)
	return env, src
}

func TestNewEnv_RejectsBadInput(t *testing.T) {
	roller := dice.NewRoller(testutil.NewTestRNG(1))

	_, err := NewEnv(dice.Collection{Key: "X", Target: 10}, DefaultRules(), DefaultRewardConfig(), roller, testutil.NopLogger())
	assert.ErrorIs(t, err, dice.ErrEmptyCollection)

	_, err = NewEnv(testutil.CollectionA(), Rules{FirstMoverRerolls: -1}, DefaultRewardConfig(), roller, testutil.NopLogger())
	assert.ErrorIs(t, err, ErrInvalidRules)

	_, err = NewEnv(testutil.CollectionA(), Rules{FirstMoverRerolls: 0}, DefaultRewardConfig(), roller, testutil.NopLogger())
	assert.ErrorIs(t, err, ErrInvalidRules, "without a first mover budget the reroll actions are dead")

	_, err = NewEnv(testutil.CollectionA(), DefaultRules(), DefaultRewardConfig(), nil, testutil.NopLogger())
	assert.Error(t, err)
}

func TestEnv_Sizes(t *testing.T) {
	env, _ := newScriptedEnv(t)
	assert.Equal(t, 4, env.NumActions())
	assert.Equal(t, 8, env.ObservationSize())
}

func TestEnv_StepBeforeReset(t *testing.T) {
	env, _ := newScriptedEnv(t)
	_, err := env.Step(0)
	assert.ErrorIs(t, err, ErrRoundNotStarted)
}

func TestEnv_ResetRollsBothPlayers(t *testing.T) {
	env, src := newScriptedEnv(t, 2, 5, 6, 3, 4, 7)

	obs := env.Reset()
	assert.Len(t, obs, env.ObservationSize())
	assert.Equal(t, 0, src.Remaining())

	state := env.State()
	assert.Equal(t, []int{2, 5, 6}, state.Agent.Rolls)
	assert.Equal(t, []int{3, 4, 7}, state.Opponent.Rolls)
	assert.Equal(t, 3, state.Agent.RerollsLeft)
	assert.Equal(t, 2, state.Opponent.RerollsLeft)
	assert.Equal(t, PlayerAgent, state.Active)
	assert.Equal(t, states.PhaseAgentTurn, state.Phase)
	assert.False(t, env.Done())
}

func TestEnv_StopOnBustScoresBustPenalty(t *testing.T) {
	// agent busts with 4+8+12=24; opponent starts on 1,1,1 and rerolls the
	// lowest die twice to reach 4+8+1=13
	env, src := newScriptedEnv(t, 4, 8, 12, 1, 1, 1, 4, 8)
	env.Reset()

	res, err := env.Step(3)
	require.NoError(t, err)

	assert.True(t, res.Done)
	assert.True(t, res.Info.TurnEnded)
	assert.False(t, res.Info.Forced)
	assert.Equal(t, 24, res.Info.AgentSum)
	assert.Equal(t, dice.BustScore, res.Info.AgentScore)
	assert.Equal(t, 13, res.Info.OpponentSum)
	assert.Equal(t, 13, res.Info.OpponentScore)
	assert.Equal(t, OutcomeLoss, res.Info.Outcome)
	assert.Equal(t, -1.0, res.Reward)
	assert.Equal(t, states.PhaseRoundOver, res.Info.Phase)
	assert.Equal(t, 0, src.Remaining())

	require.NotNil(t, res.Info.OpponentTurn)
	assert.Equal(t, []RerollInfo{{Index: 0, Old: 1, New: 4}, {Index: 1, Old: 1, New: 8}}, res.Info.OpponentTurn.Rerolls())
}

func TestEnv_StopBelowTargetKeepsSum(t *testing.T) {
	// agent stands on 2+5+6=13; opponent 2,2,2 rerolls d4 to 3 then d8 to 7
	env, _ := newScriptedEnv(t, 2, 5, 6, 2, 2, 2, 3, 7)
	initial := env.Reset()

	res, err := env.Step(3)
	require.NoError(t, err)

	assert.True(t, res.Done)
	assert.Equal(t, 13, res.Info.AgentSum)
	assert.Equal(t, 13, res.Info.AgentScore)
	assert.Equal(t, 12, res.Info.OpponentSum)
	assert.Equal(t, OutcomeWin, res.Info.Outcome)
	assert.Equal(t, 2.0, res.Reward)
	// stopping changes nothing the agent sees
	assert.Equal(t, initial, res.Observation)
}

func TestEnv_DrawReward(t *testing.T) {
	// both stand: agent 13, opponent 4+8+1=13 sits inside the margin
	env, _ := newScriptedEnv(t, 2, 5, 6, 4, 8, 1)
	env.Reset()

	res, err := env.Step(3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDraw, res.Info.Outcome)
	assert.Equal(t, 1.0, res.Reward)
}

func TestEnv_RerollDecrementsBudget(t *testing.T) {
	// opponent stands on 4+8+2=14
	env, _ := newScriptedEnv(t, 1, 1, 1, 4, 8, 2, 10)
	env.Reset()

	res, err := env.Step(2)
	require.NoError(t, err)

	assert.False(t, res.Done)
	assert.Zero(t, res.Reward)
	require.NotNil(t, res.Info.Reroll)
	assert.Equal(t, RerollInfo{Index: 2, Old: 1, New: 10}, *res.Info.Reroll)
	assert.Equal(t, states.PhaseAgentTurn, res.Info.Phase)
	assert.Equal(t, 12, res.Info.AgentSum)

	state := env.State()
	assert.Equal(t, []int{1, 1, 10}, state.Agent.Rolls)
	assert.Equal(t, 2, state.Agent.RerollsLeft)
	assert.InDelta(t, 2.0/3.0, res.Observation[3], 1e-12)
	assert.InDelta(t, 10.0/12.0, res.Observation[2], 1e-12)
}

func TestEnv_RerollWithNoBudgetEndsTurn(t *testing.T) {
	env, src := newScriptedEnv(t, 1, 1, 1, 4, 8, 2, 10, 2, 1)
	env.Reset()

	for _, a := range []int{2, 0, 1} {
		res, err := env.Step(a)
		require.NoError(t, err)
		require.False(t, res.Done)
	}
	assert.Equal(t, 0, env.State().Agent.RerollsLeft)

	res, err := env.Step(0)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.True(t, res.Info.Forced)
	assert.Nil(t, res.Info.Reroll)
	assert.Equal(t, 13, res.Info.AgentSum)
	assert.Equal(t, 14, res.Info.OpponentSum)
	assert.Equal(t, OutcomeLoss, res.Info.Outcome)
	assert.Equal(t, 0, src.Remaining(), "a forced stop must not roll")
}

func TestEnv_InvalidActionLeavesStateUntouched(t *testing.T) {
	env, _ := newScriptedEnv(t, 2, 5, 6, 3, 4, 7)
	env.Reset()
	before := env.State()

	for _, a := range []int{-1, 4, 100} {
		_, err := env.Step(a)
		assert.ErrorIs(t, err, ErrInvalidAction)
	}
	assert.Equal(t, before, env.State())
	assert.False(t, env.Done())
}

func TestEnv_StepAfterDone(t *testing.T) {
	env, _ := newScriptedEnv(t, 2, 5, 6, 4, 8, 2)
	env.Reset()
	_, err := env.Step(3)
	require.NoError(t, err)

	_, err = env.Step(3)
	assert.ErrorIs(t, err, ErrRoundOver)
	_, err = env.Step(0)
	assert.ErrorIs(t, err, ErrRoundOver)
}

func TestEnv_PhaseHistory(t *testing.T) {
	env, _ := newScriptedEnv(t, 2, 5, 6, 4, 8, 2, 2, 5, 6, 4, 8, 2)
	env.Reset()
	_, err := env.Step(3)
	require.NoError(t, err)

	history := env.PhaseHistory()
	require.Len(t, history, 2)
	assert.Equal(t, states.PhaseAgentTurn, history[0].From)
	assert.Equal(t, states.PhaseOpponentResolving, history[0].To)
	assert.Equal(t, states.PhaseRoundOver, history[1].To)

	// a new round starts from a clean history
	env.Reset()
	assert.Empty(t, env.PhaseHistory())
	assert.Equal(t, states.PhaseAgentTurn, env.State().Phase)
}

func TestEnv_StateIsACopy(t *testing.T) {
	env, _ := newScriptedEnv(t, 2, 5, 6, 3, 4, 7)
	env.Reset()

	state := env.State()
	state.Agent.Rolls[0] = 99
	state.Dice[0] = 99
	assert.Equal(t, []int{2, 5, 6}, env.State().Agent.Rolls)
	assert.Equal(t, []int{4, 8, 12}, env.Collection().Dice)
}

func TestEnv_SameSeedSameTrajectory(t *testing.T) {
	play := func(seed int64) []StepResult {
		roller := dice.NewRoller(testutil.NewTestRNG(seed))
		env, err := NewEnv(testutil.CollectionB(), DefaultRules(), DefaultRewardConfig(), roller, testutil.NopLogger())
		require.NoError(t, err)

		var out []StepResult
		for round := 0; round < 20; round++ {
			env.Reset()
			for _, a := range []int{2, 1, 3} {
				res, err := env.Step(a)
				require.NoError(t, err)
				out = append(out, res)
				if res.Done {
					break
				}
			}
		}
		return out
	}

	assert.Equal(t, play(99), play(99))
}

func TestEnv_RewardsAreConfigurable(t *testing.T) {
	rewards := RewardConfig{Win: 5, Loss: -3, Draw: 0.5}
	env, err := NewEnv(testutil.CollectionA(), DefaultRules(), rewards,
		testutil.ScriptedRoller(4, 8, 12, 4, 8, 2), testutil.NopLogger())
	require.NoError(t, err)
	env.Reset()

	res, err := env.Step(3)
	require.NoError(t, err)
	assert.Equal(t, -3.0, res.Reward)
}
