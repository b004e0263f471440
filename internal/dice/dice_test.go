package dice_test

import (
	"testing"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoller_RollStaysInRange(t *testing.T) {
	roller := dice.NewRoller(testutil.NewTestRNG(7))
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		face := roller.Roll(6)
		assert.GreaterOrEqual(t, face, 1)
		assert.LessOrEqual(t, face, 6)
		seen[face] = true
	}
	assert.Len(t, seen, 6, "every face of a d6 should show up in 2000 rolls")
}

func TestRoller_RollAllUsesSourceInOrder(t *testing.T) {
	roller := testutil.ScriptedRoller(4, 8, 12)
	assert.Equal(t, []int{4, 8, 12}, roller.RollAll([]int{4, 8, 12}))
}

func TestRoller_ZeroSidedDiePanics(t *testing.T) {
	roller := dice.NewRoller(testutil.NewTestRNG(1))
	testutil.AssertPanic(t, func() { roller.Roll(0) })
	testutil.AssertPanic(t, func() { roller.Roll(-3) })
}

func TestRoller_SameSeedSameFaces(t *testing.T) {
	a := dice.NewRoller(testutil.NewTestRNG(42))
	b := dice.NewRoller(testutil.NewTestRNG(42))
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.RollAll([]int{4, 8, 12}), b.RollAll([]int{4, 8, 12}))
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		sum    int
		target int
		want   int
	}{
		{"below target", 13, 14, 13},
		{"exactly target", 14, 14, 14},
		{"one over", 15, 14, dice.BustScore},
		{"far over", 24, 14, dice.BustScore},
		{"minimum", 3, 21, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dice.Score(tt.sum, tt.target))
			assert.Equal(t, tt.sum > tt.target, dice.IsBust(tt.sum, tt.target))
		})
	}
}

func TestScore_AllFaceAssignments(t *testing.T) {
	c := testutil.CollectionA()
	for a := 1; a <= 4; a++ {
		for b := 1; b <= 8; b++ {
			for d := 1; d <= 12; d++ {
				sum := dice.Sum([]int{a, b, d})
				got := dice.Score(sum, c.Target)
				if sum <= c.Target {
					assert.Equal(t, sum, got)
				} else {
					assert.Equal(t, dice.BustScore, got)
				}
			}
		}
	}
}

func TestMaxSide(t *testing.T) {
	assert.Equal(t, 12, dice.MaxSide([]int{4, 8, 12}))
	assert.Equal(t, 20, dice.MaxSide([]int{6, 20, 10}))
	assert.Equal(t, 0, dice.MaxSide(nil))
}

func TestCollection_Validate(t *testing.T) {
	assert.NoError(t, testutil.CollectionA().Validate())
	assert.NoError(t, testutil.CollectionB().Validate())

	err := dice.Collection{Key: "X", Target: 10}.Validate()
	assert.ErrorIs(t, err, dice.ErrEmptyCollection)

	err = dice.Collection{Key: "X", Dice: []int{6, 0}, Target: 10}.Validate()
	assert.ErrorIs(t, err, dice.ErrInvalidSides)

	err = dice.Collection{Key: "X", Dice: []int{6}, Target: 0}.Validate()
	assert.ErrorIs(t, err, dice.ErrInvalidTarget)
}

func TestCollection_Actions(t *testing.T) {
	c := testutil.CollectionA()
	assert.Equal(t, 4, c.NumActions())
	assert.Equal(t, 3, c.StopAction())
	assert.True(t, c.SameDice([]int{4, 8, 12}))
	assert.False(t, c.SameDice([]int{4, 12, 8}))
	assert.Equal(t, "A: d4, d8, d12 (aim <= 14)", c.String())
}

func TestCollection_CloneDoesNotAlias(t *testing.T) {
	c := testutil.CollectionA()
	clone := c.Clone()
	clone.Dice[0] = 100
	assert.Equal(t, 4, c.Dice[0])
}

func TestLookup(t *testing.T) {
	collections := dice.DefaultCollections()

	c, err := dice.Lookup(collections, "a")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8, 12}, c.Dice)

	_, err = dice.Lookup(collections, "Z")
	assert.ErrorIs(t, err, dice.ErrUnknownCollection)

	assert.Equal(t, []string{"A", "B"}, dice.SortedKeys(collections))
}
