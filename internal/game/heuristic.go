package game

import (
	"slices"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/common"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
)

// Heuristic is the fixed scripted reroll strategy used as the training
// adversary: bust rerolls the highest die, more than Margin below target
// rerolls the lowest, anything else stops.
type Heuristic struct {
	Margin int
}

// Decide returns the die to reroll, or reroll=false to stop. Ties go to the
// first index.
func (h Heuristic) Decide(faces []int, target int) (index int, reroll bool) {
	sum := dice.Sum(faces)
	switch {
	case sum > target:
		return common.IndexOfMax(faces), true
	case sum < target-h.Margin:
		return common.IndexOfMin(faces), true
	default:
		return -1, false
	}
}

// ResolveTurn plays out a turn starting from faces with the given budget.
// faces is not modified.
func (h Heuristic) ResolveTurn(faces, diceSides []int, target, budget int, roller *dice.Roller) TurnResult {
	rolls := slices.Clone(faces)
	rec := StartTurn(diceSides, rolls, budget)
	for left := budget; left > 0; {
		idx, reroll := h.Decide(rolls, target)
		if !reroll {
			break
		}
		old := rolls[idx]
		rolls[idx] = roller.Roll(diceSides[idx])
		left--
		rec.Reroll(rolls, left, idx, old)
	}
	return rec.Result(rolls)
}

// HeuristicPlayer lets the scripted strategy take a seat in a match
type HeuristicPlayer struct {
	heuristic Heuristic
	target    int
	roller    *dice.Roller
}

// NewHeuristicPlayer creates a scripted player aiming at target
func NewHeuristicPlayer(margin, target int, roller *dice.Roller) *HeuristicPlayer {
	return &HeuristicPlayer{heuristic: Heuristic{Margin: margin}, target: target, roller: roller}
}

// Name implements TurnPlayer
func (p *HeuristicPlayer) Name() string {
	return "heuristic"
}

// PlayTurn implements TurnPlayer
func (p *HeuristicPlayer) PlayTurn(diceSides []int, rerolls int) (TurnResult, error) {
	faces := p.roller.RollAll(diceSides)
	return p.heuristic.ResolveTurn(faces, diceSides, p.target, rerolls, p.roller), nil
}
