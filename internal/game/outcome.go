package game

import (
	"fmt"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
)

// Outcome is a round result from one player's point of view
type Outcome int

const (
	OutcomeDraw Outcome = iota
	OutcomeWin
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDraw:
		return "draw"
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// Match points awarded per round
const (
	PointsWin  = 2
	PointsDraw = 1
	PointsLoss = 0
)

// DetermineWinner scores both sums against target and returns the outcome for
// the first player together with the match points each player earns
func DetermineWinner(sumA, sumB, target int) (outcome Outcome, pointsA, pointsB int) {
	scoreA := dice.Score(sumA, target)
	scoreB := dice.Score(sumB, target)
	switch {
	case scoreA > scoreB:
		return OutcomeWin, PointsWin, PointsLoss
	case scoreB > scoreA:
		return OutcomeLoss, PointsLoss, PointsWin
	default:
		return OutcomeDraw, PointsDraw, PointsDraw
	}
}
