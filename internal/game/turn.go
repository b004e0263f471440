package game

import (
	"slices"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
)

// RerollInfo describes a single reroll
type RerollInfo struct {
	Index int `json:"index"`
	Old   int `json:"old"`
	New   int `json:"new"`
}

// TurnStep is one entry of a turn log: the dice after the step and, for
// every entry but the first, the reroll that produced them
type TurnStep struct {
	Rolls       []int       `json:"roll"`
	Dice        []int       `json:"dice"`
	Sum         int         `json:"sum"`
	RerollsLeft int         `json:"rerolls_left"`
	Reroll      *RerollInfo `json:"reroll_info,omitempty"`
}

// TurnResult is what a front end receives after a turn
type TurnResult struct {
	Rolls []int      `json:"rolls"`
	Sum   int        `json:"final_sum"`
	Log   []TurnStep `json:"log"`
}

// Rerolls returns the reroll entries of the log in order
func (r TurnResult) Rerolls() []RerollInfo {
	var out []RerollInfo
	for _, step := range r.Log {
		if step.Reroll != nil {
			out = append(out, *step.Reroll)
		}
	}
	return out
}

// TurnPlayer plays one complete turn for a seat in a match
type TurnPlayer interface {
	Name() string
	PlayTurn(diceSides []int, rerolls int) (TurnResult, error)
}

// TurnRecorder accumulates a turn log
type TurnRecorder struct {
	dice []int
	log  []TurnStep
}

// StartTurn records the initial roll
func StartTurn(diceSides, faces []int, rerolls int) *TurnRecorder {
	r := &TurnRecorder{dice: slices.Clone(diceSides)}
	r.record(faces, rerolls, nil)
	return r
}

// Reroll records a reroll of die index from old to the value now in faces
func (r *TurnRecorder) Reroll(faces []int, rerollsLeft, index, old int) {
	r.record(faces, rerollsLeft, &RerollInfo{Index: index, Old: old, New: faces[index]})
}

func (r *TurnRecorder) record(faces []int, rerollsLeft int, reroll *RerollInfo) {
	r.log = append(r.log, TurnStep{
		Rolls:       slices.Clone(faces),
		Dice:        r.dice,
		Sum:         dice.Sum(faces),
		RerollsLeft: rerollsLeft,
		Reroll:      reroll,
	})
}

// Result closes the turn with the final faces
func (r *TurnRecorder) Result(faces []int) TurnResult {
	return TurnResult{
		Rolls: slices.Clone(faces),
		Sum:   dice.Sum(faces),
		Log:   r.log,
	}
}
