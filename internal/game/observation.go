package game

import (
	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
)

// Observation is the fixed-length numeric encoding of a player's view
type Observation []float64

// ObservationSize is the encoded length for a collection of numDice dice:
// faces, rerolls left, side counts, target
func ObservationSize(numDice int) int {
	return 2*numDice + 2
}

// Encoder turns faces and a reroll budget into an Observation. Faces and side
// counts are divided by the largest side, the budget by rerollNorm and the
// target by the largest possible sum of equally large dice, so every feature
// lies in [0, 1] for sane collections.
type Encoder struct {
	dice       []int
	target     int
	maxSide    float64
	rerollNorm float64
}

// NewEncoder creates an encoder for collection c. rerollNorm is the largest
// budget any player can have (the first mover's). A non-positive rerollNorm
// is replaced by 1, and RerollNorm reports the replacement.
func NewEncoder(c dice.Collection, rerollNorm int) Encoder {
	norm := float64(rerollNorm)
	if norm <= 0 {
		norm = 1
	}
	return Encoder{
		dice:       c.Clone().Dice,
		target:     c.Target,
		maxSide:    float64(dice.MaxSide(c.Dice)),
		rerollNorm: norm,
	}
}

// Size returns the observation length
func (e Encoder) Size() int {
	return ObservationSize(len(e.dice))
}

// RerollNorm returns the budget normalizer
func (e Encoder) RerollNorm() int {
	return int(e.rerollNorm)
}

// Encode builds the observation for faces with rerollsLeft remaining
func (e Encoder) Encode(faces []int, rerollsLeft int) Observation {
	n := len(e.dice)
	obs := make(Observation, 0, e.Size())
	for _, f := range faces {
		obs = append(obs, float64(f)/e.maxSide)
	}
	obs = append(obs, float64(rerollsLeft)/e.rerollNorm)
	for _, d := range e.dice {
		obs = append(obs, float64(d)/e.maxSide)
	}
	obs = append(obs, float64(e.target)/(e.maxSide*float64(n)))
	return obs
}
