package dice

import "fmt"

// Source is the random source a Roller draws from. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Roller produces uniformly random die faces from an injected source
type Roller struct {
	src Source
}

// NewRoller creates a roller backed by src
func NewRoller(src Source) *Roller {
	return &Roller{src: src}
}

// Roll returns a face in [1, sides]. A non-positive side count is a
// programming error and panics.
func (r *Roller) Roll(sides int) int {
	if sides <= 0 {
		panic(fmt.Sprintf("dice: cannot roll a %d-sided die", sides))
	}
	return r.src.Intn(sides) + 1
}

// RollAll rolls every die in order
func (r *Roller) RollAll(dice []int) []int {
	faces := make([]int, len(dice))
	for i, sides := range dice {
		faces[i] = r.Roll(sides)
	}
	return faces
}
