package testutil

import (
	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
)

// CollectionA returns d4, d8, d12 aiming at 14
func CollectionA() dice.Collection {
	return dice.Collection{Key: "A", Dice: []int{4, 8, 12}, Target: 14}
}

// CollectionB returns d6, d10, d20 aiming at 21
func CollectionB() dice.Collection {
	return dice.Collection{Key: "B", Dice: []int{6, 10, 20}, Target: 21}
}

// Faces converts desired die faces into the Intn results that produce them
func Faces(faces ...int) []int {
	out := make([]int, len(faces))
	for i, f := range faces {
		out[i] = f - 1
	}
	return out
}

// FacesSource is a scripted source that rolls exactly the given faces
func FacesSource(faces ...int) *ScriptedSource {
	return NewScriptedSource(Faces(faces...)...)
}

// ScriptedRoller returns a roller that rolls exactly the given faces
func ScriptedRoller(faces ...int) *dice.Roller {
	return dice.NewRoller(FacesSource(faces...))
}
