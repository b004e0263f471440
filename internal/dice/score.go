package dice

// BustScore is the score of any sum above the target
const BustScore = -1

// Sum adds up the faces
func Sum(faces []int) int {
	total := 0
	for _, f := range faces {
		total += f
	}
	return total
}

// Score returns sum when it does not exceed target, BustScore otherwise
func Score(sum, target int) int {
	if sum > target {
		return BustScore
	}
	return sum
}

// IsBust reports whether sum exceeds target
func IsBust(sum, target int) bool {
	return sum > target
}

// MaxSide returns the largest side count, or 0 for no dice
func MaxSide(dice []int) int {
	m := 0
	for _, d := range dice {
		if d > m {
			m = d
		}
	}
	return m
}
