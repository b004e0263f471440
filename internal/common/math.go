package common

// IndexOfMax returns the first index holding the largest value, or -1 for an
// empty slice
func IndexOfMax(values []int) int {
	best := -1
	for i, v := range values {
		if best == -1 || v > values[best] {
			best = i
		}
	}
	return best
}

// IndexOfMin returns the first index holding the smallest value, or -1 for an
// empty slice
func IndexOfMin(values []int) int {
	best := -1
	for i, v := range values {
		if best == -1 || v < values[best] {
			best = i
		}
	}
	return best
}
