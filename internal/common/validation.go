package common

// IsValidIndex checks if i addresses an element of a slice of length n
func IsValidIndex(i, n int) bool {
	return i >= 0 && i < n
}
