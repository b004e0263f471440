package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidIndex(t *testing.T) {
	tests := []struct {
		name     string
		i, n     int
		expected bool
	}{
		{"first", 0, 3, true},
		{"last", 2, 3, true},
		{"past end", 3, 3, false},
		{"negative", -1, 3, false},
		{"empty", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidIndex(tt.i, tt.n))
		})
	}
}
