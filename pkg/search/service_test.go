package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFacetString(t *testing.T) {
	names := map[int64]string{
		1664: "Puzzle",
		1697: "First-Person",
	}

	tests := []struct {
		name     string
		ids      []int64
		expected string
	}{
		{
			name:     "empty ids",
			ids:      nil,
			expected: "None",
		},
		{
			name:     "single known id",
			ids:      []int64{1664},
			expected: "Puzzle",
		},
		{
			name:     "multiple known ids",
			ids:      []int64{1664, 1697},
			expected: "Puzzle, First-Person",
		},
		{
			name:     "unknown id resolves to Unknown",
			ids:      []int64{1664, 42},
			expected: "Puzzle, Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, facetString(tt.ids, names))
		})
	}
}
