package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases ascii",
			input:    "Hollow Knight",
			expected: "hollow knight",
		},
		{
			name:     "strips punctuation",
			input:    "S.T.A.L.K.E.R. 2: Heart of Chornobyl",
			expected: "stalker 2 heart of chornobyl",
		},
		{
			name:     "collapses whitespace",
			input:    "  Baldur's   Gate\t3 ",
			expected: "baldurs gate 3",
		},
		{
			name:     "keeps digits",
			input:    "Half-Life 2",
			expected: "halflife 2",
		},
		{
			name:     "keeps non-ascii letters",
			input:    "NieR:Automata™ Ver1.1a",
			expected: "nierautomata ver11a",
		},
		{
			name:     "trademark and registered stripped",
			input:    "DOOM® Eternal",
			expected: "doom eternal",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "symbols only",
			input:    "+++///),,",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalName(tt.input))
		})
	}
}

func TestCanonicalNameIdempotent(t *testing.T) {
	inputs := []string{"Hollow Knight: Silksong", "DARK SOULS™ III", "60 Parsecs!"}
	for _, in := range inputs {
		once := CanonicalName(in)
		assert.Equal(t, once, CanonicalName(once))
	}
}

func TestApply(t *testing.T) {
	assert.Equal(t, "portal 2", Apply("Portal 2", "cname"))
	// unknown normalizer leaves the value untouched
	assert.Equal(t, "Portal 2", Apply("Portal 2", "nope"))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, " a b c ", CollapseWhitespace("  a\tb \n c  "))
}
