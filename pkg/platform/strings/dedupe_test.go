package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil stays nil", input: nil, expected: nil},
		{name: "empty stays empty", input: []string{}, expected: []string{}},
		{
			name:     "repeated checkbox values collapse",
			input:    []string{"Survey Responses", "Analytics Data", "Survey Responses"},
			expected: []string{"Survey Responses", "Analytics Data"},
		},
		{
			name:     "padding is trimmed before comparing",
			input:    []string{" Analytics Data", "Analytics Data  "},
			expected: []string{"Analytics Data"},
		},
		{
			name:     "blank entries dropped",
			input:    []string{"", "  ", "Website Usage Data"},
			expected: []string{"Website Usage Data"},
		},
		{
			name:     "only blanks",
			input:    []string{" ", ""},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
