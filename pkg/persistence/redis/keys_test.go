package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueKeys(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		expected []string
	}{
		{name: "empty", keys: []string{}, expected: []string{}},
		{name: "no repeats", keys: []string{"workflow:a", "workflow:b"}, expected: []string{"workflow:a", "workflow:b"}},
		{
			name:     "repeats from rehash",
			keys:     []string{"workflow:a", "workflow:b", "workflow:a", "workflow:c", "workflow:b"},
			expected: []string{"workflow:a", "workflow:b", "workflow:c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, uniqueKeys(tt.keys))
		})
	}
}
