package circular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{"plain integer", "245000", "245", true},
		{"thousands separators", "2,45,000", "245", true},
		{"surrounding whitespace", "  240500 ", "240.5", true},
		{"decimal input", "245123.5", "245.124", true},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"non-numeric", "N/A", "", false},
		{"mixed garbage", "12abc", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizePrice(tc.raw)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, got.String())
			}
		})
	}
}

func TestNormalizePrice_RoundsToThreeDecimals(t *testing.T) {
	got, ok := NormalizePrice("245000")
	require.True(t, ok)
	assert.Equal(t, "245.000", got.StringFixed(3))
}
