// internal/sync/thresholds/thresholds_test.go
package thresholds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels_CatalogShape(t *testing.T) {
	levels := Levels()

	assert.Len(t, levels, 12)
	assert.Equal(t, 0.0, levels[0].Value)
	assert.Equal(t, "Exact Match", levels[0].Name)
	assert.Equal(t, 1.0, levels[11].Value)
	assert.Equal(t, "Maximum Fuzziness", levels[11].Name)

	// Strictly increasing values, ids 1..12.
	for i, l := range levels {
		assert.Equal(t, i+1, l.ID)
		if i > 0 {
			assert.Greater(t, l.Value, levels[i-1].Value)
		}
	}
}

func TestLevels_ReturnsCopy(t *testing.T) {
	first := Levels()
	first[0].Name = "mutated"

	assert.Equal(t, "Exact Match", Levels()[0].Name)
}

func TestByName(t *testing.T) {
	l, ok := ByName("Very Lenient")
	assert.True(t, ok)
	assert.Equal(t, 0.7, l.Value)

	_, ok = ByName("No Such Level")
	assert.False(t, ok)
}

func TestByValue(t *testing.T) {
	l, ok := ByValue(0.05)
	assert.True(t, ok)
	assert.Equal(t, "Extremely Strict", l.Name)

	_, ok = ByValue(0.42)
	assert.False(t, ok)
}
