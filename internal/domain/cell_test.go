package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell(t *testing.T) {
	t.Run("coordinates in the same cell share one key", func(t *testing.T) {
		a := Cell(48.85812, 2.29441)
		b := Cell(48.85814, 2.29443)
		assert.Equal(t, a, b)
	})

	t.Run("coordinates in different cells differ", func(t *testing.T) {
		a := Cell(48.8581, 2.2944)
		b := Cell(48.8583, 2.2944)
		assert.NotEqual(t, a, b)
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Cell(43.6045, 1.4442), Cell(43.6045, 1.4442))
	})

	t.Run("southern hemisphere", func(t *testing.T) {
		key := Cell(-33.8688, 151.2093)
		assert.Equal(t, int32(-338688), key.LatE4)
		assert.Equal(t, int32(1512093), key.LonE4)
	})
}
