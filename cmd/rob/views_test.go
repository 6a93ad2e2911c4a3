package main

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	t.Run("both ends", func(t *testing.T) {
		window, err := parseWindow("2024-05-01", "2024-06-01")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), window.Min)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), window.Max)
		assert.True(t, window.Contains(time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)))
		assert.False(t, window.Contains(window.Max))
	})

	t.Run("open ends", func(t *testing.T) {
		window, err := parseWindow("", "")
		require.NoError(t, err)
		assert.True(t, window.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))
		assert.True(t, window.Contains(time.Date(2500, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := parseWindow("01.05.2024", "")
		require.Error(t, err)
	})

	t.Run("inverted", func(t *testing.T) {
		_, err := parseWindow("2024-06-01", "2024-05-01")
		require.Error(t, err)
	})
}

func TestFormatCoordinate(t *testing.T) {
	assert.Equal(t, "54.0076", formatCoordinate(54.0076))
	assert.Equal(t, "", formatCoordinate(math.NaN()))
}
