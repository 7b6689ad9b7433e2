package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSegments(t *testing.T) {
	t.Run("strictly increasing sweep stays one segment", func(t *testing.T) {
		v := []float64{-2, -1, 0, 1, 2}
		i := []float64{1, 2, 3, 4, 5}

		segs := SplitSegments(v, i)
		require.Len(t, segs, 1)
		assert.Equal(t, v, segs[0].Voltage)
		assert.Equal(t, i, segs[0].Current)
	})

	t.Run("up then down splits at the reversal", func(t *testing.T) {
		v := []float64{0, 1, 2, 1, 0}
		i := []float64{10, 20, 30, 21, 11}

		segs := SplitSegments(v, i)
		require.Len(t, segs, 2)
		// The turning point belongs to the first segment; lengths sum to N.
		assert.Equal(t, []float64{0, 1, 2}, segs[0].Voltage)
		assert.Equal(t, []float64{1, 0}, segs[1].Voltage)
		assert.Equal(t, len(v), len(segs[0].Voltage)+len(segs[1].Voltage))
	})

	t.Run("triangle sweep yields three segments", func(t *testing.T) {
		v := []float64{0, 1, 2, 1, 0, 1, 2}
		i := make([]float64, len(v))

		segs := SplitSegments(v, i)
		require.Len(t, segs, 3)
		total := 0
		for _, s := range segs {
			total += len(s.Voltage)
		}
		assert.Equal(t, len(v), total)
	})

	t.Run("consecutive duplicate voltages collapse by averaging", func(t *testing.T) {
		v := []float64{0, 1, 1, 2}
		i := []float64{10, 20, 40, 50}

		segs := SplitSegments(v, i)
		require.Len(t, segs, 1)
		assert.Equal(t, []float64{0, 1, 2}, segs[0].Voltage)
		assert.Equal(t, []float64{10, 30, 50}, segs[0].Current)
	})

	t.Run("all-equal voltages collapse to one point", func(t *testing.T) {
		segs := SplitSegments([]float64{1, 1, 1}, []float64{3, 6, 9})
		require.Len(t, segs, 1)
		assert.Equal(t, []float64{1}, segs[0].Voltage)
		assert.Equal(t, []float64{6}, segs[0].Current)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, SplitSegments(nil, nil))
	})

	t.Run("single sample", func(t *testing.T) {
		segs := SplitSegments([]float64{1}, []float64{5})
		require.Len(t, segs, 1)
		assert.Equal(t, []float64{1}, segs[0].Voltage)
	})
}
