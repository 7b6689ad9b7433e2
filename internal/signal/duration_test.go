package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesDuration(t *testing.T) {
	assert.Equal(t, 0.0, SeriesDuration(nil))
	assert.Equal(t, 0.0, SeriesDuration([]float64{5}))
	assert.Equal(t, 115.0, SeriesDuration([]float64{5, 60, 120}))
}

func TestCheckDurations(t *testing.T) {
	t.Run("outlier beyond tolerance flagged", func(t *testing.T) {
		report := CheckDurations([]float64{100, 102, 98, 140}, 0)
		assert.False(t, report.Consistent)
		require.NotNil(t, report.Warning)
		assert.Equal(t, WarnScheduleInconsistency, report.Warning.Code)
		assert.Equal(t, 98.0, report.Min)
		assert.Equal(t, 140.0, report.Max)
		assert.InDelta(t, 101.0, report.Median, 1e-12)
	})

	t.Run("deviations within tolerance pass", func(t *testing.T) {
		report := CheckDurations([]float64{100, 102, 98, 105}, 0)
		assert.True(t, report.Consistent)
		assert.Nil(t, report.Warning)
	})

	t.Run("zero tolerance argument means the default", func(t *testing.T) {
		report := CheckDurations([]float64{100}, 0)
		assert.Equal(t, DefaultDurationTolerance, report.Tolerance)
	})

	t.Run("custom tolerance", func(t *testing.T) {
		// 105 deviates about 4% from the median 101; a 2% tolerance trips.
		report := CheckDurations([]float64{100, 102, 98, 105}, 0.02)
		assert.False(t, report.Consistent)
	})

	t.Run("empty set trivially consistent", func(t *testing.T) {
		report := CheckDurations(nil, 0)
		assert.True(t, report.Consistent)
		assert.Nil(t, report.Warning)
	})

	t.Run("degenerate zero durations", func(t *testing.T) {
		report := CheckDurations([]float64{0, 0, 0}, 0)
		assert.True(t, report.Consistent)
	})

	t.Run("even count uses midpoint median", func(t *testing.T) {
		report := CheckDurations([]float64{90, 110}, 1.0)
		assert.InDelta(t, 100.0, report.Median, 1e-12)
	})
}
