package signal

import (
	"fmt"
	"math"
	"sort"
)

// DefaultDurationTolerance is the maximum relative deviation from the
// median duration tolerated before an overlay set is flagged.
const DefaultDurationTolerance = 0.10

// ScheduleReport is the outcome of a duration-consistency check over a set
// of records intended to be overlaid. It is advisory only and never blocks
// signal computation.
type ScheduleReport struct {
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Median    float64   `json:"median"`
	Tolerance float64   `json:"tolerance"`
	// Consistent is false when any duration deviates from the median by
	// more than the tolerance.
	Consistent bool     `json:"consistent"`
	Warning    *Warning `json:"warning,omitempty"`
}

// SeriesDuration returns the total duration of a time axis, 0 for fewer
// than two samples.
func SeriesDuration(t []float64) float64 {
	if len(t) < 2 {
		return 0
	}
	return t[len(t)-1] - t[0]
}

// CheckDurations compares each duration against the median of the set. A
// tolerance of 0 means the default. An empty set is trivially consistent.
func CheckDurations(durations []float64, tolerance float64) ScheduleReport {
	if tolerance == 0 {
		tolerance = DefaultDurationTolerance
	}
	report := ScheduleReport{Tolerance: tolerance, Consistent: true}
	if len(durations) == 0 {
		return report
	}

	sorted := append([]float64(nil), durations...)
	sort.Float64s(sorted)
	report.Min = sorted[0]
	report.Max = sorted[len(sorted)-1]
	report.Median = median(sorted)

	if report.Median == 0 {
		// Degenerate axes; nothing meaningful to compare.
		return report
	}

	maxDeviation := 0.0
	for _, d := range durations {
		dev := math.Abs(d-report.Median) / report.Median
		if dev > maxDeviation {
			maxDeviation = dev
		}
	}
	if maxDeviation > tolerance {
		report.Consistent = false
		report.Warning = &Warning{
			Code: WarnScheduleInconsistency,
			Message: fmt.Sprintf(
				"durations range %.6g-%.6g s deviate from median %.6g s by %.1f%% (tolerance %.0f%%)",
				report.Min, report.Max, report.Median, maxDeviation*100, tolerance*100),
		}
	}
	return report
}

// median returns the median of an already-sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
