package signal

import (
	"fmt"
)

// BaselineMode selects how the reference current is chosen. The caller
// always picks the mode explicitly; it is never inferred from the data.
type BaselineMode string

const (
	// BaselineNone passes the raw current through unchanged (dark records).
	BaselineNone BaselineMode = "none"
	// BaselineFixed subtracts the current interpolated at a caller-supplied
	// reference time t0.
	BaselineFixed BaselineMode = "fixed"
	// BaselineZero subtracts the first recorded sample. This is distinct
	// from fixed at t0=0 whenever the first sample is not at t=0, so it is
	// its own branch.
	BaselineZero BaselineMode = "zero"
	// BaselineAuto derives t0 from the record's laser period metadata.
	BaselineAuto BaselineMode = "auto"
)

const (
	// DefaultAutoDivisor divides the laser ON+OFF period to obtain t0 in
	// auto mode.
	DefaultAutoDivisor = 2.0
	// DefaultAutoT0 is the fallback reference time when no laser period is
	// available anywhere in the batch.
	DefaultAutoT0 = 60.0
)

// BaselineOptions configures one baseline correction invocation.
type BaselineOptions struct {
	Mode BaselineMode
	// T0 is the reference time for fixed mode.
	T0 float64
	// Divisor divides the laser period in auto mode; 0 means the default.
	Divisor float64
	// Period is the record's laser ON+OFF period in seconds, nil when the
	// header lacked it.
	Period *float64
}

// BaselineResult is a baseline-corrected time series paired with its
// originating time axis.
type BaselineResult struct {
	Time    []float64 `json:"time"`
	Current []float64 `json:"current"`
	// T0 is the reference time actually used, nil for mode none.
	T0       *float64  `json:"t0,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// t0Evaluator is one step of the auto-mode fallback chain. It returns the
// reference time and an optional warning, or nil when it has no answer.
type t0Evaluator func(opts BaselineOptions) (*float64, *Warning)

var t0Evaluators = []t0Evaluator{
	t0FromPeriod,
	t0Default,
}

// CorrectBaseline applies the selected baseline mode to a (time, current)
// series and returns the corrected series with any advisory warnings.
func CorrectBaseline(t, current []float64, opts BaselineOptions) (BaselineResult, error) {
	if len(t) != len(current) {
		return BaselineResult{}, fmt.Errorf("time and current length mismatch: %d vs %d", len(t), len(current))
	}

	result := BaselineResult{
		Time:    append([]float64(nil), t...),
		Current: append([]float64(nil), current...),
	}
	if len(t) == 0 {
		return result, nil
	}

	switch opts.Mode {
	case BaselineNone:
		return result, nil

	case BaselineZero:
		ref := current[0]
		for i := range result.Current {
			result.Current[i] -= ref
		}
		t0 := t[0]
		result.T0 = &t0
		return result, nil

	case BaselineFixed:
		return subtractAt(result, opts.T0)

	case BaselineAuto:
		var t0 *float64
		for _, evaluate := range t0Evaluators {
			var warn *Warning
			t0, warn = evaluate(opts)
			if warn != nil {
				result.Warnings = append(result.Warnings, *warn)
			}
			if t0 != nil {
				break
			}
		}
		return subtractAt(result, *t0)

	default:
		return BaselineResult{}, fmt.Errorf("unknown baseline mode %q", opts.Mode)
	}
}

// subtractAt interpolates the current at t0 and subtracts it from every
// sample. When t0 lies outside the recorded range the value is linearly
// extrapolated and an advisory warning is attached.
func subtractAt(result BaselineResult, t0 float64) (BaselineResult, error) {
	ref, extrapolated := interpolateAt(result.Time, result.Current, t0)
	if extrapolated {
		result.Warnings = append(result.Warnings, Warning{
			Code: WarnExtrapolation,
			Message: fmt.Sprintf("t0=%g outside recorded range [%g, %g]",
				t0, result.Time[0], result.Time[len(result.Time)-1]),
		})
	}
	for i := range result.Current {
		result.Current[i] -= ref
	}
	result.T0 = &t0
	return result, nil
}

// t0FromPeriod derives t0 as period/divisor when the laser period is known.
func t0FromPeriod(opts BaselineOptions) (*float64, *Warning) {
	if opts.Period == nil {
		return nil, nil
	}
	divisor := opts.Divisor
	if divisor == 0 {
		divisor = DefaultAutoDivisor
	}
	t0 := *opts.Period / divisor
	return &t0, nil
}

// t0Default is the terminal fallback of the auto chain.
func t0Default(BaselineOptions) (*float64, *Warning) {
	t0 := DefaultAutoT0
	return &t0, &Warning{
		Code:    WarnDefaultBaselineTime,
		Message: fmt.Sprintf("no laser period available, using default t0=%g s", DefaultAutoT0),
	}
}

// interpolateAt evaluates the series at t0 by linear interpolation against
// the time axis. Outside the recorded range it extends the nearest pair of
// samples linearly and reports extrapolation.
func interpolateAt(t, y []float64, t0 float64) (value float64, extrapolated bool) {
	n := len(t)
	if n == 1 {
		return y[0], t0 != t[0]
	}
	if t0 < t[0] {
		return extend(t[0], y[0], t[1], y[1], t0), true
	}
	if t0 > t[n-1] {
		return extend(t[n-2], y[n-2], t[n-1], y[n-1], t0), true
	}
	for i := 1; i < n; i++ {
		if t0 <= t[i] {
			return extend(t[i-1], y[i-1], t[i], y[i], t0), false
		}
	}
	return y[n-1], false
}

// extend evaluates the line through (x0,y0) and (x1,y1) at x.
func extend(x0, y0, x1, y1, x float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
