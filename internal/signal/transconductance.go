package signal

import (
	"fmt"
	"math"
)

// DerivativeMethod selects how the per-segment derivative is taken.
type DerivativeMethod string

const (
	// MethodGradient is a central-difference derivative with one-sided
	// differences at segment endpoints.
	MethodGradient DerivativeMethod = "gradient"
	// MethodFiltered is a smoothing local polynomial least-squares
	// derivative. Because the fit runs against the actual voltage axis the
	// derivative keeps the correct sign on reverse sweeps.
	MethodFiltered DerivativeMethod = "filtered"
)

const (
	// DefaultFilterWindow is the filtered-method window length in samples.
	DefaultFilterWindow = 9
	// DefaultFilterOrder is the filtered-method polynomial order.
	DefaultFilterOrder = 3
)

// TransconductanceOptions configures one derivative computation.
type TransconductanceOptions struct {
	Method DerivativeMethod
	// Window is the filtered-method window length; 0 means the default.
	// It is auto-shrunk when a segment is shorter.
	Window int
	// Order is the filtered-method polynomial order; 0 means the default.
	Order int
}

// Transconductance is a dI/dVg curve paired with its voltage axis.
// Segments are concatenated with a NaN pair between them so plotting code
// does not draw a line across a sweep reversal.
type Transconductance struct {
	Voltage  []float64 `json:"voltage"`
	Gm       []float64 `json:"gm"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// ComputeTransconductance segments a gate sweep, collapses duplicate
// voltage samples and differentiates each segment. A segment with fewer
// than two points contributes no output and a warning; an empty input
// yields an empty curve, not an error.
func ComputeTransconductance(voltage, current []float64, opts TransconductanceOptions) (Transconductance, error) {
	if len(voltage) != len(current) {
		return Transconductance{}, fmt.Errorf("voltage and current length mismatch: %d vs %d", len(voltage), len(current))
	}
	if opts.Method == "" {
		opts.Method = MethodGradient
	}
	if opts.Window == 0 {
		opts.Window = DefaultFilterWindow
	}
	if opts.Order == 0 {
		opts.Order = DefaultFilterOrder
	}

	var out Transconductance
	wrote := false
	for idx, seg := range SplitSegments(voltage, current) {
		if len(seg.Voltage) < 2 {
			out.Warnings = append(out.Warnings, Warning{
				Code:    WarnSegmentTooShort,
				Message: fmt.Sprintf("segment %d has %d point(s), skipped", idx+1, len(seg.Voltage)),
			})
			continue
		}

		var gm []float64
		switch opts.Method {
		case MethodGradient:
			gm = gradient(seg.Voltage, seg.Current)
		case MethodFiltered:
			gm = filteredDerivative(seg.Voltage, seg.Current, opts.Window, opts.Order)
		default:
			return Transconductance{}, fmt.Errorf("unknown derivative method %q", opts.Method)
		}

		if wrote {
			// Gap marker between segments, not a literal data point.
			out.Voltage = append(out.Voltage, math.NaN())
			out.Gm = append(out.Gm, math.NaN())
		}
		out.Voltage = append(out.Voltage, seg.Voltage...)
		out.Gm = append(out.Gm, gm...)
		wrote = true
	}
	return out, nil
}

// gradient computes a second-order central-difference derivative on a
// possibly non-uniform axis, with forward/backward differences at the
// endpoints.
func gradient(x, y []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	out[0] = (y[1] - y[0]) / (x[1] - x[0])
	out[n-1] = (y[n-1] - y[n-2]) / (x[n-1] - x[n-2])
	for k := 1; k < n-1; k++ {
		hs := x[k] - x[k-1]
		hd := x[k+1] - x[k]
		out[k] = (hs*hs*y[k+1] + (hd*hd-hs*hs)*y[k] - hd*hd*y[k-1]) / (hs * hd * (hs + hd))
	}
	return out
}

// filteredDerivative evaluates a local least-squares polynomial fit around
// each sample and takes its analytic derivative there. The window is
// shrunk to the segment length (kept odd) and the order capped below the
// window size.
func filteredDerivative(x, y []float64, window, order int) []float64 {
	n := len(x)
	if window > n {
		window = n
	}
	if window%2 == 0 {
		window--
	}
	if window < 2 {
		window = 2
	}
	if order >= window {
		order = window - 1
	}
	if order < 1 {
		order = 1
	}

	half := window / 2
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		lo := k - half
		hi := k + half + 1
		if lo < 0 {
			lo = 0
			hi = window
		}
		if hi > n {
			hi = n
			lo = n - window
			if lo < 0 {
				lo = 0
			}
		}
		out[k] = polyDerivativeAt(x[lo:hi], y[lo:hi], x[k], order)
	}
	return out
}
