// Package signal computes derived signals from measurement data: baseline
// corrected photocurrent time series, duration-consistency checks for
// overlay sets, and transconductance curves from gate sweeps.
//
// All computations are pure: results are derived on demand from the arrays
// passed in and never cached across calls. Advisory conditions (schedule
// mismatch, extrapolated baseline time, too-short sweep segments) are
// returned as structured warnings alongside the result so callers can
// distinguish a legitimately empty output from a silent failure.
package signal
