package signal

// WarningCode identifies an advisory condition raised during signal
// computation. Warnings never block processing.
type WarningCode string

const (
	// WarnExtrapolation means the baseline reference time lies outside the
	// recorded time range; the value is still computed and returned.
	WarnExtrapolation WarningCode = "extrapolation"
	// WarnScheduleInconsistency means durations of an overlay set deviate
	// from their median beyond the tolerance.
	WarnScheduleInconsistency WarningCode = "schedule_inconsistency"
	// WarnSegmentTooShort means a sweep segment had fewer than two points
	// and contributed no output.
	WarnSegmentTooShort WarningCode = "segment_too_short"
	// WarnDefaultBaselineTime means auto mode fell back to the fixed
	// default reference time because no laser period was available.
	WarnDefaultBaselineTime WarningCode = "default_baseline_time"
)

// Warning is a structured advisory attached to a computation result.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}
