package domain

// Role annotates a record's position relative to neighboring gate sweeps
// within one day. The labeling is advisory metadata for drift analysis; it
// does not gate any ordering invariant.
type Role string

const (
	// RolePreSweep marks a gate sweep opening a session (also the default
	// for standalone sweeps with no adjacent time series).
	RolePreSweep Role = "pre-sweep"
	// RoleTimeSeries marks a non-sweep record sitting between two gate
	// sweeps of a session.
	RoleTimeSeries Role = "time-series"
	// RolePostSweep marks the gate sweep closing a session. When another
	// block follows without a gap the same sweep also opens the next
	// session.
	RolePostSweep Role = "post-sweep"
	// RoleNone marks a record outside any session.
	RoleNone Role = ""
)

// TimelineEntry is one record of a day timeline with its session role.
type TimelineEntry struct {
	Record MeasurementRecord `json:"record"`
	Role   Role              `json:"role"`
	// Session numbers the sweep/series/sweep block the entry belongs to,
	// starting at 1; 0 means the entry is outside any session. A boundary
	// sweep carries the session it closes.
	Session int `json:"session"`
}

// DayTimeline is the ordered sequence of records parsed from one day
// folder. It is immutable after construction and rebuilt wholesale on every
// re-scan.
type DayTimeline struct {
	Folder  string          `json:"folder"`
	Entries []TimelineEntry `json:"entries"`
}
