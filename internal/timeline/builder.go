// Package timeline orders one day folder's records and assigns session
// roles by pattern-matching consecutive procedure types.
package timeline

import (
	"sort"

	"chipcli/pkg/contracts/domain"
)

// Build returns the DayTimeline for one folder's records. Records with a
// start time sort first, by start time; records lacking one sort after,
// among themselves by file index. The timeline is rebuilt wholesale on
// every re-scan, never patched in place.
func Build(folder string, records []domain.MeasurementRecord) domain.DayTimeline {
	ordered := make([]domain.MeasurementRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		if c := domain.CompareRecords(&ordered[i], &ordered[j]); c != 0 {
			return c < 0
		}
		return ordered[i].SourcePath < ordered[j].SourcePath
	})

	entries := assignRoles(ordered)
	return domain.DayTimeline{Folder: folder, Entries: entries}
}

// assignRoles runs the session state machine over the ordered records.
//
// A gate sweep outside a session opens one as pre-sweep. Non-sweep records
// that follow are time-series of that session until the next gate sweep,
// which closes it as post-sweep; if more non-sweep records follow without a
// gap the same sweep also opens the next session. A sweep directly following
// another sweep (no series between) starts a fresh session instead, leaving
// the earlier sweep a standalone pre-sweep.
func assignRoles(records []domain.MeasurementRecord) []domain.TimelineEntry {
	entries := make([]domain.TimelineEntry, 0, len(records))

	session := 0
	open := false          // an opening sweep seen, collecting series
	sawSeries := false     // at least one non-sweep since the opening sweep
	pendingReopen := false // last sweep closed a session and may open the next

	for _, rec := range records {
		entry := domain.TimelineEntry{Record: rec}
		if rec.Procedure.IsGateSweep() {
			if open && sawSeries {
				entry.Role = domain.RolePostSweep
				entry.Session = session
				sawSeries = false
				pendingReopen = true
			} else {
				session++
				entry.Role = domain.RolePreSweep
				entry.Session = session
				open = true
				sawSeries = false
				pendingReopen = false
			}
		} else {
			if open {
				if pendingReopen {
					session++
					pendingReopen = false
				}
				entry.Role = domain.RoleTimeSeries
				entry.Session = session
				sawSeries = true
			} else {
				entry.Role = domain.RoleNone
				entry.Session = 0
			}
		}
		entries = append(entries, entry)
	}
	return entries
}
