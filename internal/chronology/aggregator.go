// Package chronology merges per-day timelines for one chip into a single
// time-ordered history with stable seq identifiers.
package chronology

import (
	"fmt"
	"sort"
	"strconv"

	"chipcli/pkg/contracts/domain"
)

// Aggregate merges any number of day timelines into one ChipHistory. The
// global order key is (start-time-present, start time, file index) with the
// source folder path as the final deterministic tie-break, so seq is a pure
// function of the input set, independent of scan order.
//
// Aggregation is a synchronization barrier: callers must hand over complete
// timelines, and seq values are assigned in a single non-incremental pass.
// A duplicate seq afterwards means the ordering guarantee itself is broken
// and is returned as a fatal error, unlike per-file input problems.
func Aggregate(timelines []domain.DayTimeline) (*domain.ChipHistory, error) {
	var entries []domain.HistoryEntry
	for _, tl := range timelines {
		for _, e := range tl.Entries {
			entries = append(entries, domain.HistoryEntry{Record: e.Record, Role: e.Role})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i].Record, &entries[j].Record
		if c := domain.CompareRecords(a, b); c != 0 {
			return c < 0
		}
		if a.SourceFolder != b.SourceFolder {
			return a.SourceFolder < b.SourceFolder
		}
		return a.SourcePath < b.SourcePath
	})

	for i := range entries {
		entries[i].Seq = i + 1
	}

	if err := verifySeqInvariant(entries); err != nil {
		return nil, err
	}

	return &domain.ChipHistory{
		Entries: entries,
		Columns: unionColumns(entries),
	}, nil
}

// verifySeqInvariant halts aggregation when seq values are not dense and
// strictly increasing from 1. This guards the module's own guarantee, not
// bad input, so it is fatal.
func verifySeqInvariant(entries []domain.HistoryEntry) error {
	for i := range entries {
		if entries[i].Seq != i+1 {
			return fmt.Errorf("seq invariant violated: entry %d has seq %d", i, entries[i].Seq)
		}
	}
	return nil
}

// Optional-field column identifiers of the union schema, in export order.
// Identity columns (seq, source path, procedure, file index, role) are
// always present and live outside this union.
const (
	ColStartTime       = "start_time"
	ColTimeOfDay       = "time_of_day"
	ColChipGroup       = "chip_group"
	ColChipNumber      = "chip_number"
	ColVG              = "vg"
	ColVGStart         = "vg_start"
	ColVGEnd           = "vg_end"
	ColVGStep          = "vg_step"
	ColVDS             = "vds"
	ColVDSStart        = "vds_start"
	ColVDSEnd          = "vds_end"
	ColLaserVoltage    = "laser_voltage"
	ColLaserWavelength = "laser_wavelength"
	ColLaserPeriod     = "laser_period"
	ColHasLight        = "has_light"
)

var optionalColumns = []string{
	ColStartTime, ColTimeOfDay, ColChipGroup, ColChipNumber,
	ColVG, ColVGStart, ColVGEnd, ColVGStep,
	ColVDS, ColVDSStart, ColVDSEnd,
	ColLaserVoltage, ColLaserWavelength, ColLaserPeriod,
	ColHasLight,
}

// unionColumns computes the union of optional-field columns across all
// entries: typed fields present somewhere, in fixed order, followed by
// retained unrecognized header fields sorted by name.
func unionColumns(entries []domain.HistoryEntry) []string {
	var columns []string
	for _, col := range optionalColumns {
		for i := range entries {
			if _, present := ColumnValue(&entries[i], col); present {
				columns = append(columns, col)
				break
			}
		}
	}

	extraSet := make(map[string]bool)
	for i := range entries {
		for _, f := range entries[i].Record.Extra {
			extraSet[f.Name] = true
		}
	}
	extras := make([]string, 0, len(extraSet))
	for name := range extraSet {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	return append(columns, extras...)
}

// ColumnValue renders one union-schema cell of a history entry. The second
// result is false when the field is absent for this record; consumers must
// emit an explicit null/empty marker then, never a zero.
func ColumnValue(e *domain.HistoryEntry, column string) (string, bool) {
	r := &e.Record
	switch column {
	case ColStartTime:
		return formatOptional(r.StartTime)
	case ColTimeOfDay:
		if r.StartTime == nil {
			return "", false
		}
		return r.TimeOfDay(), true
	case ColChipGroup:
		return r.ChipGroup, r.ChipGroup != ""
	case ColChipNumber:
		if r.ChipNumber == nil {
			return "", false
		}
		return strconv.Itoa(*r.ChipNumber), true
	case ColVG:
		return formatOptional(r.VG)
	case ColVGStart:
		return formatOptional(r.VGStart)
	case ColVGEnd:
		return formatOptional(r.VGEnd)
	case ColVGStep:
		return formatOptional(r.VGStep)
	case ColVDS:
		return formatOptional(r.VDS)
	case ColVDSStart:
		return formatOptional(r.VDSStart)
	case ColVDSEnd:
		return formatOptional(r.VDSEnd)
	case ColLaserVoltage:
		return formatOptional(r.LaserVoltage)
	case ColLaserWavelength:
		return formatOptional(r.LaserWavelength)
	case ColLaserPeriod:
		return formatOptional(r.LaserPeriod)
	case ColHasLight:
		return r.HasLight.String(), true
	}
	for _, f := range r.Extra {
		if f.Name == column {
			return f.Value, true
		}
	}
	return "", false
}

func formatOptional(v *float64) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.FormatFloat(*v, 'g', -1, 64), true
}
