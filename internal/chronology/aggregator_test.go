package chronology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chipcli/pkg/contracts/domain"
)

func f64(v float64) *float64 { return &v }

func entry(proc domain.Procedure, start *float64, index int, folder, path string) domain.TimelineEntry {
	return domain.TimelineEntry{
		Record: domain.MeasurementRecord{
			SourcePath:   path,
			SourceFolder: folder,
			Procedure:    proc,
			FileIndex:    index,
			StartTime:    start,
			HasLight:     domain.LightUnknown,
		},
	}
}

func sampleTimelines() []domain.DayTimeline {
	day1 := domain.DayTimeline{
		Folder: "data/2024-05-11",
		Entries: []domain.TimelineEntry{
			entry(domain.ProcedureGateSweep, f64(1000), 1, "data/2024-05-11", "data/2024-05-11/IVg2024-05-11_1.csv"),
			entry(domain.ProcedureTimeSeries, f64(2000), 2, "data/2024-05-11", "data/2024-05-11/It2024-05-11_2.csv"),
		},
	}
	day2 := domain.DayTimeline{
		Folder: "data/2024-05-12",
		Entries: []domain.TimelineEntry{
			entry(domain.ProcedureTimeSeries, f64(90000), 1, "data/2024-05-12", "data/2024-05-12/It2024-05-12_1.csv"),
			entry(domain.ProcedureGateSweep, nil, 2, "data/2024-05-12", "data/2024-05-12/IVg2024-05-12_2.csv"),
		},
	}
	return []domain.DayTimeline{day1, day2}
}

func TestAggregateAssignsDenseSeq(t *testing.T) {
	history, err := Aggregate(sampleTimelines())
	require.NoError(t, err)
	require.Len(t, history.Entries, 4)

	for i, e := range history.Entries {
		assert.Equal(t, i+1, e.Seq)
	}

	// Chronological order across days; the untimestamped record sorts last.
	assert.Equal(t, "data/2024-05-11/IVg2024-05-11_1.csv", history.Entries[0].Record.SourcePath)
	assert.Equal(t, "data/2024-05-12/It2024-05-12_1.csv", history.Entries[2].Record.SourcePath)
	assert.Equal(t, "data/2024-05-12/IVg2024-05-12_2.csv", history.Entries[3].Record.SourcePath)
}

func TestAggregateIsIndependentOfInputOrder(t *testing.T) {
	forward, err := Aggregate(sampleTimelines())
	require.NoError(t, err)

	tls := sampleTimelines()
	tls[0], tls[1] = tls[1], tls[0]
	reversed, err := Aggregate(tls)
	require.NoError(t, err)

	require.Equal(t, len(forward.Entries), len(reversed.Entries))
	for i := range forward.Entries {
		assert.Equal(t, forward.Entries[i].Record.SourcePath, reversed.Entries[i].Record.SourcePath)
		assert.Equal(t, forward.Entries[i].Seq, reversed.Entries[i].Seq)
	}
}

func TestAggregateFolderTieBreak(t *testing.T) {
	// Identical timestamps and indices across two folders: the folder path
	// decides deterministically.
	a := domain.DayTimeline{Folder: "data/2024-05-11_A", Entries: []domain.TimelineEntry{
		entry(domain.ProcedureTimeSeries, f64(500), 1, "data/2024-05-11_A", "data/2024-05-11_A/It2024-05-11_1.csv"),
	}}
	b := domain.DayTimeline{Folder: "data/2024-05-11_B", Entries: []domain.TimelineEntry{
		entry(domain.ProcedureTimeSeries, f64(500), 1, "data/2024-05-11_B", "data/2024-05-11_B/It2024-05-11_1.csv"),
	}}

	history, err := Aggregate([]domain.DayTimeline{b, a})
	require.NoError(t, err)
	require.Len(t, history.Entries, 2)
	assert.Equal(t, "data/2024-05-11_A", history.Entries[0].Record.SourceFolder)
	assert.Equal(t, "data/2024-05-11_B", history.Entries[1].Record.SourceFolder)
}

func TestAggregateEmpty(t *testing.T) {
	history, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, history.Entries)
	assert.Empty(t, history.Columns)
}

func TestUnionColumns(t *testing.T) {
	e1 := entry(domain.ProcedureTimeSeries, f64(1000), 1, "d", "d/It_1.csv")
	e1.Record.LaserVoltage = f64(1.78)
	e1.Record.Extra = []domain.ExtraField{{Name: "Sensor model", Value: "SR570"}}

	e2 := entry(domain.ProcedureGateSweep, f64(2000), 2, "d", "d/IVg_2.csv")
	e2.Record.VGStart = f64(-1.5)
	e2.Record.VGEnd = f64(1.5)
	e2.Record.Extra = []domain.ExtraField{{Name: "Averaging", Value: "4"}}

	history, err := Aggregate([]domain.DayTimeline{{Folder: "d", Entries: []domain.TimelineEntry{e1, e2}}})
	require.NoError(t, err)

	// Typed columns in fixed order, then extras sorted by name.
	assert.Equal(t, []string{
		ColStartTime, ColTimeOfDay,
		ColVGStart, ColVGEnd,
		ColLaserVoltage,
		ColHasLight,
		"Averaging", "Sensor model",
	}, history.Columns)
}

func TestColumnValue(t *testing.T) {
	e := domain.HistoryEntry{Seq: 1, Record: domain.MeasurementRecord{
		Procedure:    domain.ProcedureTimeSeries,
		LaserVoltage: f64(1.78),
		HasLight:     domain.LightOn,
		Extra:        []domain.ExtraField{{Name: "Sensor model", Value: "SR570"}},
	}}

	t.Run("present numeric field", func(t *testing.T) {
		v, present := ColumnValue(&e, ColLaserVoltage)
		assert.True(t, present)
		assert.Equal(t, "1.78", v)
	})

	t.Run("absent field is explicit, not zero", func(t *testing.T) {
		v, present := ColumnValue(&e, ColVG)
		assert.False(t, present)
		assert.Equal(t, "", v)
	})

	t.Run("illumination always present", func(t *testing.T) {
		v, present := ColumnValue(&e, ColHasLight)
		assert.True(t, present)
		assert.Equal(t, "on", v)
	})

	t.Run("retained extra field", func(t *testing.T) {
		v, present := ColumnValue(&e, "Sensor model")
		assert.True(t, present)
		assert.Equal(t, "SR570", v)
	})

	t.Run("time of day derives from start time", func(t *testing.T) {
		_, present := ColumnValue(&e, ColTimeOfDay)
		assert.False(t, present)

		withTime := e
		withTime.Record.StartTime = f64(1715500000)
		v, present := ColumnValue(&withTime, ColTimeOfDay)
		assert.True(t, present)
		assert.NotEmpty(t, v)
	})
}
