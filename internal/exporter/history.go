package exporter

import (
	"fmt"
	"math"
	"strconv"

	"chipcli/internal/chronology"
	"chipcli/internal/signal"
	"chipcli/pkg/contracts/domain"
)

// identityHeaders are the always-present columns of the history table,
// ahead of the union-schema optional columns.
var identityHeaders = []string{"seq", "source_path", "procedure", "file_index", "role"}

// HistoryHeaders returns the full CSV header row for a history.
func HistoryHeaders(history *domain.ChipHistory) []string {
	return append(append([]string(nil), identityHeaders...), history.Columns...)
}

// HistoryRows renders every history entry as a CSV row. Absent optional
// fields become empty cells, the CSV rendering of the explicit null marker.
func HistoryRows(history *domain.ChipHistory) [][]string {
	rows := make([][]string, 0, len(history.Entries))
	for i := range history.Entries {
		e := &history.Entries[i]
		row := []string{
			strconv.Itoa(e.Seq),
			e.Record.SourcePath,
			string(e.Record.Procedure),
			strconv.Itoa(e.Record.FileIndex),
			string(e.Role),
		}
		for _, col := range history.Columns {
			value, present := chronology.ColumnValue(e, col)
			if !present {
				value = ""
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteHistoryCSV writes the full history table to the given path.
func WriteHistoryCSV(path string, history *domain.ChipHistory) error {
	return WriteCSV(path, WriteOptions{
		Headers: HistoryHeaders(history),
		Records: HistoryRows(history),
	})
}

// WriteBaselineCSV writes a baseline-corrected series for one seq.
func WriteBaselineCSV(path string, seq int, result signal.BaselineResult) error {
	records := make([][]string, 0, len(result.Time))
	for i := range result.Time {
		records = append(records, []string{
			formatSample(result.Time[i]),
			formatSample(result.Current[i]),
		})
	}
	if err := WriteCSV(path, WriteOptions{
		Headers: []string{"t", fmt.Sprintf("dI_seq%d", seq)},
		Records: records,
	}); err != nil {
		return fmt.Errorf("write baseline for seq %d: %w", seq, err)
	}
	return nil
}

// WriteTransconductanceCSV writes a dI/dVg curve for one seq. NaN gap
// markers between sweep segments become empty cells.
func WriteTransconductanceCSV(path string, seq int, result signal.Transconductance) error {
	records := make([][]string, 0, len(result.Voltage))
	for i := range result.Voltage {
		records = append(records, []string{
			formatSample(result.Voltage[i]),
			formatSample(result.Gm[i]),
		})
	}
	if err := WriteCSV(path, WriteOptions{
		Headers: []string{"vg", fmt.Sprintf("gm_seq%d", seq)},
		Records: records,
	}); err != nil {
		return fmt.Errorf("write transconductance for seq %d: %w", seq, err)
	}
	return nil
}

// formatSample renders one data sample; NaN (the segment gap marker)
// renders as an empty cell.
func formatSample(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
