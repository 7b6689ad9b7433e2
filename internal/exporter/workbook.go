package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"chipcli/pkg/contracts/domain"
)

const (
	historySheet = "History"
	summarySheet = "Summary"
)

// WriteHistoryWorkbook writes the history table to an Excel workbook with a
// History sheet (the union-schema table) and a Summary sheet (counts per
// procedure and illumination state). Absent fields stay empty cells.
func WriteHistoryWorkbook(path string, history *domain.ChipHistory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close workbook", slog.String("error", err.Error()))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, historySheet, 1, toAny(HistoryHeaders(history))); err != nil {
		return err
	}
	for i, row := range HistoryRows(history) {
		if err := writeRow(f, historySheet, i+2, toAny(row)); err != nil {
			return err
		}
	}

	if err := writeSummarySheet(f, history); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	slog.Info("Wrote history workbook",
		slog.String("path", path),
		slog.Int("rows", len(history.Entries)))
	return nil
}

// writeSummarySheet adds per-procedure and per-illumination counts.
func writeSummarySheet(f *excelize.File, history *domain.ChipHistory) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	procCounts := make(map[domain.Procedure]int)
	lightCounts := make(map[domain.LightState]int)
	for i := range history.Entries {
		procCounts[history.Entries[i].Record.Procedure]++
		lightCounts[history.Entries[i].Record.HasLight]++
	}

	row := 1
	if err := writeRow(f, summarySheet, row, []any{"procedure", "count"}); err != nil {
		return err
	}
	row++
	for _, proc := range domain.KnownProcedures {
		if procCounts[proc] == 0 {
			continue
		}
		if err := writeRow(f, summarySheet, row, []any{string(proc), procCounts[proc]}); err != nil {
			return err
		}
		row++
	}

	row++
	if err := writeRow(f, summarySheet, row, []any{"has_light", "count"}); err != nil {
		return err
	}
	row++
	for _, state := range []domain.LightState{domain.LightOn, domain.LightOff, domain.LightUnknown} {
		if lightCounts[state] == 0 {
			continue
		}
		if err := writeRow(f, summarySheet, row, []any{state.String(), lightCounts[state]}); err != nil {
			return err
		}
		row++
	}
	return nil
}

// writeRow writes one row starting at column A.
func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// toAny widens a string slice for SetSheetRow.
func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
