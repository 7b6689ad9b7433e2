package services

import (
	"context"
	"fmt"
	"log/slog"

	"chipcli/internal/parsing"
	"chipcli/internal/signal"
	"chipcli/pkg/contracts/domain"
)

// SignalService computes derived signals for history entries from their raw
// data blocks. Results are computed on demand and never cached.
type SignalService struct {
	logger *slog.Logger
}

// NewSignalService creates a new signal service.
func NewSignalService(logger *slog.Logger) *SignalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignalService{logger: logger}
}

// Baseline loads the entry's time series and applies the requested baseline
// correction. In auto mode the record's laser period metadata supplies t0
// unless the caller already provided a period.
func (s *SignalService) Baseline(ctx context.Context, entry *domain.HistoryEntry, opts signal.BaselineOptions) (signal.BaselineResult, error) {
	block, err := parsing.ReadDataBlock(entry.Record.SourcePath)
	if err != nil {
		return signal.BaselineResult{}, fmt.Errorf("load data for seq %d: %w", entry.Seq, err)
	}
	t, ok := block.Column(parsing.ColumnTime)
	if !ok {
		return signal.BaselineResult{}, fmt.Errorf("seq %d has no time column", entry.Seq)
	}
	current, ok := block.Column(parsing.ColumnCurrent)
	if !ok {
		return signal.BaselineResult{}, fmt.Errorf("seq %d has no current column", entry.Seq)
	}
	if opts.Mode == signal.BaselineAuto && opts.Period == nil {
		opts.Period = entry.Record.LaserPeriod
	}

	result, err := signal.CorrectBaseline(t, current, opts)
	if err != nil {
		return signal.BaselineResult{}, err
	}
	for _, w := range result.Warnings {
		s.logger.WarnContext(ctx, "baseline warning",
			slog.Int("seq", entry.Seq),
			slog.String("code", string(w.Code)),
			slog.String("message", w.Message))
	}
	return result, nil
}

// Transconductance loads the entry's gate sweep and differentiates it.
func (s *SignalService) Transconductance(ctx context.Context, entry *domain.HistoryEntry, opts signal.TransconductanceOptions) (signal.Transconductance, error) {
	if !entry.Record.Procedure.IsGateSweep() {
		return signal.Transconductance{}, fmt.Errorf("seq %d is %s, not a gate sweep", entry.Seq, entry.Record.Procedure)
	}
	block, err := parsing.ReadDataBlock(entry.Record.SourcePath)
	if err != nil {
		return signal.Transconductance{}, fmt.Errorf("load data for seq %d: %w", entry.Seq, err)
	}
	voltage, ok := block.Column(parsing.ColumnGateVoltage)
	if !ok {
		return signal.Transconductance{}, fmt.Errorf("seq %d has no gate voltage column", entry.Seq)
	}
	current, ok := block.Column(parsing.ColumnCurrent)
	if !ok {
		return signal.Transconductance{}, fmt.Errorf("seq %d has no current column", entry.Seq)
	}

	result, err := signal.ComputeTransconductance(voltage, current, opts)
	if err != nil {
		return signal.Transconductance{}, err
	}
	for _, w := range result.Warnings {
		s.logger.WarnContext(ctx, "transconductance warning",
			slog.Int("seq", entry.Seq),
			slog.String("code", string(w.Code)),
			slog.String("message", w.Message))
	}
	return result, nil
}

// CheckSchedule compares the total durations of a set of entries intended
// to be overlaid. Entries whose data cannot be loaded are skipped with a
// warning; the check itself is advisory and never blocks processing.
func (s *SignalService) CheckSchedule(ctx context.Context, entries []domain.HistoryEntry, tolerance float64) signal.ScheduleReport {
	var durations []float64
	for i := range entries {
		block, err := parsing.ReadDataBlock(entries[i].Record.SourcePath)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping entry in schedule check",
				slog.Int("seq", entries[i].Seq),
				slog.String("error", err.Error()))
			continue
		}
		if t, ok := block.Column(parsing.ColumnTime); ok {
			durations = append(durations, signal.SeriesDuration(t))
		}
	}
	report := signal.CheckDurations(durations, tolerance)
	if report.Warning != nil {
		s.logger.WarnContext(ctx, "schedule inconsistency",
			slog.String("message", report.Warning.Message))
	}
	return report
}
