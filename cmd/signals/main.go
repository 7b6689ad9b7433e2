// Command signals computes derived signals for selected history entries:
// baseline-corrected photocurrent series for time-series records and
// transconductance curves for gate sweeps, written as per-seq CSV files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chipcli/internal/config"
	"chipcli/internal/exporter"
	"chipcli/internal/infrastructure"
	"chipcli/internal/services"
	"chipcli/internal/signal"
)

func main() {
	dir := flag.String("dir", "", "directory containing day folders (defaults to data relative to executable)")
	outDir := flag.String("outdir", "", "output directory (defaults to reports)")
	seqsFlag := flag.String("seqs", "", "comma-separated seq list, e.g. 52,57,58 (required)")
	baseline := flag.String("baseline", "none", "baseline mode for time series: none | fixed | zero | auto")
	t0 := flag.Float64("t0", 0, "reference time for fixed baseline mode")
	divisor := flag.Float64("divisor", 0, "laser period divisor for auto baseline mode")
	method := flag.String("method", "gradient", "derivative method for gate sweeps: gradient | filtered")
	window := flag.Int("window", 0, "filtered derivative window length")
	order := flag.Int("order", 0, "filtered derivative polynomial order")
	checkDurations := flag.Bool("check-durations", true, "run the duration-consistency check over the selection")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if *dir == "" {
		*dir = paths.DataDir
	}
	if *outDir == "" {
		*outDir = paths.ReportsDir
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   "both",
				FilePath: paths.GetLogPath("signals.log"),
			},
			Scan:   config.ScanConfig{Workers: 4},
			Signal: config.SignalConfig{DurationTolerance: signal.DefaultDurationTolerance},
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	seqs, err := parseSeqs(*seqsFlag)
	if err != nil {
		logger.Error("Invalid -seqs flag", slog.String("error", err.Error()))
		os.Exit(2)
	}

	ctx := infrastructure.EnsureTraceID(context.Background())
	scanner := services.NewScanService(*dir, cfg.Scan.Workers, logger, nil)
	history, _, err := scanner.BuildHistory(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "History build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	selection := history.BySeqs(seqs)
	if len(selection) == 0 {
		logger.ErrorContext(ctx, "No history entries match the requested seqs",
			slog.String("seqs", *seqsFlag))
		os.Exit(1)
	}

	signals := services.NewSignalService(logger)

	if *checkDurations {
		report := signals.CheckSchedule(ctx, selection, cfg.Signal.DurationTolerance)
		if !report.Consistent {
			fmt.Printf("Warning: %s\n", report.Warning.Message)
		}
	}

	failed := 0
	for i := range selection {
		entry := &selection[i]
		switch {
		case entry.Record.Procedure.IsGateSweep():
			opts := signal.TransconductanceOptions{
				Method: signal.DerivativeMethod(*method),
				Window: *window,
				Order:  *order,
			}
			result, err := signals.Transconductance(ctx, entry, opts)
			if err != nil {
				logger.ErrorContext(ctx, "Transconductance failed",
					slog.Int("seq", entry.Seq), slog.String("error", err.Error()))
				failed++
				continue
			}
			out := filepath.Join(*outDir, fmt.Sprintf("gm_seq%d.csv", entry.Seq))
			if err := exporter.WriteTransconductanceCSV(out, entry.Seq, result); err != nil {
				logger.ErrorContext(ctx, "Write failed", slog.String("error", err.Error()))
				failed++
			}
		default:
			opts := signal.BaselineOptions{
				Mode:    signal.BaselineMode(*baseline),
				T0:      *t0,
				Divisor: *divisor,
			}
			result, err := signals.Baseline(ctx, entry, opts)
			if err != nil {
				logger.ErrorContext(ctx, "Baseline failed",
					slog.Int("seq", entry.Seq), slog.String("error", err.Error()))
				failed++
				continue
			}
			out := filepath.Join(*outDir, fmt.Sprintf("baseline_seq%d.csv", entry.Seq))
			if err := exporter.WriteBaselineCSV(out, entry.Seq, result); err != nil {
				logger.ErrorContext(ctx, "Write failed", slog.String("error", err.Error()))
				failed++
			}
		}
	}

	logger.InfoContext(ctx, "Signal computation completed",
		slog.Int("selected", len(selection)),
		slog.Int("failed", failed),
		slog.String("output_dir", *outDir))
	if failed > 0 {
		os.Exit(1)
	}
}

// parseSeqs parses the comma-separated -seqs flag.
func parseSeqs(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("-seqs is required")
	}
	var seqs []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad seq %q: %w", part, err)
		}
		seqs = append(seqs, n)
	}
	return seqs, nil
}
