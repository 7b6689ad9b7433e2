// Command indexer scans every day folder under the data root, parses the
// measurement files, aggregates them into a chronological chip history and
// writes the history index to CSV (and optionally an Excel workbook).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"chipcli/internal/config"
	"chipcli/internal/exporter"
	"chipcli/internal/infrastructure"
	"chipcli/internal/services"
)

func main() {
	dir := flag.String("dir", "", "directory containing day folders (defaults to data relative to executable)")
	out := flag.String("out", "", "output csv file path (defaults to reports/history.csv)")
	xlsx := flag.Bool("xlsx", false, "also write an Excel workbook next to the csv")
	workers := flag.Int("workers", 0, "number of concurrent file parsers (defaults from config)")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if *dir == "" {
		*dir = paths.DataDir
	}
	if *out == "" {
		*out = paths.HistoryCSV
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   "both",
				FilePath: paths.GetLogPath("indexer.log"),
			},
			Scan: config.ScanConfig{Workers: 4},
		}
	}
	if *workers == 0 {
		*workers = cfg.Scan.Workers
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.EnsureTraceID(context.Background())
	logger.InfoContext(ctx, "Starting history index build",
		slog.String("input_dir", *dir),
		slog.String("output_file", *out),
		slog.Int("workers", *workers))

	scanner := services.NewScanService(*dir, *workers, logger, nil)
	history, summary, err := scanner.BuildHistory(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "History build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, failure := range summary.Failures {
		logger.WarnContext(ctx, "File skipped",
			slog.String("path", failure.Path),
			slog.String("error", failure.Error))
	}

	if err := exporter.WriteHistoryCSV(*out, history); err != nil {
		logger.ErrorContext(ctx, "Failed to write history CSV",
			slog.String("path", *out),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *xlsx {
		if err := exporter.WriteHistoryWorkbook(paths.HistoryXLSX, history); err != nil {
			logger.ErrorContext(ctx, "Failed to write history workbook",
				slog.String("path", paths.HistoryXLSX),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.InfoContext(ctx, "History index build completed",
		slog.Int("folders", summary.Folders),
		slog.Int("files_parsed", summary.FilesParsed),
		slog.Int("files_failed", len(summary.Failures)),
		slog.Int("records", len(history.Entries)),
		slog.String("output_path", *out))
}
