package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"chipcli/internal/chronology"
	"chipcli/internal/files"
	"chipcli/internal/infrastructure"
	"chipcli/internal/parsing"
	"chipcli/internal/timeline"
	"chipcli/pkg/contracts/domain"
)

// FileFailure records one measurement file the parser rejected.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanSummary reports the outcome of one full data-root scan.
type ScanSummary struct {
	Folders     int           `json:"folders"`
	FilesFound  int           `json:"files_found"`
	FilesParsed int           `json:"files_parsed"`
	Failures    []FileFailure `json:"failures,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// ScanService builds a chip history from the day folders under a data root.
// The history is rebuilt wholesale on every call; nothing is patched in
// place between scans.
type ScanService struct {
	discovery *files.Discovery
	logger    *slog.Logger
	workers   int
	metrics   *infrastructure.PipelineMetrics
}

// NewScanService creates a scan service over the given data root. workers
// bounds concurrent file parsing; values below 1 mean sequential. metrics
// may be nil.
func NewScanService(dataDir string, workers int, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *ScanService {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanService{
		discovery: files.NewDiscovery(dataDir),
		logger:    logger,
		workers:   workers,
		metrics:   metrics,
	}
}

// BuildHistory scans every day folder, parses all measurement files,
// builds per-day timelines and aggregates them into one chip history.
// Parsing runs in parallel across files; aggregation waits for all of them
// before assigning seq values.
func (s *ScanService) BuildHistory(ctx context.Context) (*domain.ChipHistory, *ScanSummary, error) {
	started := time.Now()
	summary := &ScanSummary{}

	folders, err := s.discovery.FindDayFolders()
	if err != nil {
		return nil, nil, fmt.Errorf("discover day folders: %w", err)
	}
	summary.Folders = len(folders)
	s.logger.InfoContext(ctx, "scanning data root",
		slog.Int("folders", len(folders)),
		slog.Int("workers", s.workers))

	var timelines []domain.DayTimeline
	for _, folder := range folders {
		records, failures, err := s.parseFolder(ctx, folder)
		if err != nil {
			return nil, nil, err
		}
		summary.FilesFound += len(records) + len(failures)
		summary.FilesParsed += len(records)
		summary.Failures = append(summary.Failures, failures...)
		timelines = append(timelines, timeline.Build(folder, records))
	}

	history, err := chronology.Aggregate(timelines)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate timelines: %w", err)
	}

	summary.Elapsed = time.Since(started)
	if s.metrics != nil {
		s.metrics.FilesParsed.Add(ctx, int64(summary.FilesParsed))
		s.metrics.ParseFailures.Add(ctx, int64(len(summary.Failures)))
		s.metrics.HistoriesBuilt.Add(ctx, 1)
		s.metrics.ScanDuration.Record(ctx, summary.Elapsed.Seconds())
	}

	s.logger.InfoContext(ctx, "history built",
		slog.Int("records", len(history.Entries)),
		slog.Int("parse_failures", len(summary.Failures)),
		slog.Duration("elapsed", summary.Elapsed))
	return history, summary, nil
}

// parseFolder parses one day folder's files concurrently. A per-file parse
// failure is recorded and skipped, never fatal; only folder-level I/O
// problems abort the scan.
func (s *ScanService) parseFolder(ctx context.Context, folder string) ([]domain.MeasurementRecord, []FileFailure, error) {
	infos, err := s.discovery.FindMeasurementFiles(folder)
	if err != nil {
		return nil, nil, fmt.Errorf("discover files in %s: %w", folder, err)
	}

	results := make([]*domain.MeasurementRecord, len(infos))
	var mu sync.Mutex
	var failures []FileFailure

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, info := range infos {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record, err := parsing.ParseFile(info.Path)
			if err != nil {
				s.logger.WarnContext(gctx, "skipping unparseable file",
					slog.String("path", info.Path),
					slog.String("error", err.Error()))
				mu.Lock()
				failures = append(failures, FileFailure{Path: info.Path, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			results[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var records []domain.MeasurementRecord
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records, failures, nil
}
