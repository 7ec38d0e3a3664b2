package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dmaynor/bandicoot/internal/domain"
)

// RecordExtractor parses one report file into a CrashRecord. It never fails:
// unreadable files come back as error-sentinel records.
type RecordExtractor interface {
	Extract(path string) domain.CrashRecord
}

// IngestReportsUseCase drives one ingestion run: discover candidate report
// files, extract each, persist the batch, and summarize the outcome.
type IngestReportsUseCase struct {
	repo       domain.RecordRepository
	extractor  RecordExtractor
	reportDirs []string
	extensions []string
	logger     *slog.Logger
}

// NewIngestReportsUseCase creates the driver for the given user-scoped and
// system-scoped diagnostic directories.
func NewIngestReportsUseCase(repo domain.RecordRepository, extractor RecordExtractor, userReportDir, systemReportDir string, extensions []string, logger *slog.Logger) *IngestReportsUseCase {
	return &IngestReportsUseCase{
		repo:       repo,
		extractor:  extractor,
		reportDirs: []string{userReportDir, systemReportDir},
		extensions: extensions,
		logger:     logger,
	}
}

// Run executes one synchronous ingestion pass. Files are processed
// sequentially; the per-run cost is dominated by file I/O, and a single
// writer avoids contention on the store.
func (uc *IngestReportsUseCase) Run(ctx context.Context) (domain.Summary, error) {
	runID := uuid.NewString()
	log := uc.logger.With("run_id", runID)

	paths, err := uc.discover()
	if err != nil {
		return domain.Summary{}, err
	}
	log.Info("discovered report files", "count", len(paths))

	records := make([]domain.CrashRecord, 0, len(paths))
	for _, path := range paths {
		records = append(records, uc.extractor.Extract(path))
	}

	total, added, err := uc.repo.Persist(ctx, records)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("persist records: %w", err)
	}
	log.Info("ingestion run complete", "total", total, "added", len(added))

	return domain.Summary{RunID: runID, TotalRecords: total, Added: added}, nil
}

// discover expands the fixed extension set under each report directory.
// Matching is glob-style on the directory itself, not recursive.
func (uc *IngestReportsUseCase) discover() ([]string, error) {
	var paths []string
	for _, dir := range uc.reportDirs {
		for _, ext := range uc.extensions {
			matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
			if err != nil {
				return nil, fmt.Errorf("enumerate reports in %s: %w", dir, err)
			}
			paths = append(paths, matches...)
		}
	}
	return paths, nil
}
