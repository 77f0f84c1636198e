package ports

import (
	"context"

	"goenrich/domain/core"
	"goenrich/domain/stats"
)

// RunRepository persists enrichment runs and their per-term records
type RunRepository interface {
	// SaveRun stores the run header
	SaveRun(ctx context.Context, run *stats.Run) error

	// SaveRecords stores the per-term results of a run
	SaveRecords(ctx context.Context, runID core.RunID, records []*stats.EnrichmentRecord) error

	// GetRun fetches one run header by ID
	GetRun(ctx context.Context, runID core.RunID) (*stats.Run, error)

	// GetRecords fetches the records of a run ordered by ascending p-value
	GetRecords(ctx context.Context, runID core.RunID) ([]*stats.EnrichmentRecord, error)

	// ListRuns returns recent run headers, newest first
	ListRuns(ctx context.Context, filters RunFilters) ([]*stats.Run, error)

	// DeleteRun removes a run and its records
	DeleteRun(ctx context.Context, runID core.RunID) error
}

// RunFilters for querying runs
type RunFilters struct {
	Backend *string
	Limit   int
	Offset  int
}
