package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"goenrich/domain/core"
	"goenrich/domain/stats"
	"goenrich/ports"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// runRow mirrors the enrichment_runs table
type runRow struct {
	ID        string    `db:"id"`
	Backend   string    `db:"backend"`
	TestType  string    `db:"test_type"`
	StudyN    int       `db:"study_n"`
	PopN      int       `db:"pop_n"`
	StudyHash string    `db:"study_hash"`
	PopHash   string    `db:"pop_hash"`
	NumTerms  int       `db:"num_terms"`
	RuntimeMs int64     `db:"runtime_ms"`
	CreatedAt time.Time `db:"created_at"`
}

func (r runRow) toDomain() *stats.Run {
	return &stats.Run{
		ID:        core.RunID(r.ID),
		Backend:   r.Backend,
		TestType:  stats.TestType(r.TestType),
		StudyN:    r.StudyN,
		PopN:      r.PopN,
		StudyHash: core.SetHash(r.StudyHash),
		PopHash:   core.SetHash(r.PopHash),
		NumTerms:  r.NumTerms,
		RuntimeMs: r.RuntimeMs,
		CreatedAt: core.NewTimestamp(r.CreatedAt),
	}
}

// recordRow mirrors the enrichment_records table
type recordRow struct {
	RunID      string    `db:"run_id"`
	TermID     string    `db:"term_id"`
	StudyCount int       `db:"study_count"`
	StudyN     int       `db:"study_n"`
	PopCount   int       `db:"pop_count"`
	PopN       int       `db:"pop_n"`
	Enrichment string    `db:"enrichment"`
	PValue     float64   `db:"p_value"`
	FoldChange float64   `db:"fold_change"`
	StudyGenes []byte    `db:"study_genes"`
	ComputedAt time.Time `db:"computed_at"`
}

func (r recordRow) toDomain() (*stats.EnrichmentRecord, error) {
	var genes []core.GeneID
	if len(r.StudyGenes) > 0 {
		if err := json.Unmarshal(r.StudyGenes, &genes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal study_genes: %w", err)
		}
	}
	return &stats.EnrichmentRecord{
		TermID: core.TermID(r.TermID),
		Table: stats.ContingencyTable{
			StudyCount: r.StudyCount,
			StudyN:     r.StudyN,
			PopCount:   r.PopCount,
			PopN:       r.PopN,
		},
		Enrichment: stats.Enrichment(r.Enrichment),
		PValue:     r.PValue,
		FoldChange: r.FoldChange,
		StudyGenes: genes,
		ComputedAt: core.NewTimestamp(r.ComputedAt),
	}, nil
}

// SaveRun stores the run header
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *stats.Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO enrichment_runs (id, backend, test_type, study_n, pop_n, study_hash, pop_hash, num_terms, runtime_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.Backend, run.TestType, run.StudyN, run.PopN, run.StudyHash, run.PopHash, run.NumTerms, run.RuntimeMs, run.CreatedAt.Time())

	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// SaveRecords stores the per-term results of a run
func (r *RunRepositoryImpl) SaveRecords(ctx context.Context, runID core.RunID, records []*stats.EnrichmentRecord) error {
	for _, rec := range records {
		genesJSON, err := json.Marshal(rec.StudyGenes)
		if err != nil {
			return fmt.Errorf("failed to marshal study genes for %s: %w", rec.TermID, err)
		}

		_, err = r.db.ExecContext(ctx, `
			INSERT INTO enrichment_records (run_id, term_id, study_count, study_n, pop_count, pop_n, enrichment, p_value, fold_change, study_genes, computed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (run_id, term_id) DO UPDATE SET
				study_count = EXCLUDED.study_count,
				study_n = EXCLUDED.study_n,
				pop_count = EXCLUDED.pop_count,
				pop_n = EXCLUDED.pop_n,
				enrichment = EXCLUDED.enrichment,
				p_value = EXCLUDED.p_value,
				fold_change = EXCLUDED.fold_change,
				study_genes = EXCLUDED.study_genes,
				computed_at = EXCLUDED.computed_at
		`, runID, rec.TermID, rec.Table.StudyCount, rec.Table.StudyN, rec.Table.PopCount, rec.Table.PopN,
			rec.Enrichment, rec.PValue, rec.FoldChange, genesJSON, rec.ComputedAt.Time())

		if err != nil {
			return fmt.Errorf("failed to save record %s for run %s: %w", rec.TermID, runID, err)
		}
	}
	return nil
}

// GetRun fetches one run header by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, runID core.RunID) (*stats.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, backend, test_type, study_n, pop_n, study_hash, pop_hash, num_terms, runtime_ms, created_at
		FROM enrichment_runs
		WHERE id = $1
	`, runID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return row.toDomain(), nil
}

// GetRecords fetches the records of a run ordered by ascending p-value
func (r *RunRepositoryImpl) GetRecords(ctx context.Context, runID core.RunID) ([]*stats.EnrichmentRecord, error) {
	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var rows []recordRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, term_id, study_count, study_n, pop_count, pop_n, enrichment, p_value, fold_change, study_genes, computed_at
		FROM enrichment_records
		WHERE run_id = $1
		ORDER BY p_value ASC, term_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get records for run %s: %w", runID, err)
	}

	records := make([]*stats.EnrichmentRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListRuns returns recent run headers, newest first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, filters ports.RunFilters) ([]*stats.Run, error) {
	query := `
		SELECT id, backend, test_type, study_n, pop_n, study_hash, pop_hash, num_terms, runtime_ms, created_at
		FROM enrichment_runs
	`
	var args []interface{}
	if filters.Backend != nil {
		args = append(args, *filters.Backend)
		query += fmt.Sprintf(" WHERE backend = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*stats.Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.toDomain())
	}
	return runs, nil
}

// DeleteRun removes a run and its records
func (r *RunRepositoryImpl) DeleteRun(ctx context.Context, runID core.RunID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM enrichment_runs WHERE id = $1
	`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	return nil
}
