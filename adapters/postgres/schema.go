package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the enrichment tables if they do not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS enrichment_runs (
			id TEXT PRIMARY KEY,
			backend TEXT NOT NULL,
			test_type TEXT NOT NULL,
			study_n INTEGER NOT NULL,
			pop_n INTEGER NOT NULL,
			study_hash TEXT NOT NULL,
			pop_hash TEXT NOT NULL,
			num_terms INTEGER NOT NULL,
			runtime_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS enrichment_records (
			run_id TEXT NOT NULL REFERENCES enrichment_runs(id) ON DELETE CASCADE,
			term_id TEXT NOT NULL,
			study_count INTEGER NOT NULL,
			study_n INTEGER NOT NULL,
			pop_count INTEGER NOT NULL,
			pop_n INTEGER NOT NULL,
			enrichment TEXT NOT NULL,
			p_value DOUBLE PRECISION NOT NULL,
			fold_change DOUBLE PRECISION NOT NULL,
			study_genes JSONB NOT NULL DEFAULT '[]',
			computed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (run_id, term_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enrichment_records_run_p
			ON enrichment_records (run_id, p_value)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
