package enrichment

import (
	"context"
	"io"
	"testing"

	"goenrich/domain/core"
	"goenrich/domain/stats"
	"goenrich/internal/pvalcalc"
	"goenrich/internal/testkit"
)

// Planted-signal recovery: a synthetic cohort with known enriched and
// depleted terms, scored with the real two-sided Fisher backend.
func TestRunnerRecoversPlantedTerms(t *testing.T) {
	config := testkit.DefaultCohortConfig()
	config.AvgTermSize = 100 // Large enough that depletion is detectable

	cohort, err := testkit.NewCohortGenerator(config).Generate()
	if err != nil {
		t.Fatalf("Failed to generate cohort: %v", err)
	}

	calc, err := pvalcalc.New(pvalcalc.Options{
		Backend:  pvalcalc.BackendFisher,
		TestType: stats.TestUpDown,
		Log:      io.Discard,
	})
	if err != nil {
		t.Fatalf("Failed to build calculator: %v", err)
	}

	runner := NewRunner(calc, 4, quietLogger())
	result, err := runner.Run(context.Background(), cohort.Study, cohort.Population, cohort.Associations)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(result.Records) != config.TermCount {
		t.Fatalf("Expected %d records, got %d", config.TermCount, len(result.Records))
	}

	byTerm := make(map[core.TermID]*stats.EnrichmentRecord, len(result.Records))
	for _, rec := range result.Records {
		byTerm[rec.TermID] = rec
	}

	for _, term := range cohort.EnrichedTerms {
		rec, ok := byTerm[term]
		if !ok {
			t.Fatalf("Planted enriched term %s missing from results", term)
		}
		if rec.PValue > 1e-12 {
			t.Errorf("Enriched term %s has p=%g, want < 1e-12", term, rec.PValue)
		}
		if rec.Enrichment != stats.Enriched {
			t.Errorf("Enriched term %s flagged %q, want %q", term, rec.Enrichment, stats.Enriched)
		}
	}

	for _, term := range cohort.DepletedTerms {
		rec, ok := byTerm[term]
		if !ok {
			t.Fatalf("Planted depleted term %s missing from results", term)
		}
		if rec.PValue > 0.05 {
			t.Errorf("Depleted term %s has p=%g, want < 0.05", term, rec.PValue)
		}
		if rec.Enrichment != stats.Purified {
			t.Errorf("Depleted term %s flagged %q, want %q", term, rec.Enrichment, stats.Purified)
		}
	}

	// The planted enrichments dwarf anything a uniform background term can
	// produce, so they must occupy the top of the ranking.
	top := make(map[core.TermID]bool, len(cohort.EnrichedTerms))
	for _, rec := range result.Records[:len(cohort.EnrichedTerms)] {
		top[rec.TermID] = true
	}
	for _, term := range cohort.EnrichedTerms {
		if !top[term] {
			t.Errorf("Enriched term %s not in the top %d records", term, len(cohort.EnrichedTerms))
		}
	}
}

// Both backends rank the same cohort identically.
func TestRunnerBackendsAgreeOnCohort(t *testing.T) {
	cohort, err := testkit.NewTestKit().Cohort()
	if err != nil {
		t.Fatalf("Failed to generate cohort: %v", err)
	}

	run := func(backend string) *Result {
		t.Helper()
		calc, err := pvalcalc.New(pvalcalc.Options{
			Backend:  backend,
			TestType: stats.TestUpDown,
			Log:      io.Discard,
		})
		if err != nil {
			t.Fatalf("Failed to build %s: %v", backend, err)
		}
		result, err := NewRunner(calc, 4, quietLogger()).Run(
			context.Background(), cohort.Study, cohort.Population, cohort.Associations)
		if err != nil {
			t.Fatalf("Run() with %s failed: %v", backend, err)
		}
		return result
	}

	first := run(pvalcalc.BackendFisher)
	second := run(pvalcalc.BackendFisherExact)

	if len(first.Records) != len(second.Records) {
		t.Fatalf("Record counts differ: %d vs %d", len(first.Records), len(second.Records))
	}
	for i := range first.Records {
		a, b := first.Records[i], second.Records[i]
		if a.TermID != b.TermID {
			t.Fatalf("Rank %d: %s vs %s", i, a.TermID, b.TermID)
		}
		if diff := a.PValue - b.PValue; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Term %s: p-values differ by %g", a.TermID, diff)
		}
	}
}
