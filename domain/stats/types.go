package stats

import (
	"fmt"

	"goenrich/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// TestType defines the direction of the enrichment test
type TestType string

const (
	TestUp     TestType = "up"     // Over-representation only (right tail)
	TestDown   TestType = "down"   // Under-representation only (left tail)
	TestUpDown TestType = "updown" // Either direction (two-tailed)
)

// ParseTestType validates a test type string
func ParseTestType(s string) (TestType, error) {
	switch TestType(s) {
	case TestUp, TestDown, TestUpDown:
		return TestType(s), nil
	default:
		return "", fmt.Errorf("unknown test type %q: want one of %q, %q, %q",
			s, TestUp, TestDown, TestUpDown)
	}
}

// Enrichment marks the direction a term deviates in the study set
type Enrichment string

const (
	Enriched Enrichment = "e" // Study ratio above population ratio
	Purified Enrichment = "p" // Study ratio at or below population ratio
)

// Ratio is a count over a total, kept as integers so callers can
// render "3/4" exactly instead of a rounded float.
type Ratio struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

// Value returns the ratio as a float. Zero totals yield 0.
func (r Ratio) Value() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Count) / float64(r.Total)
}

// String renders the ratio as "count/total"
func (r Ratio) String() string {
	return fmt.Sprintf("%d/%d", r.Count, r.Total)
}

// ============================================================================
// CONTINGENCY TABLE
// ============================================================================

// ContingencyTable holds the four counts behind one enrichment test.
// INVARIANTS:
// - 0 <= StudyCount <= StudyN <= PopN
// - 0 <= PopCount <= PopN
// - StudyCount <= PopCount (study hits are drawn from population hits)
// - StudyN - StudyCount <= PopN - PopCount (study misses from population misses)
type ContingencyTable struct {
	StudyCount int `json:"study_count"` // Genes in the study set annotated to the term
	StudyN     int `json:"study_n"`     // Size of the study set
	PopCount   int `json:"pop_count"`   // Genes in the population annotated to the term
	PopN       int `json:"pop_n"`       // Size of the population
}

// NewContingencyTable validates the four counts and returns the table.
// Returns an error wrapping core.ErrInvalidCounts if the counts cannot
// form a valid 2x2 table.
func NewContingencyTable(studyCount, studyN, popCount, popN int) (ContingencyTable, error) {
	ct := ContingencyTable{
		StudyCount: studyCount,
		StudyN:     studyN,
		PopCount:   popCount,
		PopN:       popN,
	}
	if err := ct.validate(); err != nil {
		return ContingencyTable{}, err
	}
	return ct, nil
}

// MustNewContingencyTable creates a table (panics on invalid counts)
// Use only in tests and development - production code should handle validation errors
func MustNewContingencyTable(studyCount, studyN, popCount, popN int) ContingencyTable {
	ct, err := NewContingencyTable(studyCount, studyN, popCount, popN)
	if err != nil {
		panic(err)
	}
	return ct
}

func (ct ContingencyTable) validate() error {
	switch {
	case ct.StudyCount < 0 || ct.StudyN < 0 || ct.PopCount < 0 || ct.PopN < 0:
		return core.NewCountError("counts must be non-negative",
			ct.StudyCount, ct.StudyN, ct.PopCount, ct.PopN)
	case ct.StudyCount > ct.StudyN:
		return core.NewCountError("study count exceeds study size",
			ct.StudyCount, ct.StudyN, ct.PopCount, ct.PopN)
	case ct.PopCount > ct.PopN:
		return core.NewCountError("population count exceeds population size",
			ct.StudyCount, ct.StudyN, ct.PopCount, ct.PopN)
	case ct.StudyN > ct.PopN:
		return core.NewCountError("study size exceeds population size",
			ct.StudyCount, ct.StudyN, ct.PopCount, ct.PopN)
	case ct.StudyCount > ct.PopCount:
		return core.NewCountError("study count exceeds population count",
			ct.StudyCount, ct.StudyN, ct.PopCount, ct.PopN)
	case ct.StudyN-ct.StudyCount > ct.PopN-ct.PopCount:
		return core.NewCountError("study misses exceed population misses",
			ct.StudyCount, ct.StudyN, ct.PopCount, ct.PopN)
	}
	return nil
}

// Cells returns the 2x2 table laid out as
//
//	         in term   not in term
//	study       a           b
//	rest        c           d
//
// where the rest row covers population members outside the study set.
func (ct ContingencyTable) Cells() (a, b, c, d int) {
	a = ct.StudyCount
	b = ct.StudyN - ct.StudyCount
	c = ct.PopCount - ct.StudyCount
	d = ct.PopN - ct.PopCount - b
	return a, b, c, d
}

// StudyRatio returns study hits over study size
func (ct ContingencyTable) StudyRatio() Ratio {
	return Ratio{Count: ct.StudyCount, Total: ct.StudyN}
}

// PopRatio returns population hits over population size
func (ct ContingencyTable) PopRatio() Ratio {
	return Ratio{Count: ct.PopCount, Total: ct.PopN}
}

// Direction reports whether the study ratio sits above the population
// ratio. Uses cross multiplication so the comparison is exact.
func (ct ContingencyTable) Direction() Enrichment {
	if ct.StudyCount*ct.PopN > ct.PopCount*ct.StudyN {
		return Enriched
	}
	return Purified
}

// FoldEnrichment returns the study ratio over the population ratio.
// A term absent from the population yields 0.
func (ct ContingencyTable) FoldEnrichment() float64 {
	pop := ct.PopRatio().Value()
	if pop == 0 {
		return 0
	}
	return ct.StudyRatio().Value() / pop
}

// ============================================================================
// DOMAIN ARTIFACTS (Per-term and per-run outputs)
// ============================================================================

// EnrichmentRecord is the result of testing one term against a study set
type EnrichmentRecord struct {
	TermID     core.TermID      `json:"term_id"`
	Table      ContingencyTable `json:"table"`
	Enrichment Enrichment       `json:"enrichment"`       // "e" over-represented, "p" under
	PValue     float64          `json:"p_value"`          // Uncorrected p-value (0.0 to 1.0)
	FoldChange float64          `json:"fold_change"`      // Study ratio over population ratio
	StudyGenes []core.GeneID    `json:"study_genes"`      // Study members annotated to the term
	ComputedAt core.Timestamp   `json:"computed_at"`
}

// NewEnrichmentRecord builds a record from a validated table and p-value
func NewEnrichmentRecord(termID core.TermID, ct ContingencyTable, pvalue float64, studyGenes []core.GeneID) (*EnrichmentRecord, error) {
	if termID == "" {
		return nil, core.NewValidationError("term_id", "must be set")
	}
	if pvalue < 0.0 || pvalue > 1.0 {
		return nil, fmt.Errorf("%w: term %s p=%g", core.ErrPValueOutOfRange, termID, pvalue)
	}
	return &EnrichmentRecord{
		TermID:     termID,
		Table:      ct,
		Enrichment: ct.Direction(),
		PValue:     pvalue,
		FoldChange: ct.FoldEnrichment(),
		StudyGenes: studyGenes,
		ComputedAt: core.Now(),
	}, nil
}

// Run captures one complete enrichment analysis for persistence and audit
type Run struct {
	ID        core.RunID     `json:"id"`
	Backend   string         `json:"backend"`   // P-value backend that produced the records
	TestType  TestType       `json:"test_type"` // up, down, or updown
	StudyN    int            `json:"study_n"`
	PopN      int            `json:"pop_n"`
	StudyHash core.SetHash   `json:"study_hash"`
	PopHash   core.SetHash   `json:"pop_hash"`
	NumTerms  int            `json:"num_terms"` // Terms tested
	RuntimeMs int64          `json:"runtime_ms"`
	CreatedAt core.Timestamp `json:"created_at"`
}

// NewRun stamps a fresh run with an ID and creation time
func NewRun(backend string, testType TestType, studyN, popN int) *Run {
	return &Run{
		ID:        core.NewRunID(),
		Backend:   backend,
		TestType:  testType,
		StudyN:    studyN,
		PopN:      popN,
		CreatedAt: core.Now(),
	}
}
