package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"goenrich/domain/core"
	"goenrich/domain/stats"
	"goenrich/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	repo *InMemoryRunRepository // Shared repository instance
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{repo: NewInMemoryRunRepository()}
}

// RunRepository returns the shared in-memory repository so tests and the
// code under test see the same storage
func (t *TestKit) RunRepository() *InMemoryRunRepository {
	return t.repo
}

// Cohort generates the default deterministic synthetic cohort
func (t *TestKit) Cohort() (*Cohort, error) {
	return NewCohortGenerator(DefaultCohortConfig()).Generate()
}

// FakeCalc implements PValueCalculator with a scripted scoring function
type FakeCalc struct {
	CalcName string
	Tail     stats.TestType
	Fn       func(studyCount, studyN, popCount, popN int) (float64, error)
}

func (f *FakeCalc) CalcPValue(studyCount, studyN, popCount, popN int) (float64, error) {
	if f.Fn != nil {
		return f.Fn(studyCount, studyN, popCount, popN)
	}
	return 1, nil
}

func (f *FakeCalc) Name() string {
	if f.CalcName == "" {
		return "fake"
	}
	return f.CalcName
}

func (f *FakeCalc) TestType() stats.TestType {
	if f.Tail == "" {
		return stats.TestUpDown
	}
	return f.Tail
}

// InMemoryRunRepository implements RunRepository with in-memory storage
type InMemoryRunRepository struct {
	runs    map[core.RunID]*stats.Run
	records map[core.RunID][]*stats.EnrichmentRecord
	order   []core.RunID
	mu      sync.RWMutex
}

func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		runs:    make(map[core.RunID]*stats.Run),
		records: make(map[core.RunID][]*stats.EnrichmentRecord),
	}
}

func (r *InMemoryRunRepository) SaveRun(ctx context.Context, run *stats.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; !exists {
		r.order = append(r.order, run.ID)
	}
	cp := *run
	r.runs[run.ID] = &cp
	return nil
}

func (r *InMemoryRunRepository) SaveRecords(ctx context.Context, runID core.RunID, records []*stats.EnrichmentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]*stats.EnrichmentRecord, len(records))
	for i, rec := range records {
		cp := *rec
		stored[i] = &cp
	}
	r.records[runID] = stored
	return nil
}

func (r *InMemoryRunRepository) GetRun(ctx context.Context, runID core.RunID) (*stats.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[runID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	cp := *run
	return &cp, nil
}

func (r *InMemoryRunRepository) GetRecords(ctx context.Context, runID core.RunID) ([]*stats.EnrichmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.runs[runID]; !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}

	stored := r.records[runID]
	out := make([]*stats.EnrichmentRecord, len(stored))
	for i, rec := range stored {
		cp := *rec
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PValue != out[j].PValue {
			return out[i].PValue < out[j].PValue
		}
		return out[i].TermID < out[j].TermID
	})
	return out, nil
}

func (r *InMemoryRunRepository) DeleteRun(ctx context.Context, runID core.RunID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[runID]; !exists {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	delete(r.runs, runID)
	delete(r.records, runID)
	for i, id := range r.order {
		if id == runID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *InMemoryRunRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]*stats.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*stats.Run
	skipped := 0
	for i := len(r.order) - 1; i >= 0; i-- {
		run := r.runs[r.order[i]]
		if filters.Backend != nil && run.Backend != *filters.Backend {
			continue
		}
		if skipped < filters.Offset {
			skipped++
			continue
		}
		cp := *run
		results = append(results, &cp)
		if filters.Limit > 0 && len(results) >= filters.Limit {
			break
		}
	}
	return results, nil
}
