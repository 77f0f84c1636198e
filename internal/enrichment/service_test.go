package enrichment

import (
	"context"
	"errors"
	"testing"

	"goenrich/domain/core"
	"goenrich/domain/stats"
	"goenrich/internal/testkit"
	"goenrich/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing
type MockSetReader struct {
	mock.Mock
}

func (m *MockSetReader) ReadGeneSet(ctx context.Context, path string) ([]core.GeneID, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.GeneID), args.Error(1)
}

type MockAssociationReader struct {
	mock.Mock
}

func (m *MockAssociationReader) ReadAssociations(ctx context.Context, path string) (ports.Associations, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Associations), args.Error(1)
}

type MockRunRepository struct {
	mock.Mock
	savedRuns    []*stats.Run
	savedRecords map[core.RunID][]*stats.EnrichmentRecord
}

func (m *MockRunRepository) SaveRun(ctx context.Context, run *stats.Run) error {
	args := m.Called(ctx, run)
	m.savedRuns = append(m.savedRuns, run)
	return args.Error(0)
}

func (m *MockRunRepository) SaveRecords(ctx context.Context, runID core.RunID, records []*stats.EnrichmentRecord) error {
	args := m.Called(ctx, runID, records)
	if m.savedRecords == nil {
		m.savedRecords = make(map[core.RunID][]*stats.EnrichmentRecord)
	}
	m.savedRecords[runID] = records
	return args.Error(0)
}

func (m *MockRunRepository) GetRun(ctx context.Context, runID core.RunID) (*stats.Run, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).(*stats.Run), args.Error(1)
}

func (m *MockRunRepository) GetRecords(ctx context.Context, runID core.RunID) ([]*stats.EnrichmentRecord, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).([]*stats.EnrichmentRecord), args.Error(1)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]*stats.Run, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*stats.Run), args.Error(1)
}

func (m *MockRunRepository) DeleteRun(ctx context.Context, runID core.RunID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func serviceFixture(repo ports.RunRepository) (*Service, *MockSetReader, *MockAssociationReader) {
	sets := &MockSetReader{}
	assocs := &MockAssociationReader{}
	runner := NewRunner(&testkit.FakeCalc{}, 2, quietLogger())
	return NewService(sets, assocs, runner, repo, quietLogger()), sets, assocs
}

func TestServiceRunFromFiles(t *testing.T) {
	repo := &MockRunRepository{}
	svc, sets, assocs := serviceFixture(repo)

	study := genes("g1", "g2")
	population := genes("g1", "g2", "g3", "g4")
	assoc := ports.Associations{"GO:0000001": genes("g1", "g3")}

	sets.On("ReadGeneSet", mock.Anything, "study.txt").Return(study, nil)
	sets.On("ReadGeneSet", mock.Anything, "pop.txt").Return(population, nil)
	assocs.On("ReadAssociations", mock.Anything, "assoc.tsv").Return(assoc, nil)
	repo.On("SaveRun", mock.Anything, mock.AnythingOfType("*stats.Run")).Return(nil)
	repo.On("SaveRecords", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.RunFromFiles(context.Background(), FileRequest{
		StudyPath: "study.txt",
		PopPath:   "pop.txt",
		AssocPath: "assoc.tsv",
	})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, core.TermID("GO:0000001"), result.Records[0].TermID)
	assert.Equal(t, 2, result.Run.StudyN)
	assert.Equal(t, 4, result.Run.PopN)

	repo.AssertExpectations(t)
	assert.Len(t, repo.savedRuns, 1, "Should have persisted the run header")
	assert.Len(t, repo.savedRecords[result.Run.ID], 1, "Should have persisted the records")
}

func TestServiceSkipsPersistenceWithoutRepo(t *testing.T) {
	svc, sets, assocs := serviceFixture(nil)

	sets.On("ReadGeneSet", mock.Anything, mock.Anything).Return(genes("g1", "g2"), nil)
	assocs.On("ReadAssociations", mock.Anything, mock.Anything).
		Return(ports.Associations{"GO:0000001": genes("g1")}, nil)

	result, err := svc.RunFromFiles(context.Background(), FileRequest{
		StudyPath: "study.txt",
		PopPath:   "pop.txt",
		AssocPath: "assoc.tsv",
	})

	assert.NoError(t, err)
	assert.NotNil(t, result)
}

func TestServiceReadFailures(t *testing.T) {
	readErr := errors.New("no such file")

	t.Run("study file", func(t *testing.T) {
		svc, sets, _ := serviceFixture(nil)
		sets.On("ReadGeneSet", mock.Anything, "missing.txt").Return(nil, readErr)

		_, err := svc.RunFromFiles(context.Background(), FileRequest{
			StudyPath: "missing.txt",
			PopPath:   "pop.txt",
			AssocPath: "assoc.tsv",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing.txt")
	})

	t.Run("associations file", func(t *testing.T) {
		svc, sets, assocs := serviceFixture(nil)
		sets.On("ReadGeneSet", mock.Anything, mock.Anything).Return(genes("g1"), nil)
		assocs.On("ReadAssociations", mock.Anything, "bad.tsv").Return(nil, readErr)

		_, err := svc.RunFromFiles(context.Background(), FileRequest{
			StudyPath: "study.txt",
			PopPath:   "pop.txt",
			AssocPath: "bad.tsv",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bad.tsv")
	})
}

func TestServicePersistFailure(t *testing.T) {
	repo := &MockRunRepository{}
	svc, sets, assocs := serviceFixture(repo)

	sets.On("ReadGeneSet", mock.Anything, mock.Anything).Return(genes("g1", "g2"), nil)
	assocs.On("ReadAssociations", mock.Anything, mock.Anything).
		Return(ports.Associations{"GO:0000001": genes("g1")}, nil)
	repo.On("SaveRun", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.RunFromFiles(context.Background(), FileRequest{
		StudyPath: "study.txt",
		PopPath:   "pop.txt",
		AssocPath: "assoc.tsv",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save run")
}
