package enrichment

import (
	"context"
	"fmt"

	"goenrich/domain/core"
	"goenrich/internal"
	"goenrich/internal/errors"
	"goenrich/ports"
)

// Service wires the set readers, the scoring runner and an optional
// repository into a single entry point for file-driven runs.
type Service struct {
	sets   ports.SetReader
	assocs ports.AssociationReader
	runner *Runner
	repo   ports.RunRepository
	logger *internal.Logger
}

// FileRequest names the three input files of an enrichment run.
type FileRequest struct {
	StudyPath string
	PopPath   string
	AssocPath string
}

// NewService creates an enrichment service. The repository may be nil, in
// which case results are returned but not persisted.
func NewService(sets ports.SetReader, assocs ports.AssociationReader, runner *Runner, repo ports.RunRepository, logger *internal.Logger) *Service {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Service{
		sets:   sets,
		assocs: assocs,
		runner: runner,
		repo:   repo,
		logger: logger,
	}
}

// RunFromFiles reads the study set, population set and associations from
// disk, then scores and persists via RunSets.
func (s *Service) RunFromFiles(ctx context.Context, req FileRequest) (*Result, error) {
	study, err := s.sets.ReadGeneSet(ctx, req.StudyPath)
	if err != nil {
		return nil, errors.ReadError(req.StudyPath, err)
	}

	population, err := s.sets.ReadGeneSet(ctx, req.PopPath)
	if err != nil {
		return nil, errors.ReadError(req.PopPath, err)
	}

	assoc, err := s.assocs.ReadAssociations(ctx, req.AssocPath)
	if err != nil {
		return nil, errors.ReadError(req.AssocPath, err)
	}

	s.logger.Info("[Enrichment] loaded inputs: %d study genes, %d population genes, %d terms",
		len(study), len(population), len(assoc))

	return s.RunSets(ctx, study, population, assoc)
}

// RunSets scores the given sets and persists the run when a repository is
// configured.
func (s *Service) RunSets(ctx context.Context, study, population []core.GeneID, assoc ports.Associations) (*Result, error) {
	result, err := s.runner.Run(ctx, study, population, assoc)
	if err != nil {
		return nil, fmt.Errorf("enrichment run failed: %w", err)
	}

	if s.repo != nil {
		if err := s.persist(ctx, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (s *Service) persist(ctx context.Context, result *Result) error {
	if err := Persist(ctx, s.repo, result); err != nil {
		return err
	}
	s.logger.Info("[Enrichment] persisted run %s with %d records", result.Run.ID, len(result.Records))
	return nil
}

// Persist saves a finished run and its records to the repository.
func Persist(ctx context.Context, repo ports.RunRepository, result *Result) error {
	if err := repo.SaveRun(ctx, result.Run); err != nil {
		return fmt.Errorf("failed to save run %s: %w", result.Run.ID, err)
	}
	if err := repo.SaveRecords(ctx, result.Run.ID, result.Records); err != nil {
		return fmt.Errorf("failed to save records for run %s: %w", result.Run.ID, err)
	}
	return nil
}
