package enrichment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"goenrich/domain/core"
	"goenrich/domain/stats"
	"goenrich/internal"
	"goenrich/ports"
)

// Runner scores every annotated term against one study set
type Runner struct {
	calc       ports.PValueCalculator
	maxWorkers int
	logger     *internal.Logger
}

// NewRunner creates a runner over the given calculator. maxWorkers
// bounds the concurrent term workers.
func NewRunner(calc ports.PValueCalculator, maxWorkers int, logger *internal.Logger) *Runner {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{calc: calc, maxWorkers: maxWorkers, logger: logger}
}

// Result bundles a run header with its records sorted by ascending
// p-value (term ID breaks ties, so output order is deterministic)
type Result struct {
	Run     *stats.Run
	Records []*stats.EnrichmentRecord
}

// termJob carries the counts for one term into the worker pool
type termJob struct {
	term       core.TermID
	studyCount int
	popCount   int
	studyGenes []core.GeneID
}

// Run tests every term in assoc against the study set. The study must
// be a non-empty subset of the population; terms with no population
// coverage are skipped.
func (r *Runner) Run(ctx context.Context, study, population []core.GeneID, assoc ports.Associations) (*Result, error) {
	start := time.Now()

	popSet := uniqueSet(population)
	if len(popSet) == 0 {
		return nil, core.ErrEmptyPopulation
	}
	studySet := uniqueSet(study)
	if len(studySet) == 0 {
		return nil, core.ErrEmptyStudy
	}
	for gene := range studySet {
		if _, ok := popSet[gene]; !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrStudyNotInPopulation, gene)
		}
	}
	studyN := len(studySet)
	popN := len(popSet)

	jobs := r.countTerms(studySet, popSet, assoc)
	r.logger.Info("[Enrichment] scoring %d terms: study %d genes, population %d genes, backend %s",
		len(jobs), studyN, popN, r.calc.Name())

	records := make([]*stats.EnrichmentRecord, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxWorkers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := r.calc.CalcPValue(job.studyCount, studyN, job.popCount, popN)
			if err != nil {
				return fmt.Errorf("term %s: %w", job.term, err)
			}
			ct, err := stats.NewContingencyTable(job.studyCount, studyN, job.popCount, popN)
			if err != nil {
				return fmt.Errorf("term %s: %w", job.term, err)
			}
			rec, err := stats.NewEnrichmentRecord(job.term, ct, p, job.studyGenes)
			if err != nil {
				return fmt.Errorf("term %s: %w", job.term, err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].PValue != records[j].PValue {
			return records[i].PValue < records[j].PValue
		}
		return records[i].TermID < records[j].TermID
	})

	run := stats.NewRun(r.calc.Name(), r.calc.TestType(), studyN, popN)
	run.StudyHash = core.ComputeSetHash(study)
	run.PopHash = core.ComputeSetHash(population)
	run.NumTerms = len(records)
	run.RuntimeMs = time.Since(start).Milliseconds()

	r.logger.Info("[Enrichment] run %s finished: %d records in %dms",
		run.ID, len(records), run.RuntimeMs)

	return &Result{Run: run, Records: records}, nil
}

// countTerms builds per-term counts in deterministic term order.
// Duplicate gene listings within a term collapse to one hit.
func (r *Runner) countTerms(studySet, popSet map[core.GeneID]struct{}, assoc ports.Associations) []termJob {
	terms := assoc.Terms()
	sort.Slice(terms, func(i, j int) bool { return terms[i] < terms[j] })

	jobs := make([]termJob, 0, len(terms))
	for _, term := range terms {
		seen := make(map[core.GeneID]struct{}, len(assoc[term]))
		job := termJob{term: term}
		for _, gene := range assoc[term] {
			if _, dup := seen[gene]; dup {
				continue
			}
			seen[gene] = struct{}{}
			if _, ok := popSet[gene]; !ok {
				continue
			}
			job.popCount++
			if _, ok := studySet[gene]; ok {
				job.studyCount++
				job.studyGenes = append(job.studyGenes, gene)
			}
		}
		if job.popCount == 0 {
			continue
		}
		sort.Slice(job.studyGenes, func(i, j int) bool { return job.studyGenes[i] < job.studyGenes[j] })
		jobs = append(jobs, job)
	}
	return jobs
}

func uniqueSet(genes []core.GeneID) map[core.GeneID]struct{} {
	set := make(map[core.GeneID]struct{}, len(genes))
	for _, g := range genes {
		set[g] = struct{}{}
	}
	return set
}
