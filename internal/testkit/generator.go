package testkit

import (
	"fmt"
	"math/rand"
	"sort"

	"goenrich/domain/core"
	"goenrich/ports"
)

// CohortConfig configures the synthetic cohort generator
type CohortConfig struct {
	PopulationSize int     `json:"population_size"`
	StudySize      int     `json:"study_size"`
	TermCount      int     `json:"term_count"`
	AvgTermSize    int     `json:"avg_term_size"`
	EnrichedTerms  int     `json:"enriched_terms"`
	DepletedTerms  int     `json:"depleted_terms"`
	EnrichedShare  float64 `json:"enriched_share"`
	Seed           int64   `json:"seed"`
}

// DefaultCohortConfig returns sensible defaults for cohort generation
func DefaultCohortConfig() CohortConfig {
	return CohortConfig{
		PopulationSize: 2000,
		StudySize:      120,
		TermCount:      40,
		AvgTermSize:    60,
		EnrichedTerms:  3,
		DepletedTerms:  2,
		EnrichedShare:  0.6,
		Seed:           42,
	}
}

// Cohort is a synthetic study/population pair with term associations and a
// record of which terms were planted as enriched or depleted
type Cohort struct {
	Population    []core.GeneID
	Study         []core.GeneID
	Associations  ports.Associations
	EnrichedTerms []core.TermID
	DepletedTerms []core.TermID
}

// CohortGenerator generates deterministic synthetic gene sets
type CohortGenerator struct {
	config CohortConfig
	rng    *rand.Rand
}

// NewCohortGenerator creates a new cohort generator
func NewCohortGenerator(config CohortConfig) *CohortGenerator {
	return &CohortGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces a complete cohort. Planted enriched terms draw most of
// their members from the study set, planted depleted terms draw none, and
// background terms sample the population uniformly.
func (g *CohortGenerator) Generate() (*Cohort, error) {
	if g.config.StudySize > g.config.PopulationSize {
		return nil, fmt.Errorf("study size %d exceeds population size %d",
			g.config.StudySize, g.config.PopulationSize)
	}
	if planted := g.config.EnrichedTerms + g.config.DepletedTerms; planted > g.config.TermCount {
		return nil, fmt.Errorf("%d planted terms exceed term count %d", planted, g.config.TermCount)
	}

	population := make([]core.GeneID, g.config.PopulationSize)
	for i := range population {
		population[i] = core.GeneID(fmt.Sprintf("gene%05d", i+1))
	}

	// Study members are a random draw from the population. The remainder
	// feeds the depleted and background terms.
	perm := g.rng.Perm(len(population))
	study := make([]core.GeneID, g.config.StudySize)
	for i := range study {
		study[i] = population[perm[i]]
	}
	rest := make([]core.GeneID, 0, len(population)-len(study))
	for _, idx := range perm[g.config.StudySize:] {
		rest = append(rest, population[idx])
	}

	cohort := &Cohort{
		Population:   population,
		Study:        study,
		Associations: make(ports.Associations, g.config.TermCount),
	}

	termSeq := 0
	nextTerm := func() core.TermID {
		termSeq++
		return core.TermID(fmt.Sprintf("GO:%07d", termSeq))
	}

	for i := 0; i < g.config.EnrichedTerms; i++ {
		term := nextTerm()
		cohort.Associations[term] = g.plantedMembers(study, rest, g.config.EnrichedShare)
		cohort.EnrichedTerms = append(cohort.EnrichedTerms, term)
	}
	for i := 0; i < g.config.DepletedTerms; i++ {
		term := nextTerm()
		cohort.Associations[term] = g.plantedMembers(study, rest, 0)
		cohort.DepletedTerms = append(cohort.DepletedTerms, term)
	}
	for len(cohort.Associations) < g.config.TermCount {
		cohort.Associations[nextTerm()] = g.sortGenes(g.sample(population, g.termSize()))
	}

	return cohort, nil
}

// plantedMembers builds a term whose members are split between the study set
// and the rest of the population at the given share.
func (g *CohortGenerator) plantedMembers(study, rest []core.GeneID, studyShare float64) []core.GeneID {
	size := g.termSize()
	fromStudy := int(float64(size) * studyShare)
	if fromStudy > len(study) {
		fromStudy = len(study)
	}
	fromRest := size - fromStudy
	if fromRest > len(rest) {
		fromRest = len(rest)
	}

	members := make([]core.GeneID, 0, fromStudy+fromRest)
	members = append(members, g.sample(study, fromStudy)...)
	members = append(members, g.sample(rest, fromRest)...)
	return g.sortGenes(members)
}

// termSize draws a term size around the configured average
func (g *CohortGenerator) termSize() int {
	low := g.config.AvgTermSize - g.config.AvgTermSize/4
	size := low + g.rng.Intn(g.config.AvgTermSize/2+1)
	if size < 2 {
		size = 2
	}
	return size
}

// sample draws n distinct genes from the pool
func (g *CohortGenerator) sample(pool []core.GeneID, n int) []core.GeneID {
	if n >= len(pool) {
		out := make([]core.GeneID, len(pool))
		copy(out, pool)
		return out
	}
	out := make([]core.GeneID, n)
	for i, idx := range g.rng.Perm(len(pool))[:n] {
		out[i] = pool[idx]
	}
	return out
}

func (g *CohortGenerator) sortGenes(genes []core.GeneID) []core.GeneID {
	sort.Slice(genes, func(i, j int) bool { return genes[i] < genes[j] })
	return genes
}
