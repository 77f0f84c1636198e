package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"goenrich/domain/core"
	"goenrich/domain/stats"
	"goenrich/internal"
	"goenrich/internal/enrichment"
	"goenrich/internal/pvalcalc"
	"goenrich/ports"
)

// EnrichmentHandler scores ad hoc gene sets posted as JSON
type EnrichmentHandler struct {
	backend    string
	testType   stats.TestType
	maxWorkers int
	repo       ports.RunRepository
	events     *EventHub
	logger     *internal.Logger
}

// NewEnrichmentHandler creates a handler with the server defaults
func NewEnrichmentHandler(opts Options, events *EventHub) *EnrichmentHandler {
	return &EnrichmentHandler{
		backend:    opts.Backend,
		testType:   opts.TestType,
		maxWorkers: opts.MaxWorkers,
		repo:       opts.Repo,
		events:     events,
		logger:     opts.Logger,
	}
}

// EnrichmentRequest is the JSON body of POST /api/v1/enrichment.
// Associations map each term to its annotated genes. Backend and
// test_type fall back to the server defaults when omitted.
type EnrichmentRequest struct {
	Study        []string            `json:"study"`
	Population   []string            `json:"population"`
	Associations map[string][]string `json:"associations"`
	Backend      string              `json:"backend"`
	TestType     string              `json:"test_type"`
}

// Run scores the posted sets and returns the run with its records
func (h *EnrichmentHandler) Run(c *gin.Context) {
	var req EnrichmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	calc, err := h.buildCalc(req.Backend, req.TestType)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, pvalcalc.ErrBackendUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	runner := enrichment.NewRunner(calc, h.maxWorkers, h.logger)
	result, err := runner.Run(c.Request.Context(), toGeneIDs(req.Study), toGeneIDs(req.Population), toAssociations(req.Associations))
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsValidationError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if h.repo != nil {
		if err := enrichment.Persist(c.Request.Context(), h.repo, result); err != nil {
			h.logger.Error("[API] %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	if h.events != nil {
		h.events.Broadcast(RunEvent{
			RunID:     result.Run.ID,
			EventType: EventRunFinished,
			Backend:   result.Run.Backend,
			NumTerms:  result.Run.NumTerms,
			RuntimeMs: result.Run.RuntimeMs,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"run":     result.Run,
		"records": result.Records,
	})
}

// Backends lists the registered p-value backends with probe results
func (h *EnrichmentHandler) Backends(c *gin.Context) {
	factory := pvalcalc.NewFactory(h.logger.Writer())
	c.JSON(http.StatusOK, gin.H{
		"backends": factory.Backends(),
		"default":  pvalcalc.DefaultBackend,
	})
}

func (h *EnrichmentHandler) buildCalc(backend, testType string) (ports.PValueCalculator, error) {
	opts := pvalcalc.Options{
		Backend:  h.backend,
		TestType: h.testType,
		Log:      h.logger.Writer(),
	}
	if backend != "" {
		opts.Backend = backend
	}
	if testType != "" {
		tt, err := stats.ParseTestType(testType)
		if err != nil {
			return nil, err
		}
		opts.TestType = tt
	}
	return pvalcalc.New(opts)
}

func toGeneIDs(ids []string) []core.GeneID {
	genes := make([]core.GeneID, 0, len(ids))
	for _, id := range ids {
		genes = append(genes, core.GeneID(id))
	}
	return genes
}

func toAssociations(raw map[string][]string) ports.Associations {
	assoc := make(ports.Associations, len(raw))
	for term, genes := range raw {
		assoc[core.TermID(term)] = toGeneIDs(genes)
	}
	return assoc
}
