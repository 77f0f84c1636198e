package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"goenrich/domain/core"
	"goenrich/ports"
)

// RunHandler serves stored runs. All routes answer 503 when the server
// was started without a repository.
type RunHandler struct {
	repo   ports.RunRepository
	events *EventHub
}

// NewRunHandler creates a handler over the run repository
func NewRunHandler(repo ports.RunRepository, events *EventHub) *RunHandler {
	return &RunHandler{repo: repo, events: events}
}

// List returns recent run headers, newest first. Supports backend,
// limit and offset query parameters.
func (h *RunHandler) List(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run repository configured"})
		return
	}

	filters := ports.RunFilters{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if backend := c.Query("backend"); backend != "" {
		filters.Backend = &backend
	}

	runs, err := h.repo.ListRuns(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// Get returns one run header with its records
func (h *RunHandler) Get(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run repository configured"})
		return
	}

	runID := core.RunID(c.Param("id"))
	run, err := h.repo.GetRun(c.Request.Context(), runID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	records, err := h.repo.GetRecords(c.Request.Context(), runID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": run, "records": records})
}

// Delete removes a run and its records
func (h *RunHandler) Delete(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run repository configured"})
		return
	}

	runID := core.RunID(c.Param("id"))
	if err := h.repo.DeleteRun(c.Request.Context(), runID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if h.events != nil {
		h.events.Broadcast(RunEvent{RunID: runID, EventType: EventRunDeleted})
	}

	c.Status(http.StatusNoContent)
}

func statusFor(err error) int {
	if core.IsNotFoundError(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func intQuery(c *gin.Context, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
