// Package api exposes enrichment runs over HTTP. The JSON API runs on
// gin; the HTML report preview is a chi subrouter mounted under the
// same engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goenrich/domain/stats"
	"goenrich/internal"
	"goenrich/ports"
)

// Options configures the HTTP server.
type Options struct {
	Backend    string              // default p-value backend for requests that omit one
	TestType   stats.TestType      // default tail for requests that omit one
	Alpha      float64             // significance threshold for rendered reports
	MaxWorkers int                 // concurrent term workers per request
	Repo       ports.RunRepository // nil disables run persistence and lookup
	Logger     *internal.Logger
}

// Server assembles the HTTP handlers around one shared configuration
type Server struct {
	engine *gin.Engine
	opts   Options
	events *EventHub
}

// NewServer builds the gin engine and registers all routes
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}

	s := &Server{
		engine: gin.Default(),
		opts:   opts,
		events: NewEventHub(),
	}
	s.setupRoutes()
	return s
}

// Engine returns the underlying gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Events returns the run lifecycle feed
func (s *Server) Events() *EventHub {
	return s.events
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	enrich := NewEnrichmentHandler(s.opts, s.events)
	runs := NewRunHandler(s.opts.Repo, s.events)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/enrichment", enrich.Run)
	v1.GET("/backends", enrich.Backends)
	v1.GET("/runs", runs.List)
	v1.GET("/runs/:id", runs.Get)
	v1.DELETE("/runs/:id", runs.Delete)
	v1.GET("/events", s.events.HandleSSE)

	preview := NewPreviewRouter(s.opts.Repo, s.opts.Alpha)
	s.engine.GET("/preview/report/:id", gin.WrapH(preview))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
