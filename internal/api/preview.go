package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"goenrich/domain/core"
	"goenrich/internal/enrichment"
	"goenrich/internal/report"
	"goenrich/ports"
)

// NewPreviewRouter serves stored runs rendered as standalone HTML
// reports. It is a chi router so it can be mounted behind any mux;
// the gin engine wraps it under /preview.
func NewPreviewRouter(repo ports.RunRepository, alpha float64) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/preview/report/{id}", func(w http.ResponseWriter, req *http.Request) {
		if repo == nil {
			http.Error(w, "no run repository configured", http.StatusServiceUnavailable)
			return
		}

		runID := core.RunID(chi.URLParam(req, "id"))
		run, err := repo.GetRun(req.Context(), runID)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		records, err := repo.GetRecords(req.Context(), runID)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		page, err := report.HTML(&enrichment.Result{Run: run, Records: records}, report.Options{Alpha: alpha})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	})

	return r
}
