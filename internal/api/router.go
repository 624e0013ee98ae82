package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires all endpoints onto a chi router with the standard
// middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", h.Upload)
			r.Get("/", h.ListDocuments)

			r.Route("/{documentID}", func(r chi.Router) {
				r.Get("/", h.GetDocument)
				r.Delete("/", h.DeleteDocument)
				r.Get("/results", h.GetResults)
				r.Get("/summary", h.GetSummary)
				r.Get("/status", h.GetStatus)
				r.Post("/cancel", h.CancelProcessing)
				r.Post("/brands/review", h.ReviewBrand)
				r.Get("/export", h.ExportDocument)
			})
		})

		r.Get("/active/processes", h.ActiveProcesses)
	})

	return r
}
