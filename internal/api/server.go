// Package api exposes the generation, feedback and document endpoints over HTTP.
package api

import (
	"context"
	"iter"
	"net/http"
	"time"

	"github.com/Lllllllleong/careercopilot/internal/auth"
	"github.com/Lllllllleong/careercopilot/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Generator produces application documents for a job description.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
	Stream(ctx context.Context, req models.GenerationRequest) iter.Seq[models.Frame]
}

// Documents manages a user's uploaded documents and feedback.
type Documents interface {
	List(ctx context.Context, userID string) ([]models.DocumentSummary, error)
	Delete(ctx context.Context, userID, documentID string) error
	SubmitFeedback(ctx context.Context, userID string, req models.FeedbackRequest) error
}

type Options struct {
	AllowedOrigins []string
	// RequestTimeout bounds every route except the event stream.
	RequestTimeout time.Duration
}

// NewRouter builds and wires all routes.
func NewRouter(opts Options, verifier auth.TokenVerifier, gen Generator, docs Documents) http.Handler {
	h := &handlers{gen: gen, docs: docs}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 150 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.healthz)

	r.Group(func(protected chi.Router) {
		protected.Use(auth.Middleware(verifier))

		// The stream manages its own lifetime through the request context.
		protected.Post("/generate-stream", h.generateStream)

		protected.Group(func(bounded chi.Router) {
			bounded.Use(middleware.Timeout(opts.RequestTimeout))
			bounded.Post("/generate", h.generate)
			bounded.Post("/feedback", h.feedback)
			bounded.Get("/documents", h.listDocuments)
			bounded.Delete("/documents/{documentId}", h.deleteDocument)
		})
	})

	return r
}
