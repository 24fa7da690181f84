// Package app builds the services each entry point needs from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/careercopilot/internal/api"
	"github.com/Lllllllleong/careercopilot/internal/auth"
	"github.com/Lllllllleong/careercopilot/internal/config"
	"github.com/Lllllllleong/careercopilot/internal/embedding"
	"github.com/Lllllllleong/careercopilot/internal/extract"
	"github.com/Lllllllleong/careercopilot/internal/gcp"
	"github.com/Lllllllleong/careercopilot/internal/s3store"
	"github.com/Lllllllleong/careercopilot/internal/services"
	"github.com/Lllllllleong/careercopilot/internal/vectorindex"
)

// Resources collects the clients opened for an entry point so they can be closed together.
type Resources struct {
	closers []func() error
}

func (r *Resources) add(f func() error) {
	r.closers = append(r.closers, f)
}

// Close releases clients in reverse order of creation.
func (r *Resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// NewIngestion wires the upload ingestion pipeline.
func NewIngestion(ctx context.Context, cfg *config.Config) (_ *services.IngestionPipeline, _ *Resources, err error) {
	res := &Resources{}
	defer func() {
		if err != nil {
			_ = res.Close()
		}
	}()

	blobs, err := newBlobStore(ctx, cfg, res)
	if err != nil {
		return nil, nil, err
	}
	docs, err := newDocumentStore(ctx, cfg, res)
	if err != nil {
		return nil, nil, err
	}
	index, err := newVectorIndex(ctx, cfg, res)
	if err != nil {
		return nil, nil, err
	}

	pipeline := services.NewIngestionPipeline(services.IngestionConfig{
		UploadPrefix:        cfg.UploadPrefix,
		OutsidePrefixPolicy: cfg.OutsidePrefix,
		DedupeUploads:       cfg.DedupeUploads,
		Timeout:             cfg.IngestionTimeout,
	}, blobs, extract.NewDocconvExtractor(), docs, index)
	return pipeline, res, nil
}

// NewAPI wires the HTTP API.
func NewAPI(ctx context.Context, cfg *config.Config) (_ http.Handler, _ *Resources, err error) {
	res := &Resources{}
	defer func() {
		if err != nil {
			_ = res.Close()
		}
	}()

	blobs, err := newBlobStore(ctx, cfg, res)
	if err != nil {
		return nil, nil, err
	}
	docs, err := newDocumentStore(ctx, cfg, res)
	if err != nil {
		return nil, nil, err
	}
	index, err := newVectorIndex(ctx, cfg, res)
	if err != nil {
		return nil, nil, err
	}
	vertex, err := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.GenerationModel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	res.add(vertex.Close)

	generation := services.NewGenerationPipeline(services.GenerationConfig{
		TopK:              cfg.RetrievalTopK,
		WriterDomain:      cfg.WriterDomain,
		RetrievalTimeout:  cfg.RetrievalTimeout,
		GenerationTimeout: cfg.GenerationTimeout,
	}, index, vertex, newExporter(ctx, cfg))
	documents := services.NewDocumentService(docs, blobs, index, cfg.DefaultBucket)

	handler := api.NewRouter(api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RetrievalTimeout + cfg.GenerationTimeout,
	}, auth.NewFirebaseVerifier(cfg.ProjectID), generation, documents)
	return handler, res, nil
}

// NewJobScout wires the Gmail to Calendar job scout.
func NewJobScout(ctx context.Context, cfg *config.Config) (*services.JobScout, error) {
	ts, err := gcp.UserTokenSource(ctx, cfg.ProjectID, cfg.OAuthSecretName)
	if err != nil {
		return nil, fmt.Errorf("failed to load oauth credentials: %w", err)
	}
	mailbox, err := gcp.NewGmailMailbox(ctx, ts)
	if err != nil {
		return nil, err
	}
	cal, err := gcp.NewGoogleCalendar(ctx, ts)
	if err != nil {
		return nil, err
	}
	return services.NewJobScout(mailbox, cal, cfg.JobScoutSenders), nil
}

func newBlobStore(ctx context.Context, cfg *config.Config, res *Resources) (services.BlobStore, error) {
	switch cfg.BlobBackend {
	case "s3":
		return s3store.New(ctx, cfg.S3Region, cfg.S3Endpoint)
	case "gcs", "":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		res.add(client.Close)
		return gcp.NewGCSBlobStore(client), nil
	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}
}

func newDocumentStore(ctx context.Context, cfg *config.Config, res *Resources) (services.DocumentStore, error) {
	client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	res.add(client.Close)
	return gcp.NewFirestoreDocumentStore(client), nil
}

func newVectorIndex(ctx context.Context, cfg *config.Config, res *Resources) (services.VectorIndex, error) {
	embedder, err := embedding.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.MaxEmbedChars)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	res.add(embedder.Close)

	var store vectorindex.Store
	switch cfg.VectorBackend {
	case "memory":
		slog.Warn("Using the in-memory vector store; records do not survive a restart.")
		store = vectorindex.NewMemoryStore()
	case "postgres", "":
		pg, err := vectorindex.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.VectorTable, cfg.EmbeddingDim)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store: %w", err)
		}
		res.add(pg.Close)
		store = pg
	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND %q", cfg.VectorBackend)
	}
	return vectorindex.New(embedder, store), nil
}

// newExporter returns nil when the OAuth secret cannot be loaded; export
// requests then fail while plain generation keeps working.
func newExporter(ctx context.Context, cfg *config.Config) services.Exporter {
	if cfg.OAuthSecretName == "" {
		return nil
	}
	ts, err := gcp.UserTokenSource(ctx, cfg.ProjectID, cfg.OAuthSecretName)
	if err != nil {
		slog.Warn("Google Docs export disabled.", "error", err)
		return nil
	}
	exp, err := gcp.NewGoogleDocsExporter(ctx, ts)
	if err != nil {
		slog.Warn("Google Docs export disabled.", "error", err)
		return nil
	}
	return exp
}
