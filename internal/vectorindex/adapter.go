package vectorindex

import (
	"context"
	"fmt"
	"maps"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

// Index embeds records on write and queries on read.
type Index struct {
	embedder Embedder
	store    Store
}

func New(embedder Embedder, store Store) *Index {
	return &Index{embedder: embedder, store: store}
}

// Index embeds and upserts every record. The point id is the record id.
func (x *Index) Index(ctx context.Context, records []models.IndexRecord) error {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		vec, err := x.embedder.EmbedDocument(ctx, r.Content)
		if err != nil {
			return fmt.Errorf("embed %s: %w", r.ID, err)
		}
		points = append(points, Point{
			ID:        r.ID,
			UserID:    r.UserID,
			Content:   r.Content,
			Metadata:  maps.Clone(r.Metadata),
			Embedding: vec,
		})
	}
	return x.store.Upsert(ctx, points)
}

// Retrieve returns up to k of the user's records closest to query.
func (x *Index) Retrieve(ctx context.Context, userID, query string, k int) ([]models.RetrievedChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	vec, err := x.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := x.store.Search(ctx, userID, vec, k)
	if err != nil {
		return nil, err
	}
	out := make([]models.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		out = append(out, models.RetrievedChunk{
			ID:       m.ID,
			Text:     m.Content,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}
	return out, nil
}

func (x *Index) Delete(ctx context.Context, id string) error {
	return x.store.Delete(ctx, id)
}
