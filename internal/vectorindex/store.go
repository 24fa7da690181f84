// Package vectorindex stores document embeddings and answers nearest-neighbour
// queries scoped to a single user.
package vectorindex

import "context"

// Point is one stored vector record.
type Point struct {
	ID        string
	UserID    string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Match is a search hit. Score is cosine similarity, higher is closer.
type Match struct {
	Point
	Score float64
}

// Store persists points and searches them by cosine similarity.
type Store interface {
	Upsert(ctx context.Context, points []Point) error
	// Search returns up to k points owned by userID, closest first.
	Search(ctx context.Context, userID string, vector []float32, k int) ([]Match, error)
	// Delete removes a point. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Embedder turns text into vectors.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
