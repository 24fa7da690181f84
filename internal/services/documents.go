package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

// DocumentService serves a user's uploaded documents and feedback.
type DocumentService struct {
	docs          DocumentStore
	blobs         BlobStore
	index         VectorIndex
	defaultBucket string
	now           func() time.Time
}

// NewDocumentService creates a new DocumentService. defaultBucket is used for
// documents that were stored without a bucket name.
func NewDocumentService(docs DocumentStore, blobs BlobStore, index VectorIndex, defaultBucket string) *DocumentService {
	return &DocumentService{
		docs:          docs,
		blobs:         blobs,
		index:         index,
		defaultBucket: defaultBucket,
		now:           time.Now,
	}
}

// List returns the user's documents, oldest first.
func (s *DocumentService) List(ctx context.Context, userID string) ([]models.DocumentSummary, error) {
	docs, err := s.docs.ListDocuments(ctx, userID)
	if err != nil {
		return nil, classify("failed to list documents", err)
	}
	out := make([]models.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.DocumentSummary{
			ID:                  d.ID,
			OriginalStoragePath: d.OriginalStoragePath,
			CreatedAt:           d.CreatedAt,
			IndexStatus:         d.IndexStatus,
		})
	}
	slices.SortStableFunc(out, func(a, b models.DocumentSummary) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// Delete removes the vector record, the uploaded blob and the metadata row, in
// that order. It stops at the first failure and leaves the metadata row in
// place so the deletion can be retried.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	logCtx := slog.With("userId", userID, "documentId", documentID)

	doc, err := s.docs.GetDocument(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("document %s: %w", documentID, models.ErrNotFound)
		}
		return classify("failed to load document", err)
	}

	if err := s.index.Delete(ctx, documentID); err != nil {
		logCtx.Error("Failed to delete vector record.", "error", err)
		return classify("failed to delete vector record", err)
	}

	if doc.OriginalStoragePath != "" {
		bucket := doc.Bucket
		if bucket == "" {
			bucket = s.defaultBucket
		}
		if err := s.blobs.Delete(ctx, bucket, doc.OriginalStoragePath); err != nil && !errors.Is(err, models.ErrNotFound) {
			logCtx.Error("Failed to delete uploaded file.", "error", err, "gcsObject", doc.OriginalStoragePath)
			return classify("failed to delete uploaded file", err)
		}
	}

	if err := s.docs.DeleteDocument(ctx, userID, documentID); err != nil {
		logCtx.Error("Failed to delete document metadata.", "error", err)
		return classify("failed to delete document metadata", err)
	}

	logCtx.Info("Document deleted.")
	return nil
}

// SubmitFeedback stores one feedback record for a generation.
func (s *DocumentService) SubmitFeedback(ctx context.Context, userID string, req models.FeedbackRequest) error {
	if strings.TrimSpace(req.Feedback) == "" {
		return fmt.Errorf("%w: feedback is required", models.ErrInvalidRequest)
	}
	err := s.docs.StoreFeedback(ctx, &models.FeedbackRecord{
		UserID:         userID,
		Feedback:       req.Feedback,
		JobDescription: req.JobDescription,
		GeneratedText:  req.GeneratedText,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return classify("failed to store feedback", err)
	}
	return nil
}
