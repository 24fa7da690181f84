package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/careercopilot/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection     = "users"
	documentsCollection = "user_documents"
	feedbackCollection  = "generation_feedback"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreDocumentStore keeps document metadata under users/{uid}/user_documents
// and feedback in a top-level generation_feedback collection.
type FirestoreDocumentStore struct {
	client *firestore.Client
}

func NewFirestoreDocumentStore(client *firestore.Client) *FirestoreDocumentStore {
	return &FirestoreDocumentStore{client: client}
}

func (s *FirestoreDocumentStore) userDocuments(userID string) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(userID).Collection(documentsCollection)
}

func (s *FirestoreDocumentStore) CreateDocument(ctx context.Context, doc *models.UploadedDocument) (string, error) {
	ref, _, err := s.userDocuments(doc.UserID).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	doc.ID = ref.ID
	return ref.ID, nil
}

func (s *FirestoreDocumentStore) UpdateIndexStatus(ctx context.Context, userID, docID string, indexStatus models.IndexStatus, errMsg string) error {
	updates := []firestore.Update{
		{Path: "indexStatus", Value: indexStatus},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
		// Always written so a successful retry clears the previous failure.
		{Path: "errorMessage", Value: errMsg},
	}
	if _, err := s.userDocuments(userID).Doc(docID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update index status: %w", notFound(err))
	}
	return nil
}

// FindDuplicate returns the user's earlier document at path with the same
// content hash. A completed match wins over pending or failed ones.
func (s *FirestoreDocumentStore) FindDuplicate(ctx context.Context, userID, path, fileHash string) (*models.UploadedDocument, error) {
	snaps, err := s.userDocuments(userID).
		Where("originalStoragePath", "==", path).
		Where("fileHash", "==", fileHash).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	var match *models.UploadedDocument
	for _, snap := range snaps {
		var doc models.UploadedDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", snap.Ref.ID, err)
		}
		doc.ID = snap.Ref.ID
		if doc.IndexStatus == models.IndexStatusCompleted {
			return &doc, nil
		}
		if match == nil {
			match = &doc
		}
	}
	return match, nil
}

func (s *FirestoreDocumentStore) GetDocument(ctx context.Context, userID, docID string) (*models.UploadedDocument, error) {
	snap, err := s.userDocuments(userID).Doc(docID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", docID, notFound(err))
	}
	var doc models.UploadedDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", docID, err)
	}
	doc.ID = snap.Ref.ID
	return &doc, nil
}

// ListDocuments returns the user's documents ordered by creation time.
func (s *FirestoreDocumentStore) ListDocuments(ctx context.Context, userID string) ([]models.UploadedDocument, error) {
	iter := s.userDocuments(userID).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []models.UploadedDocument
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		var doc models.UploadedDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", snap.Ref.ID, err)
		}
		doc.ID = snap.Ref.ID
		out = append(out, doc)
	}
	return out, nil
}

func (s *FirestoreDocumentStore) DeleteDocument(ctx context.Context, userID, docID string) error {
	if _, err := s.userDocuments(userID).Doc(docID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", docID, err)
	}
	return nil
}

func (s *FirestoreDocumentStore) StoreFeedback(ctx context.Context, fb *models.FeedbackRecord) error {
	if _, _, err := s.client.Collection(feedbackCollection).Add(ctx, fb); err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}
	return nil
}

// notFound tags gRPC NotFound errors with models.ErrNotFound.
func notFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %w", models.ErrNotFound, err)
	}
	return err
}
