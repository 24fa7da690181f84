package services

import (
	"context"
	"iter"
	"time"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

// BlobStore reads and removes uploaded objects.
type BlobStore interface {
	Read(ctx context.Context, bucket, path string) ([]byte, error)
	Delete(ctx context.Context, bucket, path string) error
}

// TextExtractor turns raw file bytes into plain text.
// It returns models.ErrUnsupportedFormat for MIME types it does not understand.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (text string, pageCount int, err error)
}

// DocumentStore persists per-user document metadata and feedback.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.UploadedDocument) (string, error)
	UpdateIndexStatus(ctx context.Context, userID, docID string, status models.IndexStatus, errMsg string) error
	// FindDuplicate returns an earlier document with the same path and content
	// hash, preferring a completed one, or nil when there is none.
	FindDuplicate(ctx context.Context, userID, path, fileHash string) (*models.UploadedDocument, error)
	GetDocument(ctx context.Context, userID, docID string) (*models.UploadedDocument, error)
	ListDocuments(ctx context.Context, userID string) ([]models.UploadedDocument, error)
	DeleteDocument(ctx context.Context, userID, docID string) error
	StoreFeedback(ctx context.Context, fb *models.FeedbackRecord) error
}

// VectorIndex embeds and searches document text.
type VectorIndex interface {
	Index(ctx context.Context, records []models.IndexRecord) error
	Retrieve(ctx context.Context, userID, query string, k int) ([]models.RetrievedChunk, error)
	Delete(ctx context.Context, id string) error
}

// Generator calls the text generation engine in structured JSON mode.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	// StreamJSON yields raw text fragments as the engine produces them.
	StreamJSON(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Exporter writes generated sections to an external document and returns its URL.
type Exporter interface {
	Export(ctx context.Context, title string, sections []models.ExportSection) (string, error)
}

// Mailbox reads job-alert messages.
type Mailbox interface {
	ListUnread(ctx context.Context, sender string) ([]models.MailMessage, error)
	MarkRead(ctx context.Context, messageID string) error
}

// Calendar schedules reminders.
type Calendar interface {
	CreateAllDayEvent(ctx context.Context, summary, description string, day time.Time) error
}
