package models

import "time"

// IndexStatus tracks whether an uploaded document made it into the vector index.
type IndexStatus string

const (
	IndexStatusPending   IndexStatus = "pending"
	IndexStatusCompleted IndexStatus = "completed"
	IndexStatusFailed    IndexStatus = "failed"
)

// UploadedDocument is the metadata record kept in Firestore for every ingested career document.
// It lives under users/{userId}/user_documents/{id}.
type UploadedDocument struct {
	ID                  string      `firestore:"-"`
	UserID              string      `firestore:"userId"`
	Bucket              string      `firestore:"bucket,omitempty"`
	OriginalStoragePath string      `firestore:"originalStoragePath"`
	ContentType         string      `firestore:"contentType,omitempty"`
	RawText             string      `firestore:"rawText"`
	FileHash            string      `firestore:"fileHash,omitempty"`
	PageCount           int         `firestore:"pageCount,omitempty"`
	IndexStatus         IndexStatus `firestore:"indexStatus"`
	ErrorMessage        string      `firestore:"errorMessage,omitempty"`
	CreatedAt           time.Time   `firestore:"createdAt"`
}

// FeedbackRecord is a write-only user reaction to a generated document.
type FeedbackRecord struct {
	UserID         string    `firestore:"userId,omitempty"`
	Feedback       string    `firestore:"feedback"`
	JobDescription string    `firestore:"jobDescription"`
	GeneratedText  string    `firestore:"generatedText"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

// IndexRecord is one unit of text handed to the vector index.
// ID must equal the UploadedDocument ID it was derived from.
type IndexRecord struct {
	ID       string
	UserID   string
	Content  string
	Metadata map[string]string
}

// RetrievedChunk is a ranked retrieval hit, closest first.
type RetrievedChunk struct {
	ID       string
	Text     string
	Score    float64
	Metadata map[string]string
}

// ExportSection is one headed block of an exported document.
type ExportSection struct {
	Heading string
	Body    string
}

// MailMessage is the slice of an inbox message the job scout cares about.
type MailMessage struct {
	ID      string
	Sender  string
	Subject string
}
