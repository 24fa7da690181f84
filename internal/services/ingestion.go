package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

// Outside-prefix policies.
const (
	OutsidePrefixIgnore = "ignore"
	OutsidePrefixDelete = "delete"
)

const statusUpdateTimeout = 10 * time.Second

// IngestionConfig holds configuration for the ingestion pipeline.
type IngestionConfig struct {
	UploadPrefix        string
	OutsidePrefixPolicy string
	DedupeUploads       bool
	Timeout             time.Duration
}

// IngestionPipeline turns a finalized upload into a Firestore record and a vector record.
type IngestionPipeline struct {
	blobs     BlobStore
	extractor TextExtractor
	docs      DocumentStore
	index     VectorIndex
	config    IngestionConfig
	now       func() time.Time
}

// NewIngestionPipeline creates a new IngestionPipeline instance.
func NewIngestionPipeline(cfg IngestionConfig, blobs BlobStore, extractor TextExtractor, docs DocumentStore, index VectorIndex) *IngestionPipeline {
	if cfg.UploadPrefix == "" {
		cfg.UploadPrefix = "user_uploads"
	}
	if cfg.OutsidePrefixPolicy == "" {
		cfg.OutsidePrefixPolicy = OutsidePrefixIgnore
	}
	return &IngestionPipeline{
		blobs:     blobs,
		extractor: extractor,
		docs:      docs,
		index:     index,
		config:    cfg,
		now:       time.Now,
	}
}

// Process handles one upload event. Failures are logged and recorded on the
// document, never returned: the storage trigger has nothing useful to do with them.
func (p *IngestionPipeline) Process(ctx context.Context, e models.GCSEvent) {
	logCtx := p.logger(e)

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	docID, err := p.ingest(ctx, logCtx, e)
	if err != nil {
		logCtx.Error("Ingestion aborted.", "error", err, "kind", models.ErrorKind(err))
		return
	}
	if docID != "" {
		logCtx.Info("Ingestion complete.", "documentId", docID)
	}
}

func (p *IngestionPipeline) logger(e models.GCSEvent) *slog.Logger {
	return slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name, "contentType", e.ContentType)
}

// ingest runs the pipeline and returns the id of the document it wrote, or ""
// when the event was skipped.
func (p *IngestionPipeline) ingest(ctx context.Context, logCtx *slog.Logger, e models.GCSEvent) (string, error) {
	if !p.underPrefix(e.Name) {
		p.handleOutsidePrefix(ctx, logCtx, e)
		return "", nil
	}

	userID, err := UserIDFromPath(p.config.UploadPrefix, e.Name)
	if err != nil {
		return "", err
	}
	logCtx = logCtx.With("userId", userID)
	logCtx.Info("Processing new upload.")

	data, err := p.blobs.Read(ctx, e.Bucket, e.Name)
	if err != nil {
		return "", classify("failed to download upload", err)
	}

	rawText, pageCount, err := p.extractor.Extract(ctx, data, e.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	fileHash := calculateFileHash(data)
	logCtx = logCtx.With("fileHash", fileHash)

	var docID string
	if p.config.DedupeUploads {
		existing, err := p.docs.FindDuplicate(ctx, userID, e.Name, fileHash)
		if err != nil {
			return "", classify("failed to check for duplicate", err)
		}
		if existing != nil {
			if existing.IndexStatus == models.IndexStatusCompleted {
				logCtx.Info("Duplicate upload detected. Skipping.", "existingDocId", existing.ID)
				return "", nil
			}
			// An earlier attempt failed or never finished; index under its id.
			logCtx.Info("Re-indexing earlier upload.", "existingDocId", existing.ID, "previousStatus", existing.IndexStatus)
			docID = existing.ID
		}
	}

	if docID == "" {
		docID, err = p.docs.CreateDocument(ctx, &models.UploadedDocument{
			UserID:              userID,
			Bucket:              e.Bucket,
			OriginalStoragePath: e.Name,
			ContentType:         e.ContentType,
			RawText:             rawText,
			FileHash:            fileHash,
			PageCount:           pageCount,
			IndexStatus:         models.IndexStatusPending,
			CreatedAt:           p.now(),
		})
		if err != nil {
			return "", classify("failed to store document metadata", err)
		}
		logCtx.Info("Stored document metadata.", "documentId", docID, "pageCount", pageCount, "textLength", len(rawText))
	}
	logCtx = logCtx.With("documentId", docID)

	record := models.IndexRecord{
		ID:      docID,
		UserID:  userID,
		Content: rawText,
		Metadata: map[string]string{
			"documentId":  docID,
			"userId":      userID,
			"storagePath": e.Name,
		},
	}
	if err := p.index.Index(ctx, []models.IndexRecord{record}); err != nil {
		return docID, p.handleError(ctx, logCtx, userID, docID, "failed to index document", err)
	}

	statusCtx, cancel := statusContext(ctx)
	defer cancel()
	if err := p.docs.UpdateIndexStatus(statusCtx, userID, docID, models.IndexStatusCompleted, ""); err != nil {
		logCtx.Error("Failed to update index status to completed.", "error", err)
		return docID, classify("failed to update index status", err)
	}
	return docID, nil
}

func (p *IngestionPipeline) underPrefix(path string) bool {
	return strings.HasPrefix(path, p.config.UploadPrefix+"/")
}

func (p *IngestionPipeline) handleOutsidePrefix(ctx context.Context, logCtx *slog.Logger, e models.GCSEvent) {
	if p.config.OutsidePrefixPolicy != OutsidePrefixDelete {
		logCtx.Info("Skipping file outside the upload prefix.", "prefix", p.config.UploadPrefix)
		return
	}
	logCtx.Warn("Deleting file outside the upload prefix.", "prefix", p.config.UploadPrefix)
	if err := p.blobs.Delete(ctx, e.Bucket, e.Name); err != nil {
		logCtx.Error("Failed to delete file outside the upload prefix.", "error", err)
	}
}

// statusContext outlives the ingestion deadline so a timed-out run can still
// record its final status.
func statusContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), statusUpdateTimeout)
}

// handleError records the failure on the document and returns the wrapped error.
func (p *IngestionPipeline) handleError(ctx context.Context, logCtx *slog.Logger, userID, docID, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	statusCtx, cancel := statusContext(ctx)
	defer cancel()
	if err := p.docs.UpdateIndexStatus(statusCtx, userID, docID, models.IndexStatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to failed after an indexing error.", "updateError", err)
	}
	return classify(message, originalErr)
}

// UserIDFromPath extracts the owning user from "<prefix>/<userId>/<file...>".
func UserIDFromPath(prefix, path string) (string, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != prefix || parts[1] == "" {
		return "", fmt.Errorf("%w: could not extract user ID from %q, expected %s/{userId}/{filename}", models.ErrInvalidPath, path, prefix)
	}
	return parts[1], nil
}

func calculateFileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
