package services

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

type fakeBlobs struct {
	objects   map[string][]byte
	readErr   error
	deleteErr error
	deleted   []string
	log       *[]string
}

func (f *fakeBlobs) Read(_ context.Context, bucket, path string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	data, ok := f.objects[bucket+"/"+path]
	if !ok {
		return nil, fmt.Errorf("object %s/%s: %w", bucket, path, models.ErrNotFound)
	}
	return data, nil
}

func (f *fakeBlobs) Delete(_ context.Context, bucket, path string) error {
	record(f.log, "blob.delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, bucket+"/"+path)
	return nil
}

type fakeExtractor struct {
	text  string
	pages int
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, mimeType string) (string, int, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	if mimeType != "application/pdf" {
		return "", 0, fmt.Errorf("%q: %w", mimeType, models.ErrUnsupportedFormat)
	}
	return f.text, f.pages, nil
}

type statusUpdate struct {
	docID  string
	status models.IndexStatus
	errMsg string
}

type fakeDocs struct {
	docs      map[string]*models.UploadedDocument
	feedback  []models.FeedbackRecord
	updates   []statusUpdate
	nextID    int
	createErr error
	deleteErr error
	log       *[]string
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string]*models.UploadedDocument{}}
}

func (f *fakeDocs) CreateDocument(_ context.Context, doc *models.UploadedDocument) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	stored := *doc
	stored.ID = id
	f.docs[id] = &stored
	return id, nil
}

func (f *fakeDocs) UpdateIndexStatus(ctx context.Context, _, docID string, status models.IndexStatus, errMsg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.updates = append(f.updates, statusUpdate{docID: docID, status: status, errMsg: errMsg})
	if d, ok := f.docs[docID]; ok {
		d.IndexStatus = status
		d.ErrorMessage = errMsg
	}
	return nil
}

func (f *fakeDocs) FindDuplicate(_ context.Context, userID, path, fileHash string) (*models.UploadedDocument, error) {
	var match *models.UploadedDocument
	for _, d := range f.docs {
		if d.UserID != userID || d.OriginalStoragePath != path || d.FileHash != fileHash {
			continue
		}
		if d.IndexStatus == models.IndexStatusCompleted {
			return d, nil
		}
		match = d
	}
	return match, nil
}

func (f *fakeDocs) GetDocument(_ context.Context, userID, docID string) (*models.UploadedDocument, error) {
	d, ok := f.docs[docID]
	if !ok || d.UserID != userID {
		return nil, fmt.Errorf("document %s: %w", docID, models.ErrNotFound)
	}
	return d, nil
}

func (f *fakeDocs) ListDocuments(_ context.Context, userID string) ([]models.UploadedDocument, error) {
	var out []models.UploadedDocument
	for _, d := range f.docs {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocs) DeleteDocument(_ context.Context, _, docID string) error {
	record(f.log, "docs.delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.docs, docID)
	return nil
}

func (f *fakeDocs) StoreFeedback(_ context.Context, fb *models.FeedbackRecord) error {
	f.feedback = append(f.feedback, *fb)
	return nil
}

type fakeIndex struct {
	records   []models.IndexRecord
	chunks    []models.RetrievedChunk
	indexErr  error
	block     bool // Index waits for the context to end
	retErr    error
	deleteErr error
	deleted   []string
	gotUser   string
	gotK      int
	log       *[]string
}

func (f *fakeIndex) Index(ctx context.Context, records []models.IndexRecord) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.indexErr != nil {
		return f.indexErr
	}
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeIndex) Retrieve(ctx context.Context, userID, _ string, k int) ([]models.RetrievedChunk, error) {
	f.gotUser, f.gotK = userID, k
	if f.retErr != nil {
		return nil, f.retErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(f.chunks) > k {
		return f.chunks[:k], nil
	}
	return f.chunks, nil
}

func (f *fakeIndex) Delete(_ context.Context, id string) error {
	record(f.log, "index.delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeGenerator struct {
	response  string
	fragments []string
	err       error
	streamErr error
	prompt    string

	// set by StreamJSON
	streamCtx context.Context
	stopped   bool
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeGenerator) StreamJSON(ctx context.Context, prompt string) iter.Seq2[string, error] {
	f.prompt = prompt
	f.streamCtx = ctx
	return func(yield func(string, error) bool) {
		for _, frag := range f.fragments {
			if !yield(frag, nil) {
				f.stopped = true
				return
			}
		}
		if f.streamErr != nil {
			yield("", f.streamErr)
		}
	}
}

type fakeExporter struct {
	url      string
	err      error
	title    string
	sections []models.ExportSection
}

func (f *fakeExporter) Export(_ context.Context, title string, sections []models.ExportSection) (string, error) {
	f.title, f.sections = title, sections
	return f.url, f.err
}

type fakeMailbox struct {
	mu       sync.Mutex
	messages map[string][]models.MailMessage
	listErr  map[string]error
	read     []string
}

func (f *fakeMailbox) ListUnread(_ context.Context, sender string) ([]models.MailMessage, error) {
	if err := f.listErr[sender]; err != nil {
		return nil, err
	}
	return f.messages[sender], nil
}

func (f *fakeMailbox) MarkRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, id)
	return nil
}

type calendarEvent struct {
	summary     string
	description string
	day         time.Time
}

type fakeCalendar struct {
	mu     sync.Mutex
	events []calendarEvent
}

func (f *fakeCalendar) CreateAllDayEvent(_ context.Context, summary, description string, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, calendarEvent{summary: summary, description: description, day: day})
	return nil
}

func record(log *[]string, op string) {
	if log != nil {
		*log = append(*log, op)
	}
}
