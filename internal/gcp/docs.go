package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf16"

	"github.com/Lllllllleong/careercopilot/internal/models"
	"golang.org/x/oauth2"
	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// GoogleDocsExporter writes generated sections into a new Google Doc.
type GoogleDocsExporter struct {
	svc *docs.Service
}

func NewGoogleDocsExporter(ctx context.Context, ts oauth2.TokenSource) (*GoogleDocsExporter, error) {
	svc, err := docs.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create docs client: %w", err)
	}
	return &GoogleDocsExporter{svc: svc}, nil
}

// Export creates the document and returns its edit URL.
func (e *GoogleDocsExporter) Export(ctx context.Context, title string, sections []models.ExportSection) (string, error) {
	doc, err := e.svc.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create google doc: %w", err)
	}

	if reqs := buildExportRequests(sections); len(reqs) > 0 {
		_, err := e.svc.Documents.BatchUpdate(doc.DocumentId, &docs.BatchUpdateDocumentRequest{Requests: reqs}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to write google doc %s: %w", doc.DocumentId, err)
		}
	}

	url := documentURL(doc.DocumentId)
	slog.Info("Created Google Doc.", "documentUrl", url)
	return url, nil
}

func documentURL(id string) string {
	return "https://docs.google.com/document/d/" + id + "/edit"
}

// buildExportRequests lays the sections out as HEADING_1 titles followed by
// body text. Docs indices count UTF-16 code units and start at 1.
func buildExportRequests(sections []models.ExportSection) []*docs.Request {
	var reqs []*docs.Request
	idx := int64(1)
	for i, s := range sections {
		heading := s.Heading + "\n"
		headingLen := utf16Len(heading)
		reqs = append(reqs,
			&docs.Request{InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: idx},
				Text:     heading,
			}},
			&docs.Request{UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
				Range:          &docs.Range{StartIndex: idx, EndIndex: idx + headingLen},
				ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: "HEADING_1"},
				Fields:         "namedStyleType",
			}},
		)
		idx += headingLen

		body := s.Body
		if i < len(sections)-1 {
			body += "\n\n"
		}
		if body == "" {
			continue
		}
		reqs = append(reqs, &docs.Request{InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: idx},
			Text:     body,
		}})
		idx += utf16Len(body)
	}
	return reqs
}

func utf16Len(s string) int64 {
	return int64(len(utf16.Encode([]rune(s))))
}
