// Package extract turns uploaded career documents into plain text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"

	"code.sajari.com/docconv"
	"github.com/Lllllllleong/careercopilot/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DocconvExtractor extracts text with docconv. PDFs are validated and counted with pdfcpu first.
type DocconvExtractor struct{}

func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{}
}

// Supported reports whether mimeType can be extracted.
func Supported(mimeType string) bool {
	switch normalize(mimeType) {
	case MIMEPDF, MIMEDocx:
		return true
	}
	return false
}

func (e *DocconvExtractor) Extract(ctx context.Context, data []byte, mimeType string) (string, int, error) {
	mt := normalize(mimeType)
	if !Supported(mt) {
		return "", 0, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, mimeType)
	}

	pageCount := 0
	if mt == MIMEPDF {
		n, err := pdfPageCount(data)
		if err != nil {
			return "", 0, fmt.Errorf("%w: unreadable pdf: %w", models.ErrUnsupportedFormat, err)
		}
		pageCount = n
	}

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	res, err := docconv.Convert(bytes.NewReader(data), mt, false)
	if err != nil {
		return "", 0, fmt.Errorf("docconv: extraction failed for %s: %w", mt, err)
	}
	return strings.TrimSpace(res.Body), pageCount, nil
}

func pdfPageCount(data []byte) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), cfg)
}

func normalize(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}
