package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/careercopilot/internal/models"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Fixed texts returned in place of content the model failed to produce.
const (
	ErrTextUnparseable   = "Error: Could not parse the generated content."
	ErrTextNoCoverLetter = "Error: Could not generate cover letter."
	ErrTextNoResume      = "Error: Could not generate resume."
)

const (
	coverLetterKey       = "cover_letter_text"
	resumeKey            = "resume_text"
	coverLetterHeading   = "Cover Letter"
	resumeSummaryHeading = "Resume Summary"
	defaultRetrievalTopK = 3
)

// GenerationConfig holds configuration for the generation pipeline.
type GenerationConfig struct {
	TopK              int
	WriterDomain      string
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
}

// GenerationPipeline retrieves a user's past documents and synthesises a
// cover letter and resume summary for a job description.
type GenerationPipeline struct {
	index     VectorIndex
	generator Generator
	exporter  Exporter
	config    GenerationConfig
}

// NewGenerationPipeline creates a new GenerationPipeline. exporter may be nil,
// in which case export requests fail with ErrUpstreamUnavailable.
func NewGenerationPipeline(cfg GenerationConfig, index VectorIndex, generator Generator, exporter Exporter) *GenerationPipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultRetrievalTopK
	}
	if cfg.WriterDomain == "" {
		cfg.WriterDomain = DefaultWriterDomain
	}
	return &GenerationPipeline{
		index:     index,
		generator: generator,
		exporter:  exporter,
		config:    cfg,
	}
}

// Generate runs retrieval, prompting and parsing in one shot.
func (p *GenerationPipeline) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	if err := validateGenerationRequest(req); err != nil {
		return nil, err
	}
	logCtx := slog.With("runId", uuid.NewString(), "userId", req.UserID)
	logCtx.Info("Starting generation.", "export", req.Export)

	chunks, err := p.retrieve(ctx, req)
	if err != nil {
		logCtx.Error("Retrieval failed.", "error", err)
		return nil, err
	}
	logCtx.Info("Retrieved context.", "contextChunks", len(chunks))

	prompt := BuildPrompt(p.config.WriterDomain, req.JobDescription, JoinContext(chunks))
	raw, err := p.generateJSON(ctx, prompt)
	if err != nil {
		logCtx.Error("Generation failed.", "error", err)
		return nil, err
	}

	result := parseGeneration(raw)
	if result.Outcome != models.OutcomeOK {
		logCtx.Warn("Model output was incomplete.", "outcome", result.Outcome, "responseLength", len(raw))
	}

	if req.Export {
		url, err := p.export(ctx, req.JobDescription, result.CoverLetterText, result.ResumeText)
		if err != nil {
			logCtx.Error("Export failed.", "error", err)
			return nil, err
		}
		result.DocumentURL = url
	}

	logCtx.Info("Generation complete.", "outcome", result.Outcome)
	return result, nil
}

func validateGenerationRequest(req models.GenerationRequest) error {
	if strings.TrimSpace(req.JobDescription) == "" {
		return fmt.Errorf("%w: jobDescription is required", models.ErrInvalidRequest)
	}
	return nil
}

func (p *GenerationPipeline) retrieve(ctx context.Context, req models.GenerationRequest) ([]models.RetrievedChunk, error) {
	if p.config.RetrievalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.RetrievalTimeout)
		defer cancel()
	}
	chunks, err := p.index.Retrieve(ctx, req.UserID, req.JobDescription, p.config.TopK)
	if err != nil {
		return nil, classify("failed to retrieve context", err)
	}
	return chunks, nil
}

func (p *GenerationPipeline) generateJSON(ctx context.Context, prompt string) (string, error) {
	if p.config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.GenerationTimeout)
		defer cancel()
	}
	raw, err := p.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return "", classify("failed to generate content", err)
	}
	return raw, nil
}

func (p *GenerationPipeline) export(ctx context.Context, jobDescription, coverLetter, resume string) (string, error) {
	if p.exporter == nil {
		return "", fmt.Errorf("failed to export document: %w: no exporter configured", models.ErrUpstreamUnavailable)
	}
	url, err := p.exporter.Export(ctx, ExportTitle(jobDescription), []models.ExportSection{
		{Heading: coverLetterHeading, Body: coverLetter},
		{Heading: resumeSummaryHeading, Body: resume},
	})
	if err != nil {
		return "", classify("failed to export document", err)
	}
	return url, nil
}

// parseGeneration maps raw model output onto a result. It never fails: bad
// output degrades to the fixed error texts with an explanatory outcome.
func parseGeneration(raw string) *models.GenerationResult {
	cleaned := stripJSONFences(raw)
	if !gjson.Valid(cleaned) || !gjson.Parse(cleaned).IsObject() {
		return &models.GenerationResult{
			CoverLetterText: ErrTextUnparseable,
			ResumeText:      ErrTextUnparseable,
			Outcome:         models.OutcomeMalformedOutput,
		}
	}

	doc := gjson.Parse(cleaned)
	result := &models.GenerationResult{Outcome: models.OutcomeOK}

	// null and non-string values count as missing.
	if v := doc.Get(coverLetterKey); v.Type == gjson.String {
		result.CoverLetterText = v.String()
	} else {
		result.CoverLetterText = ErrTextNoCoverLetter
		result.Outcome = models.OutcomeMissingField
	}
	if v := doc.Get(resumeKey); v.Type == gjson.String {
		result.ResumeText = v.String()
	} else {
		result.ResumeText = ErrTextNoResume
		result.Outcome = models.OutcomeMissingField
	}
	return result
}

// stripJSONFences removes markdown code fences the model sometimes adds even in JSON mode.
func stripJSONFences(s string) string {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
