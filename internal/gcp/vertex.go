package gcp

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

// careerDocumentSchema constrains JSON mode output to the two generated texts.
var careerDocumentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"cover_letter_text": {Type: genai.TypeString, Description: "The full cover letter."},
		"resume_text":       {Type: genai.TypeString, Description: "The tailored resume summary."},
	},
	Required: []string{"cover_letter_text", "resume_text"},
}

// VertexClient wraps the pre-configured career document model.
type VertexClient struct {
	WriterModel *genai.GenerativeModel
	baseClient  *genai.Client
}

// NewVertexClient creates a client whose writer model answers in JSON mode.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	writerModel := baseClient.GenerativeModel(modelName)
	writerModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   careerDocumentSchema,
		Temperature:      genai.Ptr[float32](0.4),
	}

	return &VertexClient{
		WriterModel: writerModel,
		baseClient:  baseClient,
	}, nil
}

// GenerateJSON returns the model's complete JSON answer for prompt.
func (c *VertexClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := c.WriterModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	return responseText(resp), nil
}

// StreamJSON yields text fragments as Vertex AI streams them. Stopping the
// range stops reading the response stream.
func (c *VertexClient) StreamJSON(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		it := c.WriterModel.GenerateContentStream(ctx, genai.Text(prompt))
		for {
			resp, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("failed to stream content from gemini: %w", err))
				return
			}
			if text := responseText(resp); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
