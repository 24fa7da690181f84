package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

var threeChunks = []models.RetrievedChunk{
	{ID: "a", Text: "A", Score: 0.9},
	{ID: "b", Text: "B", Score: 0.8},
	{ID: "c", Text: "C", Score: 0.7},
}

func TestJoinContext_PreservesRankOrder(t *testing.T) {
	got := JoinContext(threeChunks)
	want := "A\n\n---\n\nB\n\n---\n\nC"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := JoinContext(nil); got != "" {
		t.Errorf("empty: got %q, want empty", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("", "Youth Support Worker, Melbourne", "A\n\n---\n\nB")
	for _, want := range []string{
		"Australian Community Services",
		"Youth Support Worker, Melbourne",
		"A\n\n---\n\nB",
		`"cover_letter_text"`,
		`"resume_text"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt is missing %q", want)
		}
	}
}

func TestExportTitle(t *testing.T) {
	tests := []struct {
		jd   string
		want string
	}{
		{"Youth Support Worker, Melbourne", "Application for Youth Support Worker, Melbourne..."},
		{strings.Repeat("x", 50), "Application for " + strings.Repeat("x", 40) + "..."},
		{strings.Repeat("é", 45), "Application for " + strings.Repeat("é", 40) + "..."},
	}
	for _, tt := range tests {
		if got := ExportTitle(tt.jd); got != tt.want {
			t.Errorf("ExportTitle(%q) = %q, want %q", tt.jd, got, tt.want)
		}
	}
}

func TestParseGeneration(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantCover   string
		wantResume  string
		wantOutcome models.Outcome
	}{
		{
			name:        "both keys",
			raw:         `{"cover_letter_text":"Dear team","resume_text":"Youth worker"}`,
			wantCover:   "Dear team",
			wantResume:  "Youth worker",
			wantOutcome: models.OutcomeOK,
		},
		{
			name:        "fenced",
			raw:         "```json\n{\"cover_letter_text\":\"Dear team\",\"resume_text\":\"Youth worker\"}\n```",
			wantCover:   "Dear team",
			wantResume:  "Youth worker",
			wantOutcome: models.OutcomeOK,
		},
		{
			name:        "not json",
			raw:         "Sure! Here is your cover letter.",
			wantCover:   ErrTextUnparseable,
			wantResume:  ErrTextUnparseable,
			wantOutcome: models.OutcomeMalformedOutput,
		},
		{
			name:        "json array",
			raw:         `["cover_letter_text"]`,
			wantCover:   ErrTextUnparseable,
			wantResume:  ErrTextUnparseable,
			wantOutcome: models.OutcomeMalformedOutput,
		},
		{
			name:        "missing resume",
			raw:         `{"cover_letter_text":"Dear team"}`,
			wantCover:   "Dear team",
			wantResume:  ErrTextNoResume,
			wantOutcome: models.OutcomeMissingField,
		},
		{
			name:        "null cover letter",
			raw:         `{"cover_letter_text":null,"resume_text":"Youth worker"}`,
			wantCover:   ErrTextNoCoverLetter,
			wantResume:  "Youth worker",
			wantOutcome: models.OutcomeMissingField,
		},
		{
			name:        "non-string resume",
			raw:         `{"cover_letter_text":"Dear team","resume_text":{"summary":"x"}}`,
			wantCover:   "Dear team",
			wantResume:  ErrTextNoResume,
			wantOutcome: models.OutcomeMissingField,
		},
		{
			name:        "missing cover letter",
			raw:         `{"resume_text":"Youth worker"}`,
			wantCover:   ErrTextNoCoverLetter,
			wantResume:  "Youth worker",
			wantOutcome: models.OutcomeMissingField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseGeneration(tt.raw)
			if got.CoverLetterText != tt.wantCover {
				t.Errorf("cover letter: got %q, want %q", got.CoverLetterText, tt.wantCover)
			}
			if got.ResumeText != tt.wantResume {
				t.Errorf("resume: got %q, want %q", got.ResumeText, tt.wantResume)
			}
			if got.Outcome != tt.wantOutcome {
				t.Errorf("outcome: got %q, want %q", got.Outcome, tt.wantOutcome)
			}
		})
	}
}

func TestGenerate_YouthSupportWorkerWithExport(t *testing.T) {
	index := &fakeIndex{chunks: threeChunks}
	gen := &fakeGenerator{response: `{"cover_letter_text":"Dear hiring manager","resume_text":"Experienced youth worker"}`}
	exp := &fakeExporter{url: "https://docs.google.com/document/d/doc123/edit"}
	p := NewGenerationPipeline(GenerationConfig{}, index, gen, exp)

	res, err := p.Generate(context.Background(), models.GenerationRequest{
		JobDescription: "Youth Support Worker, Melbourne",
		Export:         true,
		UserID:         "u1",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if index.gotUser != "u1" || index.gotK != 3 {
		t.Errorf("retrieve: got user %q k %d, want u1 3", index.gotUser, index.gotK)
	}
	if !strings.Contains(gen.prompt, "A\n\n---\n\nB\n\n---\n\nC") {
		t.Errorf("prompt does not carry the joined context")
	}
	if res.CoverLetterText != "Dear hiring manager" || res.ResumeText != "Experienced youth worker" {
		t.Errorf("texts: got %q / %q", res.CoverLetterText, res.ResumeText)
	}
	if res.DocumentURL != exp.url {
		t.Errorf("documentUrl: got %q, want %q", res.DocumentURL, exp.url)
	}
	if exp.title != "Application for Youth Support Worker, Melbourne..." {
		t.Errorf("title: got %q", exp.title)
	}
	if len(exp.sections) != 2 || exp.sections[0].Heading != "Cover Letter" || exp.sections[1].Heading != "Resume Summary" {
		t.Errorf("sections: got %+v", exp.sections)
	}
}

func TestGenerate_EmptyRetrievalIsValid(t *testing.T) {
	gen := &fakeGenerator{response: `{"cover_letter_text":"c","resume_text":"r"}`}
	p := NewGenerationPipeline(GenerationConfig{}, &fakeIndex{}, gen, nil)

	res, err := p.Generate(context.Background(), models.GenerationRequest{JobDescription: "Case worker", UserID: "u1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Outcome != models.OutcomeOK || res.DocumentURL != "" {
		t.Errorf("got %+v", res)
	}
}

func TestGenerate_MalformedOutputIsNotAnError(t *testing.T) {
	gen := &fakeGenerator{response: "not json"}
	p := NewGenerationPipeline(GenerationConfig{}, &fakeIndex{chunks: threeChunks}, gen, nil)

	res, err := p.Generate(context.Background(), models.GenerationRequest{JobDescription: "Case worker", UserID: "u1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Outcome != models.OutcomeMalformedOutput || res.CoverLetterText != ErrTextUnparseable {
		t.Errorf("got %+v", res)
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		jd      string
		index   *fakeIndex
		gen     *fakeGenerator
		wantErr error
	}{
		{"empty job description", "  ", &fakeIndex{}, &fakeGenerator{}, models.ErrInvalidRequest},
		{"retrieval deadline", "jd", &fakeIndex{retErr: context.DeadlineExceeded}, &fakeGenerator{}, models.ErrTimeout},
		{"retrieval failure", "jd", &fakeIndex{retErr: errors.New("connection refused")}, &fakeGenerator{}, models.ErrUpstreamUnavailable},
		{"generation deadline", "jd", &fakeIndex{}, &fakeGenerator{err: context.DeadlineExceeded}, models.ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewGenerationPipeline(GenerationConfig{RetrievalTimeout: time.Second}, tt.index, tt.gen, nil)
			_, err := p.Generate(context.Background(), models.GenerationRequest{JobDescription: tt.jd, UserID: "u1"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate_ExportWithoutExporter(t *testing.T) {
	gen := &fakeGenerator{response: `{"cover_letter_text":"c","resume_text":"r"}`}
	p := NewGenerationPipeline(GenerationConfig{}, &fakeIndex{}, gen, nil)

	_, err := p.Generate(context.Background(), models.GenerationRequest{JobDescription: "jd", Export: true, UserID: "u1"})
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("got %v, want ErrUpstreamUnavailable", err)
	}
}
