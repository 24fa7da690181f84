package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, raw string) (string, error) {
	if raw == "token-u1" {
		return "u1", nil
	}
	return "", errors.New("bad token")
}

type fakeGenerator struct {
	gotReq models.GenerationRequest
	err    error
	frames []models.Frame
}

func (f *fakeGenerator) Generate(_ context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.GenerationResult{CoverLetterText: "Dear team", ResumeText: "Youth worker", Outcome: models.OutcomeOK}, nil
}

func (f *fakeGenerator) Stream(_ context.Context, req models.GenerationRequest) iter.Seq[models.Frame] {
	f.gotReq = req
	return func(yield func(models.Frame) bool) {
		for _, fr := range f.frames {
			if !yield(fr) {
				return
			}
		}
	}
}

type fakeDocuments struct {
	deleteErr error
	feedback  []models.FeedbackRequest
}

func (f *fakeDocuments) List(_ context.Context, userID string) ([]models.DocumentSummary, error) {
	return []models.DocumentSummary{{
		ID:                  "d1",
		OriginalStoragePath: "user_uploads/" + userID + "/resume.pdf",
		CreatedAt:           time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		IndexStatus:         models.IndexStatusCompleted,
	}}, nil
}

func (f *fakeDocuments) Delete(_ context.Context, _, documentID string) error {
	if f.deleteErr != nil {
		return fmt.Errorf("document %s: %w", documentID, f.deleteErr)
	}
	return nil
}

func (f *fakeDocuments) SubmitFeedback(_ context.Context, _ string, req models.FeedbackRequest) error {
	f.feedback = append(f.feedback, req)
	return nil
}

func do(t *testing.T, h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer token-u1")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzIsPublic(t *testing.T) {
	h := NewRouter(Options{}, stubVerifier{}, &fakeGenerator{}, &fakeDocuments{})
	if rec := do(t, h, http.MethodGet, "/healthz", "", false); rec.Code != http.StatusOK {
		t.Errorf("code: got %d, want 200", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := NewRouter(Options{}, stubVerifier{}, &fakeGenerator{}, &fakeDocuments{})
	for _, rt := range []struct{ method, path string }{
		{http.MethodPost, "/generate"},
		{http.MethodPost, "/generate-stream"},
		{http.MethodPost, "/feedback"},
		{http.MethodGet, "/documents"},
		{http.MethodDelete, "/documents/d1"},
	} {
		if rec := do(t, h, rt.method, rt.path, "{}", false); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d, want 401", rt.method, rt.path, rec.Code)
		}
	}
}

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{}
	h := NewRouter(Options{}, stubVerifier{}, gen, &fakeDocuments{})

	rec := do(t, h, http.MethodPost, "/generate", `{"jobDescription":"Youth Support Worker, Melbourne","export":true}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("code: got %d, want 200 (%s)", rec.Code, rec.Body)
	}
	if gen.gotReq.UserID != "u1" || !gen.gotReq.Export || gen.gotReq.JobDescription != "Youth Support Worker, Melbourne" {
		t.Errorf("request: got %+v", gen.gotReq)
	}
	var res map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["coverLetterText"] != "Dear team" || res["resumeText"] != "Youth worker" {
		t.Errorf("body: got %v", res)
	}
	if _, ok := res["documentUrl"]; ok {
		t.Errorf("documentUrl should be omitted when empty")
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrInvalidRequest, http.StatusBadRequest},
		{models.ErrTimeout, http.StatusGatewayTimeout},
		{models.ErrUpstreamUnavailable, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		h := NewRouter(Options{}, stubVerifier{}, &fakeGenerator{err: fmt.Errorf("wrapped: %w", tt.err)}, &fakeDocuments{})
		rec := do(t, h, http.MethodPost, "/generate", `{"jobDescription":"x"}`, true)
		if rec.Code != tt.want {
			t.Errorf("%v: got %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestGenerate_BadJSON(t *testing.T) {
	h := NewRouter(Options{}, stubVerifier{}, &fakeGenerator{}, &fakeDocuments{})
	if rec := do(t, h, http.MethodPost, "/generate", `{"jobDescription":`, true); rec.Code != http.StatusBadRequest {
		t.Errorf("code: got %d, want 400", rec.Code)
	}
}

func TestGenerateStream(t *testing.T) {
	n := 2
	gen := &fakeGenerator{frames: []models.Frame{
		{Event: models.EventMessage, Data: models.StatusPayload{Status: "retrieving"}},
		{Event: models.EventMessage, Data: models.StatusPayload{Status: "generating", ContextChunks: &n}},
		{Event: models.EventPartialResult, Data: models.PartialPayload{CoverLetterChunk: "Dear"}},
		{Event: models.EventFinalResult, Data: models.FinalPayload{CoverLetterText: "Dear", ResumeText: "r"}},
	}}
	h := NewRouter(Options{}, stubVerifier{}, gen, &fakeDocuments{})

	rec := do(t, h, http.MethodPost, "/generate-stream", `{"jobDescription":"jd"}`, true)

	if rec.Code != http.StatusOK {
		t.Fatalf("code: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type: got %q", ct)
	}
	want := "event: message\ndata: {\"status\":\"retrieving\"}\n\n" +
		"event: message\ndata: {\"status\":\"generating\",\"contextChunks\":2}\n\n" +
		"event: partial_result\ndata: {\"coverLetterChunk\":\"Dear\"}\n\n" +
		"event: final_result\ndata: {\"coverLetterText\":\"Dear\",\"resumeText\":\"r\"}\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body:\ngot  %q\nwant %q", got, want)
	}
}

func TestDocuments(t *testing.T) {
	docs := &fakeDocuments{}
	h := NewRouter(Options{}, stubVerifier{}, &fakeGenerator{}, docs)

	rec := do(t, h, http.MethodGet, "/documents", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list code: got %d", rec.Code)
	}
	var list []models.DocumentSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].OriginalStoragePath != "user_uploads/u1/resume.pdf" {
		t.Errorf("list: got %+v", list)
	}

	rec = do(t, h, http.MethodDelete, "/documents/d1", "", true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"deleted"`) {
		t.Errorf("delete: got %d %s", rec.Code, rec.Body)
	}

	docs.deleteErr = models.ErrNotFound
	if rec := do(t, h, http.MethodDelete, "/documents/missing", "", true); rec.Code != http.StatusNotFound {
		t.Errorf("delete missing: got %d, want 404", rec.Code)
	}
}

func TestFeedback(t *testing.T) {
	docs := &fakeDocuments{}
	h := NewRouter(Options{}, stubVerifier{}, &fakeGenerator{}, docs)

	rec := do(t, h, http.MethodPost, "/feedback", `{"feedback":"great","jobDescription":"jd","generatedText":"txt"}`, true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("got %d %s", rec.Code, rec.Body)
	}
	if len(docs.feedback) != 1 || docs.feedback[0].Feedback != "great" {
		t.Errorf("feedback: got %+v", docs.feedback)
	}
}
