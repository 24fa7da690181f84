package models

import "time"

// These structs define the JSON payloads exchanged with the storage trigger
// and the HTTP API.

// GCSEvent is the data payload of a storage object-finalized CloudEvent.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// GenerationRequest is the input for both the batch and streaming generation endpoints.
type GenerationRequest struct {
	JobDescription string `json:"jobDescription"`
	Export         bool   `json:"export,omitempty"`
	UserID         string `json:"-"`
}

// Outcome tags how a generation result was produced.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeMalformedOutput Outcome = "malformed_output"
	OutcomeMissingField    Outcome = "missing_field"
)

// GenerationResult is the output of the batch generation endpoint.
type GenerationResult struct {
	CoverLetterText string  `json:"coverLetterText"`
	ResumeText      string  `json:"resumeText"`
	DocumentURL     string  `json:"documentUrl,omitempty"`
	Outcome         Outcome `json:"-"`
}

// FeedbackRequest is the input for the feedback endpoint.
type FeedbackRequest struct {
	Feedback       string `json:"feedback"`
	JobDescription string `json:"jobDescription"`
	GeneratedText  string `json:"generatedText"`
}

// DocumentSummary is one entry of the document listing endpoint.
type DocumentSummary struct {
	ID                  string      `json:"id"`
	OriginalStoragePath string      `json:"originalStoragePath"`
	CreatedAt           time.Time   `json:"createdAt"`
	IndexStatus         IndexStatus `json:"indexStatus,omitempty"`
}

// StatusResponse acknowledges a mutation.
type StatusResponse struct {
	Status string `json:"status"`
}

// Stream frame event names.
const (
	EventMessage       = "message"
	EventPartialResult = "partial_result"
	EventFinalResult   = "final_result"
	EventError         = "error"
)

// Frame is one named server-sent event emitted by the streaming generation pipeline.
type Frame struct {
	Event string
	Data  any
}

// StatusPayload is carried by "message" frames.
type StatusPayload struct {
	Status          string `json:"status"`
	ContextChunks   *int   `json:"contextChunks,omitempty"`
	CoverLetterText string `json:"coverLetterText,omitempty"`
	ResumeText      string `json:"resumeText,omitempty"`
	DocumentURL     string `json:"documentUrl,omitempty"`
}

// PartialPayload is carried by "partial_result" frames.
type PartialPayload struct {
	CoverLetterChunk string `json:"coverLetterChunk,omitempty"`
	ResumeChunk      string `json:"resumeChunk,omitempty"`
}

// FinalPayload is carried by the "final_result" frame.
type FinalPayload struct {
	CoverLetterText string `json:"coverLetterText"`
	ResumeText      string `json:"resumeText"`
	DocumentURL     string `json:"documentUrl,omitempty"`
}

// ErrorPayload is carried by the "error" frame.
type ErrorPayload struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
