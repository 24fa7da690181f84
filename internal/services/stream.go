package services

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/careercopilot/internal/models"
	"github.com/google/uuid"
)

// Stream statuses carried by "message" frames.
const (
	StatusRetrieving         = "retrieving"
	StatusGenerating         = "generating"
	StatusGenerationComplete = "generation_complete"
	StatusExported           = "exported"
)

// Stream runs the pipeline incrementally. Frames arrive in the order
// retrieving, generating, partial results, generation_complete, exported (only
// when export was requested), final_result. Any failure yields a single error
// frame and ends the sequence. The sequence is pull-driven: when the consumer
// stops ranging, in-flight retrieval and generation calls are cancelled.
func (p *GenerationPipeline) Stream(ctx context.Context, req models.GenerationRequest) iter.Seq[models.Frame] {
	return func(yield func(models.Frame) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		logCtx := slog.With("runId", uuid.NewString(), "userId", req.UserID, "stream", true)
		fail := func(err error) {
			logCtx.Error("Streaming generation failed.", "error", err, "kind", models.ErrorKind(err))
			yield(errorFrame(err))
		}

		if err := validateGenerationRequest(req); err != nil {
			fail(err)
			return
		}

		if !yield(statusFrame(models.StatusPayload{Status: StatusRetrieving})) {
			return
		}
		chunks, err := p.retrieve(ctx, req)
		if err != nil {
			fail(err)
			return
		}

		n := len(chunks)
		if !yield(statusFrame(models.StatusPayload{Status: StatusGenerating, ContextChunks: &n})) {
			return
		}
		logCtx.Info("Retrieved context, streaming generation.", "contextChunks", n)

		coverLetter, resume, ok := p.streamParts(ctx, logCtx, BuildPrompt(p.config.WriterDomain, req.JobDescription, JoinContext(chunks)), yield, fail)
		if !ok {
			return
		}

		if !yield(statusFrame(models.StatusPayload{
			Status:          StatusGenerationComplete,
			CoverLetterText: coverLetter,
			ResumeText:      resume,
		})) {
			return
		}

		var documentURL string
		if req.Export {
			documentURL, err = p.export(ctx, req.JobDescription, coverLetter, resume)
			if err != nil {
				fail(err)
				return
			}
			if !yield(statusFrame(models.StatusPayload{Status: StatusExported, DocumentURL: documentURL})) {
				return
			}
		}

		logCtx.Info("Streaming generation complete.", "coverLetterLength", len(coverLetter), "resumeLength", len(resume))
		yield(models.Frame{
			Event: models.EventFinalResult,
			Data: models.FinalPayload{
				CoverLetterText: coverLetter,
				ResumeText:      resume,
				DocumentURL:     documentURL,
			},
		})
	}
}

// streamParts drives the streaming generation call, emitting partial results.
// ok is false when the sequence must end, either because the consumer stopped
// or because an error frame was already sent.
func (p *GenerationPipeline) streamParts(ctx context.Context, logCtx *slog.Logger, prompt string, yield func(models.Frame) bool, fail func(error)) (coverLetter, resume string, ok bool) {
	if p.config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.GenerationTimeout)
		defer cancel()
	}

	var acc jsonAccumulator
	var coverBuf, resumeBuf strings.Builder
	emit := func(part models.PartialPayload) bool {
		coverBuf.WriteString(part.CoverLetterChunk)
		resumeBuf.WriteString(part.ResumeChunk)
		return yield(models.Frame{Event: models.EventPartialResult, Data: part})
	}

	for fragment, err := range p.generator.StreamJSON(ctx, prompt) {
		if err != nil {
			fail(classify("failed to stream content", err))
			return "", "", false
		}
		for _, part := range acc.feed(fragment) {
			if !emit(part) {
				return "", "", false
			}
		}
	}
	if tail, found := acc.flush(); found {
		logCtx.Warn("Stream ended with unparsed output; appending it to the cover letter.", "tailLength", len(tail.CoverLetterChunk))
		if !emit(tail) {
			return "", "", false
		}
	}

	coverLetter, resume = coverBuf.String(), resumeBuf.String()
	if coverLetter == "" {
		coverLetter = ErrTextNoCoverLetter
	}
	if resume == "" {
		resume = ErrTextNoResume
	}
	return coverLetter, resume, true
}

func statusFrame(s models.StatusPayload) models.Frame {
	return models.Frame{Event: models.EventMessage, Data: s}
}

func errorFrame(err error) models.Frame {
	return models.Frame{
		Event: models.EventError,
		Data:  models.ErrorPayload{Error: err.Error(), Kind: models.ErrorKind(err)},
	}
}
