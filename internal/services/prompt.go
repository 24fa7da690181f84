package services

import (
	"fmt"
	"strings"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

// ContextSeparator separates retrieved chunks inside the grounding context.
const ContextSeparator = "\n\n---\n\n"

// DefaultWriterDomain is the sector the writer persona specialises in.
const DefaultWriterDomain = "Australian Community Services"

const generationPromptTemplate = `You are an expert career document writer for the %s sector.
Your task is to write a tailored resume summary and a full cover letter for the target job, grounded in examples from the user's own past documents.

**TARGET JOB DESCRIPTION:**
%s

**RELEVANT EXAMPLES FROM THE USER'S PAST DOCUMENTS (FOR CONTEXT AND STYLE):**
%s

**INSTRUCTIONS:**
1. Work out the key requirements of the target job.
2. Reuse the writing style, skills and experience shown in the examples.
3. Do not copy the examples verbatim. Adapt them to the target role.
4. Do not include placeholders such as [Your Name] or [Address].
5. Return a single JSON object with exactly two string keys: "cover_letter_text" and "resume_text". No other text.`

// JoinContext joins retrieved chunk texts in rank order.
func JoinContext(chunks []models.RetrievedChunk) string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, ContextSeparator)
}

// BuildPrompt assembles the single generation prompt.
func BuildPrompt(domain, jobDescription, contextText string) string {
	if domain == "" {
		domain = DefaultWriterDomain
	}
	if strings.TrimSpace(contextText) == "" {
		contextText = "(no past documents available)"
	}
	return fmt.Sprintf(generationPromptTemplate, domain, jobDescription, contextText)
}

// ExportTitle is the title of the exported document: the first 40 runes of the
// job description followed by "...".
func ExportTitle(jobDescription string) string {
	const maxRunes = 40
	r := []rune(jobDescription)
	if len(r) > maxRunes {
		r = r[:maxRunes]
	}
	return "Application for " + string(r) + "..."
}
