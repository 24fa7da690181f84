package services

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

var (
	coverLetterKeys = []string{coverLetterKey, "cover_letter_chunk"}
	resumeKeys      = []string{resumeKey, "resume_chunk"}
	fencePrefixes   = [][]byte{[]byte("```json"), []byte("```")}
)

// jsonAccumulator buffers streamed model output until complete JSON values can
// be decoded from it. Incomplete input stays pending for the next fragment.
//
// Each fragment is scanned once for object boundaries; the decoder only runs
// when a top-level object has closed.
type jsonAccumulator struct {
	pending []byte
	scanned int // bytes of pending already seen by scan
	depth   int
	inStr   bool
	escaped bool
	closed  int // top-level objects closed but not yet decoded
}

// feed appends a fragment and returns a partial for every complete object
// carrying at least one recognised key.
func (a *jsonAccumulator) feed(fragment string) []models.PartialPayload {
	a.pending = append(a.pending, fragment...)
	a.scan()

	var out []models.PartialPayload
	for a.closed > 0 {
		work := trimFence(a.pending)
		if len(work) == 0 || work[0] != '{' {
			// Empty, or prose the flush will hand back as a tail.
			return out
		}
		dec := json.NewDecoder(bytes.NewReader(work))
		var v any
		if err := dec.Decode(&v); err != nil {
			// Malformed; wait for more input.
			return out
		}
		a.pending = append([]byte(nil), work[dec.InputOffset():]...)
		a.scanned = len(a.pending)
		a.closed--
		if part, ok := partialFromValue(v); ok {
			out = append(out, part)
		}
	}
	return out
}

// scan tracks brace depth outside string literals over the unseen bytes.
func (a *jsonAccumulator) scan() {
	for _, c := range a.pending[a.scanned:] {
		switch {
		case a.escaped:
			a.escaped = false
		case a.inStr:
			switch c {
			case '\\':
				a.escaped = true
			case '"':
				a.inStr = false
			}
		case c == '"':
			a.inStr = true
		case c == '{':
			a.depth++
		case c == '}' && a.depth > 0:
			a.depth--
			if a.depth == 0 {
				a.closed++
			}
		}
	}
	a.scanned = len(a.pending)
}

// flush returns whatever never decoded as JSON as a cover-letter chunk.
func (a *jsonAccumulator) flush() (models.PartialPayload, bool) {
	tail := strings.TrimSpace(string(trimFence(a.pending)))
	tail = strings.TrimSpace(strings.TrimSuffix(tail, "```"))
	*a = jsonAccumulator{}
	if tail == "" {
		return models.PartialPayload{}, false
	}
	return models.PartialPayload{CoverLetterChunk: tail}, true
}

func trimFence(b []byte) []byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	for _, f := range fencePrefixes {
		if bytes.HasPrefix(b, f) {
			return bytes.TrimLeft(b[len(f):], " \t\r\n")
		}
	}
	return b
}

func partialFromValue(v any) (models.PartialPayload, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return models.PartialPayload{}, false
	}
	part := models.PartialPayload{
		CoverLetterChunk: firstString(m, coverLetterKeys),
		ResumeChunk:      firstString(m, resumeKeys),
	}
	return part, part.CoverLetterChunk != "" || part.ResumeChunk != ""
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
