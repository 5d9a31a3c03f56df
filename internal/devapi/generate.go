package devapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"inkyspace/internal/models"
)

// Generator writes a markdown thread draft for a prompt. The hosted API
// backs this with a language model; the stand-in ships a template.
type Generator interface {
	Generate(ctx context.Context, prompt, tone string) (string, error)
}

// OutlineGenerator builds a fixed outline around the prompt so local runs
// and tests get stable markdown.
type OutlineGenerator struct{}

func (OutlineGenerator) Generate(_ context.Context, prompt, tone string) (string, error) {
	title := strings.TrimRight(firstLine(prompt), ".!?")
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", capitalize(title))
	fmt.Fprintf(&b, "_Tone: %s_\n\n", tone)
	fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(prompt))
	b.WriteString("## Key points\n\n")
	b.WriteString("- **Context**: why this matters now.\n")
	b.WriteString("- **Detail**: what readers should know.\n")
	b.WriteString("- **Next steps**: where to go from here.\n\n")
	b.WriteString("> Edit this draft before sending it for approval.\n")
	return b.String(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

// generateThreadContent answers with plain markdown, not the envelope.
// Failures still use the envelope.
func (s *Server) generateThreadContent(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateThreadData
	if err := decodeBody(r, &req); err != nil {
		invalidPayload(w)
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		writeFieldErrors(w, http.StatusBadRequest, fieldError{Property: "prompt", Error: "prompt is required"})
		return
	}
	if req.Tone = strings.TrimSpace(req.Tone); req.Tone == "" {
		req.Tone = models.DefaultTone
	}
	md, err := s.generator.Generate(r.Context(), req.Prompt, req.Tone)
	if err != nil {
		s.log.WithError(err).Error("generate thread content")
		writeError(w, http.StatusBadGateway, "failed to generate content")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}
