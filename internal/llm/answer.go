package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantrail/finsight/internal/models"
)

const answerTemperature = 0.2

// maxContextChars bounds the context block so the prompt stays within typical
// completion windows.
const maxContextChars = 20000

// Synthesizer turns retrieval results into a grounded natural-language answer.
type Synthesizer struct {
	client Client
}

// NewSynthesizer creates a synthesizer backed by the given completion client.
func NewSynthesizer(client Client) *Synthesizer {
	return &Synthesizer{client: client}
}

// Answer builds a context block from the results (parent content preferred,
// since it carries the surrounding discussion) and asks the completion client.
// An empty result list yields a fixed "no information" style prompt so the
// model does not hallucinate figures.
func (s *Synthesizer) Answer(ctx context.Context, question string, results []*models.SearchResult) (string, error) {
	contextBlock := BuildContext(results)
	if contextBlock == "" {
		contextBlock = "empty"
	}

	prompt := fmt.Sprintf(`Answer the question using only the context below, which is drawn from financial filings and earnings reports. Quote figures exactly as they appear. If the context is empty or does not contain the answer, reply "No information available for this question."

Context:
%s

Question:
%s

Answer:`, contextBlock, question)

	answer, err := s.client.Complete(ctx, prompt, answerTemperature)
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// BuildContext concatenates result content into a single context block.
// Parent content is used when available so the model sees the chunk's
// surroundings; duplicates (two children of one parent) are collapsed.
func BuildContext(results []*models.SearchResult) string {
	var b strings.Builder
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		text := r.Content
		key := r.ChunkID
		if r.ParentContent != "" {
			text = r.ParentContent
			key = r.ParentID
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if b.Len()+len(text) > maxContextChars {
			break
		}
		if r.Title != "" {
			b.WriteString("## " + r.Title + "\n")
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
