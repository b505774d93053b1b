package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/quantrail/finsight/internal/models"
)

type fakeClient struct {
	lastPrompt string
	reply      string
	err        error
}

func (f *fakeClient) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

func TestBuildContext_prefersParentAndDeduplicates(t *testing.T) {
	results := []*models.SearchResult{
		{ChunkID: "c1", ParentID: "p1", Content: "child one", ParentContent: "parent block", Title: "Results"},
		{ChunkID: "c2", ParentID: "p1", Content: "child two", ParentContent: "parent block"},
		{ChunkID: "p2", Content: "standalone parent"},
	}
	got := BuildContext(results)
	if strings.Count(got, "parent block") != 1 {
		t.Errorf("siblings of one parent should contribute its content once:\n%s", got)
	}
	if !strings.Contains(got, "standalone parent") {
		t.Errorf("parent-level hit content missing:\n%s", got)
	}
	if !strings.Contains(got, "## Results") {
		t.Errorf("title header missing:\n%s", got)
	}
}

func TestBuildContext_empty(t *testing.T) {
	if got := BuildContext(nil); got != "" {
		t.Errorf("empty results should build empty context, got %q", got)
	}
}

func TestSynthesizer_Answer(t *testing.T) {
	fc := &fakeClient{reply: "  Revenue was $1.2 billion.  "}
	s := NewSynthesizer(fc)
	results := []*models.SearchResult{{ChunkID: "c1", Content: "Revenue: $1.2 billion"}}

	answer, err := s.Answer(context.Background(), "What was revenue?", results)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Revenue was $1.2 billion." {
		t.Errorf("answer = %q", answer)
	}
	if !strings.Contains(fc.lastPrompt, "Revenue: $1.2 billion") {
		t.Error("prompt should contain retrieved context")
	}
	if !strings.Contains(fc.lastPrompt, "What was revenue?") {
		t.Error("prompt should contain the question")
	}
}

func TestSynthesizer_Answer_noResults(t *testing.T) {
	fc := &fakeClient{reply: "No information available for this question."}
	s := NewSynthesizer(fc)
	if _, err := s.Answer(context.Background(), "anything", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fc.lastPrompt, "empty") {
		t.Error("empty retrieval should produce an explicit empty context marker")
	}
}
