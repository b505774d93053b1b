package embedding

import (
	"context"
	"strings"
	"testing"

	"github.com/quantrail/finsight/internal/models"
)

func TestBuildChunkText(t *testing.T) {
	c := &models.Chunk{
		Content: "Revenue grew 12% year over year.",
		Title:   "Q3 Results",
		Metadata: models.ChunkMetadata{
			CompanyName:  "Acme Corp",
			ReportType:   "earnings",
			FiscalPeriod: "Q3 2024",
			Metrics:      []string{"revenue", "eps"},
		},
	}
	got := BuildChunkText(c)
	want := "Revenue grew 12% year over year. | Company: Acme Corp | Report Type: earnings | Period: Q3 2024 | Metrics: revenue, eps | Section: Q3 Results"
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestBuildChunkText_missingFieldsOmitted(t *testing.T) {
	c := &models.Chunk{Content: "Some narrative text."}
	got := BuildChunkText(c)
	if got != "Some narrative text." {
		t.Errorf("bare chunk should embed content only, got %q", got)
	}
	if strings.Contains(got, "|") {
		t.Error("no tags should be appended for empty metadata")
	}
}

func TestMockEmbedder_deterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	a, err := e.Embed(context.Background(), "net income")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(context.Background(), "net income")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 64 {
		t.Fatalf("dimension = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should embed identically")
		}
	}
	var norm float64
	for _, v := range a {
		norm += float64(v * v)
	}
	if norm < 0.99 || norm > 1.01 {
		t.Errorf("embedding should be unit-normalized, norm^2 = %f", norm)
	}
}
