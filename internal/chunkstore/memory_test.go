package chunkstore

import (
	"context"
	"testing"

	"github.com/quantrail/finsight/internal/models"
)

func parentChunk(id, docID string, embedding []float32) *models.Chunk {
	return &models.Chunk{
		ID:         id,
		DocumentID: docID,
		Level:      models.LevelParent,
		Type:       models.ChunkNarrative,
		Content:    "parent content " + id,
		Embedding:  embedding,
	}
}

func childChunk(id, docID, parentID string, embedding []float32) *models.Chunk {
	return &models.Chunk{
		ID:         id,
		DocumentID: docID,
		ParentID:   parentID,
		Level:      models.LevelChild,
		Type:       models.ChunkNarrative,
		Content:    "child content " + id,
		Embedding:  embedding,
	}
}

func TestMemoryStore_emptyCorpusSearch(t *testing.T) {
	s := NewMemoryStore()
	results, err := s.Search(context.Background(), []float32{1, 0}, SearchOptions{MaxResults: 5})
	if err != nil {
		t.Fatalf("empty corpus search must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestMemoryStore_childBeforeParentRejected(t *testing.T) {
	s := NewMemoryStore()
	err := s.InsertChildren(context.Background(), []*models.Chunk{
		childChunk("c1", "d1", "p-missing", []float32{1, 0}),
	})
	if err == nil {
		t.Fatal("child referencing an unstored parent must be rejected")
	}
	n, _ := s.Count(context.Background())
	if n != 0 {
		t.Errorf("rejected batch must write nothing, count = %d", n)
	}
}

func TestMemoryStore_childInsertFailureLeavesParents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	parents := []*models.Chunk{
		parentChunk("p1", "d1", []float32{1, 0}),
		parentChunk("p2", "d1", []float32{0, 1}),
	}
	if err := s.InsertParents(ctx, parents); err != nil {
		t.Fatal(err)
	}

	children := []*models.Chunk{
		childChunk("c1", "d1", "p1", []float32{1, 0}),
		childChunk("c2", "d1", "p1", []float32{1, 0}),
		childChunk("c3", "d1", "p2", []float32{0, 1}),
		childChunk("c4", "d1", "p2", []float32{0, 1}),
		childChunk("c5", "d1", "p-gone", []float32{0, 1}),
	}
	if err := s.InsertChildren(ctx, children); err == nil {
		t.Fatal("batch with a dangling parent reference must fail")
	}

	results, err := s.Search(ctx, []float32{1, 1}, SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("exactly the 2 parents should remain retrievable, got %d", len(results))
	}
	for _, r := range results {
		if r.ChunkID != "p1" && r.ChunkID != "p2" {
			t.Errorf("unexpected surviving chunk %s", r.ChunkID)
		}
	}
}

func TestMemoryStore_searchInlinesParentContent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p := parentChunk("p1", "d1", []float32{0.1, 0.1})
	if err := s.InsertParents(ctx, []*models.Chunk{p}); err != nil {
		t.Fatal(err)
	}
	c := childChunk("c1", "d1", "p1", []float32{1, 0})
	if err := s.InsertChildren(ctx, []*models.Chunk{c}); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, SearchOptions{MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	r := results[0]
	if r.ChunkID != "c1" {
		t.Fatalf("best hit = %s, want c1", r.ChunkID)
	}
	if r.ParentID != "p1" || r.ParentContent != p.Content {
		t.Errorf("parent not inlined: id=%q content=%q", r.ParentID, r.ParentContent)
	}
}

func TestMemoryStore_searchOrderAndRanks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	err := s.InsertParents(ctx, []*models.Chunk{
		parentChunk("far", "d1", []float32{0, 1}),
		parentChunk("near", "d1", []float32{1, 0}),
		parentChunk("mid", "d1", []float32{1, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"near", "mid", "far"}
	if len(results) != len(want) {
		t.Fatalf("results = %d", len(results))
	}
	for i, r := range results {
		if r.ChunkID != want[i] {
			t.Errorf("rank %d = %s, want %s", i+1, r.ChunkID, want[i])
		}
		if r.Rank != i+1 {
			t.Errorf("rank field = %d, want %d", r.Rank, i+1)
		}
	}
}

func TestMemoryStore_filters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	acme := parentChunk("acme", "d1", []float32{1, 0})
	acme.Metadata = models.ChunkMetadata{CompanyName: "Acme Corp", FiscalYear: 2024}
	globex := parentChunk("globex", "d2", []float32{1, 0})
	globex.Metadata = models.ChunkMetadata{CompanyName: "Globex", FiscalYear: 2023}
	if err := s.InsertParents(ctx, []*models.Chunk{acme, globex}); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, SearchOptions{Company: "Acme Corp"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ChunkID != "acme" {
		t.Errorf("company filter results = %+v", results)
	}

	results, err = s.Search(ctx, []float32{1, 0}, SearchOptions{FiscalYear: 2023})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ChunkID != "globex" {
		t.Errorf("fiscal year filter results = %+v", results)
	}
}

func TestMemoryStore_getChunks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	err := s.InsertParents(ctx, []*models.Chunk{
		parentChunk("p1", "d1", []float32{1, 0}),
		parentChunk("p2", "d1", []float32{0, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := s.GetChunks(ctx, []string{"p2", "missing", "p1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if chunks[0].ID != "p2" || chunks[1].ID != "p1" {
		t.Errorf("input order not preserved: %s, %s", chunks[0].ID, chunks[1].ID)
	}
}

func TestMemoryStore_deleteDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.InsertParents(ctx, []*models.Chunk{
		parentChunk("p1", "d1", []float32{1, 0}),
		parentChunk("p2", "d2", []float32{1, 0}),
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteDocument(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestPartition(t *testing.T) {
	chunks := []*models.Chunk{
		parentChunk("p1", "d1", nil),
		childChunk("c1", "d1", "p1", nil),
		parentChunk("p2", "d1", nil),
		childChunk("c2", "d1", "p2", nil),
	}
	parents, children := Partition(chunks)
	if len(parents) != 2 || len(children) != 2 {
		t.Fatalf("partition = %d parents, %d children", len(parents), len(children))
	}
	if parents[0].ID != "p1" || parents[1].ID != "p2" {
		t.Errorf("parent order not preserved")
	}
	if children[0].ID != "c1" || children[1].ID != "c2" {
		t.Errorf("child order not preserved")
	}
}
