package retrieval

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/quantrail/finsight/internal/chunkstore"
	"github.com/quantrail/finsight/internal/keyword"
	"github.com/quantrail/finsight/internal/models"
)

// fakeEmbedder returns a fixed vector per known text and a fallback for the
// rest, so similarity ordering is fully controlled by the test.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.fallback) }
func (f *fakeEmbedder) Close() error    { return nil }

type failingStore struct {
	chunkstore.Store
}

func (f *failingStore) Search(ctx context.Context, embedding []float32, opts chunkstore.SearchOptions) ([]*models.SearchResult, error) {
	return nil, fmt.Errorf("store unreachable")
}

func newTestEngine(store chunkstore.Store, embedder *fakeEmbedder) *Engine {
	return NewEngine(store, embedder, NewRewriter(20), NewFilter(0.5), zap.NewNop())
}

func storeChunk(id string, embedding []float32) *models.Chunk {
	return &models.Chunk{
		ID:         id,
		DocumentID: "d1",
		Level:      models.LevelParent,
		Type:       models.ChunkNarrative,
		Content:    "content " + id,
		Embedding:  embedding,
	}
}

func TestEngine_emptyCorpus(t *testing.T) {
	e := newTestEngine(chunkstore.NewMemoryStore(), &fakeEmbedder{fallback: []float32{1, 0}})

	results, _, err := e.Search(context.Background(), &models.SearchQuery{Query: "anything at all here"})
	if err != nil {
		t.Fatalf("empty corpus must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestEngine_failsClosedOnStoreError(t *testing.T) {
	e := newTestEngine(&failingStore{}, &fakeEmbedder{fallback: []float32{1, 0}})

	results, _, err := e.Search(context.Background(), &models.SearchQuery{Query: "what was revenue growth"})
	if err == nil {
		t.Fatal("store failure should surface an error for observability")
	}
	if len(results) != 0 {
		t.Errorf("failed search must return an empty list, got %d", len(results))
	}
}

func TestEngine_failsClosedOnEmbedError(t *testing.T) {
	e := newTestEngine(chunkstore.NewMemoryStore(), &fakeEmbedder{err: fmt.Errorf("provider down")})

	results, _, err := e.Search(context.Background(), &models.SearchQuery{Query: "what was revenue growth"})
	if err == nil {
		t.Fatal("embedding failure should surface an error")
	}
	if len(results) != 0 {
		t.Errorf("failed search must return an empty list, got %d", len(results))
	}
}

func TestEngine_rewritesThenRetrieves(t *testing.T) {
	ctx := context.Background()
	store := chunkstore.NewMemoryStore()
	err := store.InsertParents(ctx, []*models.Chunk{
		storeChunk("close", []float32{1, 0}),
		storeChunk("far", []float32{0, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}

	rewrittenWant := "About Acme Corp Q3 2024 filing, answer this: revenue?"
	embedder := &fakeEmbedder{
		vectors:  map[string][]float32{rewrittenWant: {1, 0}},
		fallback: []float32{0.7, 0.7},
	}
	e := newTestEngine(store, embedder)

	q := &models.SearchQuery{
		Query:   "revenue?",
		Context: &models.DocumentContext{CompanyName: "Acme Corp", FiscalPeriod: "Q3 2024"},
	}
	results, rewritten, err := e.Search(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if rewritten != rewrittenWant {
		t.Errorf("rewritten = %q", rewritten)
	}
	if len(results) == 0 || results[0].ChunkID != "close" {
		t.Fatalf("best hit should be the aligned chunk, got %+v", results)
	}
}

// fakeKeywordIndex returns canned hits for any query.
type fakeKeywordIndex struct {
	hits []*keyword.KeywordResult
}

func (f *fakeKeywordIndex) Index(ctx context.Context, chunk *models.Chunk) error        { return nil }
func (f *fakeKeywordIndex) IndexBatch(ctx context.Context, chunks []*models.Chunk) error { return nil }
func (f *fakeKeywordIndex) Search(ctx context.Context, query string, limit int) ([]*keyword.KeywordResult, error) {
	if len(f.hits) > limit {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}
func (f *fakeKeywordIndex) DeleteDocument(ctx context.Context, documentID string) error { return nil }
func (f *fakeKeywordIndex) DocCount() (uint64, error)                                   { return uint64(len(f.hits)), nil }
func (f *fakeKeywordIndex) Close() error                                                { return nil }

func TestEngine_keywordSearch(t *testing.T) {
	ctx := context.Background()
	store := chunkstore.NewMemoryStore()
	err := store.InsertParents(ctx, []*models.Chunk{
		storeChunk("ebitda", []float32{1, 0}),
		storeChunk("margin", []float32{0, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}

	idx := &fakeKeywordIndex{hits: []*keyword.KeywordResult{
		{ChunkID: "ebitda", DocumentID: "d1", Score: 2.4},
		{ChunkID: "gone", DocumentID: "d1", Score: 1.1},
		{ChunkID: "margin", DocumentID: "d1", Score: 0.9},
	}}
	e := NewEngine(store, &fakeEmbedder{fallback: []float32{1, 0}},
		NewRewriter(20), NewFilter(0.5), zap.NewNop(), WithKeywordIndex(idx))

	results, err := e.KeywordSearch(ctx, "EBITDA", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("hits for deleted chunks should be dropped, got %d results", len(results))
	}
	if results[0].ChunkID != "ebitda" || results[0].Similarity != 2.4 {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Rank != 2 {
		t.Errorf("ranks should be sequential, got %d", results[1].Rank)
	}
}

func TestEngine_keywordSearchUnconfigured(t *testing.T) {
	e := newTestEngine(chunkstore.NewMemoryStore(), &fakeEmbedder{fallback: []float32{1, 0}})
	if _, err := e.KeywordSearch(context.Background(), "EBITDA", 5); err == nil {
		t.Error("expected error when no keyword index is configured")
	}
}

func TestEngine_appliesAdaptiveFilterAndBudget(t *testing.T) {
	ctx := context.Background()
	store := chunkstore.NewMemoryStore()
	// one strong match and several weak ones below half its similarity
	chunks := []*models.Chunk{
		storeChunk("strong", []float32{1, 0}),
		storeChunk("weak1", []float32{0.2, 0.98}),
		storeChunk("weak2", []float32{0.1, 0.99}),
	}
	if err := store.InsertParents(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	embedder := &fakeEmbedder{fallback: []float32{1, 0}}
	e := newTestEngine(store, embedder)

	results, _, err := e.Search(ctx, &models.SearchQuery{Query: "how did the quarter go overall", MaxResults: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ChunkID != "strong" {
		t.Errorf("weak candidates should be cut by the relative threshold, got %+v", results)
	}
}
