package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quantrail/finsight/internal/chunkstore"
	"github.com/quantrail/finsight/internal/embedding"
	"github.com/quantrail/finsight/internal/keyword"
	"github.com/quantrail/finsight/internal/models"
)

// DefaultOverfetchFactor is how many times the caller's result budget is
// fetched from the store before adaptive filtering.
const DefaultOverfetchFactor = 4

// DefaultMinSimilarity is the deliberately low store-side threshold; the
// adaptive filter does the real cutting, this only avoids truncation at the
// source.
const DefaultMinSimilarity = 0.01

// Engine ties the query path together: rewrite, embed, over-fetch, filter.
type Engine struct {
	store    chunkstore.Store
	embedder embedding.Embedder
	rewriter *Rewriter
	filter   *Filter
	keywords keyword.KeywordIndex
	logger   *zap.Logger

	overfetchFactor int
	minSimilarity   float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOverfetchFactor overrides the candidate over-fetch multiple.
func WithOverfetchFactor(factor int) EngineOption {
	return func(e *Engine) {
		if factor > 0 {
			e.overfetchFactor = factor
		}
	}
}

// WithMinSimilarity overrides the store-side similarity floor.
func WithMinSimilarity(min float64) EngineOption {
	return func(e *Engine) { e.minSimilarity = min }
}

// WithKeywordIndex enables lexical lookups via KeywordSearch.
func WithKeywordIndex(idx keyword.KeywordIndex) EngineOption {
	return func(e *Engine) { e.keywords = idx }
}

// NewEngine creates a retrieval engine.
func NewEngine(store chunkstore.Store, embedder embedding.Embedder, rewriter *Rewriter, filter *Filter, logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		store:           store,
		embedder:        embedder,
		rewriter:        rewriter,
		filter:          filter,
		logger:          logger,
		overfetchFactor: DefaultOverfetchFactor,
		minSimilarity:   DefaultMinSimilarity,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs the full query path. It fails closed: embedding or store
// errors yield an empty result list so a retrieval outage degrades to "no
// context found" instead of crashing the caller. The error is still returned
// so callers can distinguish a failed search from a genuinely empty one.
func (e *Engine) Search(ctx context.Context, q *models.SearchQuery) ([]*models.SearchResult, string, error) {
	if err := q.Validate(); err != nil {
		return nil, "", err
	}

	rewritten := e.rewriter.Rewrite(q.Query, q.Context)

	vec, err := e.embedder.Embed(ctx, rewritten)
	if err != nil {
		e.logger.Error("query embedding failed", zap.Error(err))
		return nil, rewritten, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := e.store.Search(ctx, vec, chunkstore.SearchOptions{
		MinSimilarity: e.minSimilarity,
		MaxResults:    q.MaxResults * e.overfetchFactor,
		Company:       q.Company,
		ReportType:    q.ReportType,
		FiscalYear:    q.FiscalYear,
	})
	if err != nil {
		e.logger.Error("chunk store search failed", zap.Error(err))
		return nil, rewritten, fmt.Errorf("search chunks: %w", err)
	}
	if len(candidates) == 0 {
		return nil, rewritten, nil
	}

	results := e.filter.Apply(candidates, q.Strictness, q.MaxResults)
	e.logger.Debug("search completed",
		zap.String("query", q.Query),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)))
	return results, rewritten, nil
}

// KeywordSearch looks up chunks by exact terms (tickers, metric names,
// reported figures) in the lexical index. The query is used verbatim, with
// no rewriting and no adaptive filtering; Similarity carries the BM25 score,
// which is not comparable to cosine similarities from Search.
func (e *Engine) KeywordSearch(ctx context.Context, query string, limit int) ([]*models.SearchResult, error) {
	if e.keywords == nil {
		return nil, fmt.Errorf("keyword index not configured")
	}
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if limit <= 0 {
		limit = 5
	}

	hits, err := e.keywords.Search(ctx, query, limit)
	if err != nil {
		e.logger.Error("keyword search failed", zap.Error(err))
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	scores := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
		scores[h.ChunkID] = h.Score
	}
	chunks, err := e.store.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve keyword hits: %w", err)
	}

	results := make([]*models.SearchResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, &models.SearchResult{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Similarity: scores[c.ID],
			Content:    c.Content,
			Title:      c.Title,
			Type:       c.Type,
			Metadata:   c.Metadata,
			ParentID:   c.ParentID,
			Rank:       len(results) + 1,
		})
	}
	return results, nil
}
