// Package keyword provides BM25 keyword search over chunks, as a lexical
// complement to vector retrieval (exact tickers, figures and jargon that
// embeddings blur).
package keyword

import (
	"context"

	"github.com/quantrail/finsight/internal/models"
)

// KeywordIndex defines keyword search operations over chunks.
type KeywordIndex interface {
	Index(ctx context.Context, chunk *models.Chunk) error
	IndexBatch(ctx context.Context, chunks []*models.Chunk) error
	Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error)
	// DeleteDocument removes every indexed chunk of a document.
	DeleteDocument(ctx context.Context, documentID string) error
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ChunkID    string
	DocumentID string
	Score      float64
}
