// Package chunkstore persists the chunk tree and serves similarity search.
// Two backends implement the same interface: an in-process store for tests
// and single-node deployments, and a Postgres/pgvector store.
package chunkstore

import (
	"context"
	"fmt"

	"github.com/quantrail/finsight/internal/models"
)

// SearchOptions narrows a similarity search. MinSimilarity should be kept
// low (the adaptive filter downstream does the real cutting); the zero value
// of a filter field means "no filter".
type SearchOptions struct {
	MinSimilarity float64
	MaxResults    int
	Company       string
	ReportType    string
	FiscalYear    int
}

// Store is the persistence port for chunks. Insertion is two-phase: all
// parents of a document first, then all children, so a child's parent
// reference always resolves. A failed parent batch must leave no children
// attempted; a failed child batch leaves the already committed parents in
// place, which is acceptable partial state.
type Store interface {
	InsertParents(ctx context.Context, chunks []*models.Chunk) error
	InsertChildren(ctx context.Context, chunks []*models.Chunk) error
	// Search returns results in descending cosine similarity, with the
	// parent's id and content inlined for child-level hits.
	Search(ctx context.Context, embedding []float32, opts SearchOptions) ([]*models.SearchResult, error)
	// GetChunks resolves chunk ids to chunks, preserving the input order and
	// silently skipping ids that no longer exist.
	GetChunks(ctx context.Context, ids []string) ([]*models.Chunk, error)
	DeleteDocument(ctx context.Context, documentID string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// Partition splits a build-ordered chunk list into the parent and child
// batches, preserving relative order within each.
func Partition(chunks []*models.Chunk) (parents, children []*models.Chunk) {
	for _, c := range chunks {
		if c.IsParent() {
			parents = append(parents, c)
		} else {
			children = append(children, c)
		}
	}
	return parents, children
}

// validateBatch rejects chunks that would corrupt the store regardless of
// backend.
func validateBatch(chunks []*models.Chunk, wantParents bool) error {
	for _, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("chunk without id")
		}
		if c.DocumentID == "" {
			return fmt.Errorf("chunk %s without document id", c.ID)
		}
		if wantParents && !c.IsParent() {
			return fmt.Errorf("chunk %s has a parent reference, belongs in the child batch", c.ID)
		}
		if !wantParents && c.IsParent() {
			return fmt.Errorf("chunk %s has no parent reference, belongs in the parent batch", c.ID)
		}
	}
	return nil
}
