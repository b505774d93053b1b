package chunkstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quantrail/finsight/internal/models"
	"github.com/quantrail/finsight/internal/vector"
)

// MemoryStore keeps chunks in process and scans them linearly with cosine
// similarity. It honors the same two-phase insert contract as the Postgres
// backend, so tests exercise the real ordering rules.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []*models.Chunk
	byID   map[string]*models.Chunk
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*models.Chunk)}
}

// InsertParents stores the parent batch. The batch is validated as a whole
// before anything is written.
func (s *MemoryStore) InsertParents(ctx context.Context, chunks []*models.Chunk) error {
	if err := validateBatch(chunks, true); err != nil {
		return fmt.Errorf("parent batch rejected: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(chunks)
	return nil
}

// InsertChildren stores the child batch. Every child must reference an
// already stored parent; a single unresolved reference rejects the whole
// batch with nothing written.
func (s *MemoryStore) InsertChildren(ctx context.Context, chunks []*models.Chunk) error {
	if err := validateBatch(chunks, false); err != nil {
		return fmt.Errorf("child batch rejected: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if _, ok := s.byID[c.ParentID]; !ok {
			return fmt.Errorf("child batch rejected: chunk %s references unknown parent %s", c.ID, c.ParentID)
		}
	}
	s.append(chunks)
	return nil
}

func (s *MemoryStore) append(chunks []*models.Chunk) {
	for _, c := range chunks {
		s.chunks = append(s.chunks, c)
		s.byID[c.ID] = c
	}
}

// Search scans all chunks, scores them with cosine similarity, applies the
// option filters and inlines parent content for child hits.
func (s *MemoryStore) Search(ctx context.Context, embedding []float32, opts SearchOptions) ([]*models.SearchResult, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*models.SearchResult
	for _, c := range s.chunks {
		if len(c.Embedding) == 0 || !matchesFilters(c, opts) {
			continue
		}
		sim := vector.CosineSimilarity(embedding, c.Embedding)
		if sim < opts.MinSimilarity {
			continue
		}
		r := &models.SearchResult{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Similarity: sim,
			Content:    c.Content,
			Title:      c.Title,
			Type:       c.Type,
			Metadata:   c.Metadata,
		}
		if c.ParentID != "" {
			r.ParentID = c.ParentID
			if parent, ok := s.byID[c.ParentID]; ok {
				r.ParentContent = parent.Content
			}
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	for i, r := range results {
		r.Rank = i + 1
	}
	return results, nil
}

func matchesFilters(c *models.Chunk, opts SearchOptions) bool {
	if opts.Company != "" && c.Metadata.CompanyName != opts.Company {
		return false
	}
	if opts.ReportType != "" && c.Metadata.ReportType != opts.ReportType {
		return false
	}
	if opts.FiscalYear != 0 && c.Metadata.FiscalYear != opts.FiscalYear {
		return false
	}
	return true
}

// GetChunks resolves ids to chunks in input order, skipping unknown ids.
func (s *MemoryStore) GetChunks(ctx context.Context, ids []string) ([]*models.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := make([]*models.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.byID[id]; ok {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// DeleteDocument removes all chunks of a document.
func (s *MemoryStore) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			delete(s.byID, c.ID)
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return nil
}

// Count returns the number of stored chunks.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close is a no-op for the in-process store.
func (s *MemoryStore) Close() error { return nil }
