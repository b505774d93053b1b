package chunkstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/quantrail/finsight/internal/models"
)

// PostgresStore persists chunks in Postgres with pgvector embeddings.
// Similarity search runs server-side with the cosine distance operator.
type PostgresStore struct {
	pool *pgxpool.Pool
	dims int
}

// NewPostgresStore connects, verifies the connection and ensures the schema.
// dims fixes the vector column dimension and must match the embedder.
func NewPostgresStore(ctx context.Context, dsn string, dims int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool, dims: dims}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		parent_id TEXT REFERENCES chunks(id) ON DELETE CASCADE,
		level INT NOT NULL,
		chunk_order INT NOT NULL,
		type TEXT NOT NULL,
		title TEXT,
		content TEXT NOT NULL,
		token_count INT NOT NULL DEFAULT 0,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		metadata JSONB NOT NULL DEFAULT '{}',
		embedding vector(%d),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_parent_id ON chunks(parent_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_company ON chunks((metadata->>'company_name'));
	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
	`, s.dims)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure chunk schema: %w", err)
	}
	return nil
}

// InsertParents writes the parent batch in one transaction.
func (s *PostgresStore) InsertParents(ctx context.Context, chunks []*models.Chunk) error {
	if err := validateBatch(chunks, true); err != nil {
		return fmt.Errorf("parent batch rejected: %w", err)
	}
	if err := s.insertBatch(ctx, chunks); err != nil {
		return fmt.Errorf("insert parent chunks: %w", err)
	}
	return nil
}

// InsertChildren writes the child batch in one transaction. The parent_id
// foreign key enforces that every referenced parent is already committed.
func (s *PostgresStore) InsertChildren(ctx context.Context, chunks []*models.Chunk) error {
	if err := validateBatch(chunks, false); err != nil {
		return fmt.Errorf("child batch rejected: %w", err)
	}
	if err := s.insertBatch(ctx, chunks); err != nil {
		return fmt.Errorf("insert child chunks: %w", err)
	}
	return nil
}

func (s *PostgresStore) insertBatch(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for chunk %s: %w", c.ID, err)
		}
		var parentID *string
		if c.ParentID != "" {
			parentID = &c.ParentID
		}
		batch.Queue(`
			INSERT INTO chunks
				(id, document_id, parent_id, level, chunk_order, type, title, content, token_count, confidence, metadata, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			c.ID, c.DocumentID, parentID, int(c.Level), c.Order, string(c.Type),
			c.Title, c.Content, c.TokenCount, c.Confidence, meta,
			pgvector.NewVector(c.Embedding),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Search runs cosine similarity server-side, joining each child hit to its
// parent for context inlining.
func (s *PostgresStore) Search(ctx context.Context, embedding []float32, opts SearchOptions) ([]*models.SearchResult, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}

	query := `
		SELECT c.id, c.document_id, c.type, c.title, c.content, c.metadata,
		       COALESCE(c.parent_id, ''), COALESCE(p.content, ''),
		       1 - (c.embedding <=> $1) AS similarity
		FROM chunks c
		LEFT JOIN chunks p ON c.parent_id = p.id
		WHERE c.embedding IS NOT NULL
		  AND 1 - (c.embedding <=> $1) >= $2`
	args := []any{pgvector.NewVector(embedding), opts.MinSimilarity}

	if opts.Company != "" {
		args = append(args, opts.Company)
		query += fmt.Sprintf(" AND c.metadata->>'company_name' = $%d", len(args))
	}
	if opts.ReportType != "" {
		args = append(args, opts.ReportType)
		query += fmt.Sprintf(" AND c.metadata->>'report_type' = $%d", len(args))
	}
	if opts.FiscalYear != 0 {
		args = append(args, opts.FiscalYear)
		query += fmt.Sprintf(" AND (c.metadata->>'fiscal_year')::int = $%d", len(args))
	}

	query += " ORDER BY c.embedding <=> $1"
	if opts.MaxResults > 0 {
		args = append(args, opts.MaxResults)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var results []*models.SearchResult
	for rows.Next() {
		var (
			r    models.SearchResult
			typ  string
			meta []byte
		)
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &typ, &r.Title, &r.Content,
			&meta, &r.ParentID, &r.ParentContent, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		r.Type = models.ChunkType(typ)
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for chunk %s: %w", r.ChunkID, err)
		}
		r.Rank = len(results) + 1
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

// GetChunks resolves ids to chunks in input order, skipping unknown ids.
func (s *PostgresStore) GetChunks(ctx context.Context, ids []string) ([]*models.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, COALESCE(parent_id, ''), level, chunk_order,
		       type, title, content, token_count, confidence, metadata, created_at
		FROM chunks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.Chunk, len(ids))
	for rows.Next() {
		var (
			c     models.Chunk
			level int
			typ   string
			meta  []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ParentID, &level, &c.Order,
			&typ, &c.Title, &c.Content, &c.TokenCount, &c.Confidence, &meta, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		c.Level = models.ChunkLevel(level)
		c.Type = models.ChunkType(typ)
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for chunk %s: %w", c.ID, err)
		}
		byID[c.ID] = &c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk rows: %w", err)
	}

	chunks := make([]*models.Chunk, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// DeleteDocument removes a document's chunks; children cascade via the
// parent_id foreign key.
func (s *PostgresStore) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM chunks WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("delete chunks for document %s: %w", documentID, err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
