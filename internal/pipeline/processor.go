// Package pipeline orchestrates document processing: structured extraction,
// hierarchical chunking, embedding, and two-phase chunk storage.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantrail/finsight/internal/chunker"
	"github.com/quantrail/finsight/internal/chunkstore"
	"github.com/quantrail/finsight/internal/embedding"
	"github.com/quantrail/finsight/internal/finrecord"
	"github.com/quantrail/finsight/internal/keyword"
	"github.com/quantrail/finsight/internal/models"
	"github.com/quantrail/finsight/internal/storage"
)

// DefaultConcurrency bounds concurrent embedding calls per document.
const DefaultConcurrency = 4

// Processor runs the ingestion pipeline for one document at a time per call.
// Calls for different documents may run concurrently; the chunk store provides
// its own concurrency control and writes never cross document boundaries.
type Processor struct {
	storage     storage.Storage
	store       chunkstore.Store
	embedder    embedding.Embedder
	extractor   *finrecord.Extractor
	builder     *chunker.Builder
	keywords    keyword.KeywordIndex // optional
	logger      *zap.Logger
	concurrency int
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithKeywordIndex adds lexical indexing of chunks alongside vector storage.
func WithKeywordIndex(idx keyword.KeywordIndex) ProcessorOption {
	return func(p *Processor) { p.keywords = idx }
}

// WithConcurrency bounds the embedding fan-out per document.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewProcessor creates a processor with the given collaborators.
func NewProcessor(
	st storage.Storage,
	store chunkstore.Store,
	embedder embedding.Embedder,
	extractor *finrecord.Extractor,
	builder *chunker.Builder,
	logger *zap.Logger,
	opts ...ProcessorOption,
) *Processor {
	p := &Processor{
		storage:     st,
		store:       store,
		embedder:    embedder,
		extractor:   extractor,
		builder:     builder,
		logger:      logger,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessDocument runs the full pipeline for a document. On success every
// returned chunk carries an embedding and is persisted, parents before
// children. Embedding and storage failures are fatal and recorded on the
// document's status; extraction failures are not (the heuristic fallback
// always produces a record). Reprocessing an existing document id replaces
// its previous chunks.
func (p *Processor) ProcessDocument(ctx context.Context, input *models.DocumentInput) ([]*models.Chunk, error) {
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	if err := p.replaceDocument(ctx, input); err != nil {
		return nil, err
	}
	if err := p.storage.UpdateStatus(ctx, input.ID, models.StatusProcessing, ""); err != nil {
		return nil, fmt.Errorf("mark document processing: %w", err)
	}

	chunks, err := p.process(ctx, input)
	if err != nil {
		if statusErr := p.storage.UpdateStatus(ctx, input.ID, models.StatusFailed, err.Error()); statusErr != nil {
			p.logger.Error("failed to record failure status", zap.String("doc_id", input.ID), zap.Error(statusErr))
		}
		return nil, err
	}

	if err := p.storage.UpdateStatus(ctx, input.ID, models.StatusCompleted, ""); err != nil {
		return nil, fmt.Errorf("mark document completed: %w", err)
	}
	p.logger.Info("document processed",
		zap.String("doc_id", input.ID),
		zap.Int("chunks", len(chunks)))
	return chunks, nil
}

func (p *Processor) process(ctx context.Context, input *models.DocumentInput) ([]*models.Chunk, error) {
	rec := p.extractor.Extract(ctx, input.Content)

	if rec.CompanyInfo.CompanyName != "" || rec.ReportInfo.FiscalPeriod != "" {
		if doc, err := p.storage.GetDocument(ctx, input.ID); err == nil {
			doc.CompanyName = rec.CompanyInfo.CompanyName
			doc.FiscalPeriod = rec.ReportInfo.FiscalPeriod
			if err := p.storage.UpdateDocument(ctx, doc); err != nil {
				p.logger.Warn("failed to record extracted company/period", zap.Error(err))
			}
		}
	}

	chunks := p.builder.Build(input.ID, input.Content, rec)

	if err := p.embedChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	parents, children := chunkstore.Partition(chunks)
	if err := p.store.InsertParents(ctx, parents); err != nil {
		return nil, fmt.Errorf("insert parents: %w", err)
	}
	if err := p.store.InsertChildren(ctx, children); err != nil {
		// parents stay committed; they still serve standalone retrieval
		return nil, fmt.Errorf("insert children: %w", err)
	}

	if p.keywords != nil {
		if err := p.keywords.IndexBatch(ctx, chunks); err != nil {
			p.logger.Warn("keyword indexing failed", zap.String("doc_id", input.ID), zap.Error(err))
		}
	}
	return chunks, nil
}

// embedChunks fans out embedding calls bounded by the concurrency limit and
// fans in before returning. Any failure cancels the remaining schedule; an
// un-embedded chunk is useless for retrieval, so the first error fails the
// whole document.
func (p *Processor) embedChunks(ctx context.Context, chunks []*models.Chunk) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, p.concurrency)

	for _, c := range chunks {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(c *models.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			vec, err := p.embedder.Embed(ctx, embedding.BuildChunkText(c))
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("chunk %s: %w", c.ID, err)
				}
				mu.Unlock()
				cancel()
				return
			}
			c.Embedding = vec
		}(c)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// replaceDocument deletes any previous state for the id and creates the
// fresh document record in pending state.
func (p *Processor) replaceDocument(ctx context.Context, input *models.DocumentInput) error {
	if _, err := p.storage.GetDocument(ctx, input.ID); err == nil {
		if err := p.DeleteDocument(ctx, input.ID); err != nil {
			return fmt.Errorf("replace existing document: %w", err)
		}
	}
	doc := &models.Document{
		ID:       input.ID,
		Title:    input.Title,
		Content:  input.Content,
		Status:   models.StatusPending,
		Metadata: input.Metadata,
	}
	if err := p.storage.CreateDocument(ctx, doc); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	return nil
}

// DeleteDocument removes a document and its chunks from every index.
func (p *Processor) DeleteDocument(ctx context.Context, id string) error {
	if p.keywords != nil {
		if err := p.keywords.DeleteDocument(ctx, id); err != nil {
			return fmt.Errorf("delete from keyword index: %w", err)
		}
	}
	if err := p.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := p.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
