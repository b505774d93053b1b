// Package storage defines the persistence interface for document records and
// their processing status. Chunk persistence lives in the chunk store.
package storage

import (
	"context"

	"github.com/quantrail/finsight/internal/models"
)

// Storage defines document persistence operations.
type Storage interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	// UpdateStatus records processing progress; statusErr is stored for
	// failed documents and cleared otherwise.
	UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus, statusErr string) error
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
