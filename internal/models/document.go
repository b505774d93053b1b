// Package models defines core data structures for documents, chunks, financial
// records, and search.
package models

import "time"

// ProcessingStatus tracks a document's ingestion lifecycle.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Document represents an ingested financial document with metadata.
// Content is the extracted plain text; chunks are stored separately.
type Document struct {
	ID           string                 `json:"id" db:"id"`
	Title        string                 `json:"title" db:"title"`
	Content      string                 `json:"content" db:"content"`
	CompanyName  string                 `json:"company_name,omitempty" db:"company_name"`
	FiscalPeriod string                 `json:"fiscal_period,omitempty" db:"fiscal_period"`
	Status       ProcessingStatus       `json:"status" db:"status"`
	StatusError  string                 `json:"status_error,omitempty" db:"status_error"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at" db:"updated_at"`
}

// DocumentInput is the input for processing a document.
type DocumentInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
