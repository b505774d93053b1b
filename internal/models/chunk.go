package models

import "time"

// ChunkLevel is the depth of a chunk in the two-level hierarchy.
type ChunkLevel int

const (
	// LevelParent is a coarse chunk (~1500 chars) preserving broader context.
	LevelParent ChunkLevel = 1
	// LevelChild is a fine chunk (~400 chars) optimized for precise retrieval,
	// always linked to exactly one parent.
	LevelChild ChunkLevel = 2
	// LevelDetail marks record-derived single-insight chunks (key highlights).
	LevelDetail ChunkLevel = 3
)

// ChunkType describes the content shape of a chunk. The set is open; these are
// the types the builder emits.
type ChunkType string

const (
	ChunkExecutiveSummary ChunkType = "executive_summary"
	ChunkIncomeStatement  ChunkType = "income_statement"
	ChunkBalanceSheet     ChunkType = "balance_sheet"
	ChunkCashFlow         ChunkType = "cash_flow"
	ChunkKeyMetrics       ChunkType = "key_metrics"
	ChunkHighlight        ChunkType = "highlight"
	ChunkTranscript       ChunkType = "transcript"
	ChunkFinancialMetrics ChunkType = "financial_metrics"
	ChunkNarrative        ChunkType = "narrative"
	ChunkTable            ChunkType = "table"
)

// ChunkMetadata carries financial context inherited from the owning document's
// extracted record. All fields are optional; a child's metadata always matches
// its parent's since both derive from the same record.
type ChunkMetadata struct {
	CompanyName         string   `json:"company_name,omitempty"`
	ReportType          string   `json:"report_type,omitempty"`
	FiscalPeriod        string   `json:"fiscal_period,omitempty"`
	FiscalYear          int      `json:"fiscal_year,omitempty"`
	Quarter             int      `json:"quarter,omitempty"`
	Metrics             []string `json:"metrics,omitempty"`
	FinancialStatements []string `json:"financial_statements,omitempty"`
}

// Chunk is a node in the two-level document tree. IDs are generated
// client-side at creation time so children can reference their parent before
// any store round-trip; parents must be inserted before children.
type Chunk struct {
	ID         string        `json:"id" db:"id"`
	DocumentID string        `json:"document_id" db:"document_id"`
	// ParentID is empty for parent chunks and refers to an earlier-created
	// chunk of the same document for child chunks.
	ParentID   string        `json:"parent_id,omitempty" db:"parent_id"`
	Level      ChunkLevel    `json:"level" db:"level"`
	Order      int           `json:"chunk_order" db:"chunk_order"`
	Type       ChunkType     `json:"type" db:"type"`
	Title      string        `json:"title,omitempty" db:"title"`
	Content    string        `json:"content" db:"content"`
	TokenCount int           `json:"token_count" db:"token_count"`
	// Confidence is an advisory quality score in [0,1]; it never drops chunks.
	Confidence float64       `json:"confidence" db:"confidence"`
	Metadata   ChunkMetadata `json:"metadata" db:"metadata"`
	Embedding  []float32     `json:"-" db:"-"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

// IsParent reports whether the chunk is a parent-level chunk.
func (c *Chunk) IsParent() bool {
	return c.ParentID == ""
}
