package models

import "fmt"

// DocumentContext scopes a search to a known document, letting the query
// rewriter anchor short queries with company and period.
type DocumentContext struct {
	DocumentID   string `json:"document_id,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
	FiscalPeriod string `json:"fiscal_period,omitempty"`
}

// SearchQuery represents a retrieval request with optional filters.
type SearchQuery struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
	// Strictness controls the statistical cutoff of the adaptive filter:
	// 0 is lenient, 1 is strict. Nil skips the statistical stage entirely.
	Strictness *float64 `json:"strictness,omitempty"`
	// Metadata filters applied server-side before similarity ranking.
	Company    string `json:"company,omitempty"`
	ReportType string `json:"report_type,omitempty"`
	FiscalYear int    `json:"fiscal_year,omitempty"`
	Context    *DocumentContext `json:"context,omitempty"`
}

// Validate ensures the query has valid fields and sets defaults.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.MaxResults <= 0 {
		q.MaxResults = 5
	}
	if q.MaxResults > 50 {
		q.MaxResults = 50
	}
	if q.Strictness != nil && (*q.Strictness < 0 || *q.Strictness > 1) {
		return fmt.Errorf("strictness must be in [0,1], got %f", *q.Strictness)
	}
	return nil
}
