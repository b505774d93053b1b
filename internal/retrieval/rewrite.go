// Package retrieval implements the query path: rewriting, embedding,
// over-fetching candidates from the chunk store and adaptively filtering them
// down to the caller's result budget.
package retrieval

import (
	"fmt"
	"strings"

	"github.com/quantrail/finsight/internal/models"
)

// DefaultShortQueryLength is the character threshold below which a query is
// treated as under-specified.
const DefaultShortQueryLength = 20

const genericFrame = "Regarding the uploaded financial documents"

// Rewriter conditions queries with a topical framing prefix before
// embedding. Short queries embed too close to unrelated content without
// company/period anchoring; longer queries get the same prefix so short and
// long queries land in a consistent region of embedding space.
type Rewriter struct {
	shortQueryLength int
}

// NewRewriter creates a rewriter. shortQueryLength <= 0 selects the default.
func NewRewriter(shortQueryLength int) *Rewriter {
	if shortQueryLength <= 0 {
		shortQueryLength = DefaultShortQueryLength
	}
	return &Rewriter{shortQueryLength: shortQueryLength}
}

// Rewrite returns the query to embed. Applied once per incoming query; an
// already framed query is returned unchanged so the prefix never stacks.
func (r *Rewriter) Rewrite(query string, docCtx *models.DocumentContext) string {
	query = strings.TrimSpace(query)
	if query == "" || r.isFramed(query) {
		return query
	}

	frame := genericFrame
	if docCtx != nil && docCtx.CompanyName != "" {
		frame = "About " + docCtx.CompanyName
		if docCtx.FiscalPeriod != "" {
			frame += " " + docCtx.FiscalPeriod
		}
		frame += " filing"
	}

	if len(query) < r.shortQueryLength {
		return fmt.Sprintf("%s, answer this: %s", frame, query)
	}
	return fmt.Sprintf("%s: %s", frame, query)
}

func (r *Rewriter) isFramed(query string) bool {
	return strings.HasPrefix(query, "About ") && strings.Contains(query, " filing") ||
		strings.HasPrefix(query, genericFrame)
}
