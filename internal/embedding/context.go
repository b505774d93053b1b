package embedding

import (
	"strings"

	"github.com/quantrail/finsight/internal/models"
)

// BuildChunkText constructs the embedding input for a chunk: the content
// followed by pipe-separated company, report type, period, metric, and
// section tags. A bare child-chunk sentence is often ambiguous without
// company/period framing; embedding the tags alongside the content improves
// retrieval precision on multi-company corpora.
func BuildChunkText(c *models.Chunk) string {
	parts := []string{c.Content}
	if c.Metadata.CompanyName != "" {
		parts = append(parts, "Company: "+c.Metadata.CompanyName)
	}
	if c.Metadata.ReportType != "" {
		parts = append(parts, "Report Type: "+c.Metadata.ReportType)
	}
	if c.Metadata.FiscalPeriod != "" {
		parts = append(parts, "Period: "+c.Metadata.FiscalPeriod)
	}
	if len(c.Metadata.Metrics) > 0 {
		parts = append(parts, "Metrics: "+strings.Join(c.Metadata.Metrics, ", "))
	}
	if c.Title != "" {
		parts = append(parts, "Section: "+c.Title)
	}
	return strings.Join(parts, " | ")
}
