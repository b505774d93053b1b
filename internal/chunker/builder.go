package chunker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/quantrail/finsight/internal/models"
)

// Builder assembles the chunk tree for a document: record-derived summary,
// statement and highlight chunks, plus span-derived parent/child chunks.
type Builder struct {
	coarse  *Splitter
	fine    *Splitter
	counter *TokenCounter
}

// NewBuilder creates a builder with the given parent and child window sizes.
func NewBuilder(parentSize, parentOverlap, childSize, childOverlap int) *Builder {
	return &Builder{
		coarse:  NewCoarseSplitter(parentSize, parentOverlap),
		fine:    NewFineSplitter(childSize, childOverlap),
		counter: NewTokenCounter(),
	}
}

// maxSummaryHighlights caps how many highlights the summary line carries.
const maxSummaryHighlights = 3

// Build returns the ordered chunk list for a document. Parents always precede
// their children in the returned order. Build never fails: an empty record
// still yields the summary chunk, and empty text simply yields no span chunks.
func (b *Builder) Build(docID, text string, rec *models.FinancialRecord) []*models.Chunk {
	if rec == nil {
		rec = &models.FinancialRecord{}
	}
	meta := metadataFrom(rec)

	order := 0
	chunks := b.recordChunks(docID, rec, meta, &order)
	chunks = append(chunks, b.spanChunks(docID, text, meta, &order)...)
	return chunks
}

// recordChunks emits the structured-record view: one executive summary
// parent, one chunk per present financial statement, and one highlight chunk
// per key highlight. Statement and highlight chunks reference the summary.
func (b *Builder) recordChunks(docID string, rec *models.FinancialRecord, meta models.ChunkMetadata, order *int) []*models.Chunk {
	summary := b.newChunk(docID, "", models.LevelParent, models.ChunkExecutiveSummary, order)
	summary.Title = "Executive Summary"
	summary.Content = buildSummaryLine(rec)
	summary.Metadata = meta
	summary.Confidence = confidence(summary.Type, summary.Content)
	summary.TokenCount = b.counter.Count(summary.Content)
	chunks := []*models.Chunk{summary}

	statements := []struct {
		typ   models.ChunkType
		label string
		data  map[string]float64
	}{
		{models.ChunkIncomeStatement, "Income Statement", rec.IncomeStatement},
		{models.ChunkBalanceSheet, "Balance Sheet", rec.BalanceSheet},
		{models.ChunkCashFlow, "Cash Flow Statement", rec.CashFlowStatement},
	}
	for _, st := range statements {
		if len(st.data) == 0 {
			continue
		}
		c := b.newChunk(docID, summary.ID, models.LevelChild, st.typ, order)
		c.Title = st.label
		c.Content = statementLine(st.data)
		c.Metadata = meta
		c.Metadata.FinancialStatements = []string{string(st.typ)}
		c.Confidence = confidence(c.Type, c.Content)
		c.TokenCount = b.counter.Count(c.Content)
		chunks = append(chunks, c)
	}

	if names := rec.FinancialMetrics.MetricNames(); len(names) > 0 {
		c := b.newChunk(docID, summary.ID, models.LevelChild, models.ChunkKeyMetrics, order)
		c.Title = "Key Metrics"
		c.Content = keyMetricsLine(&rec.FinancialMetrics)
		c.Metadata = meta
		c.Metadata.Metrics = names
		c.Confidence = confidence(c.Type, c.Content)
		c.TokenCount = b.counter.Count(c.Content)
		chunks = append(chunks, c)
	}

	for _, h := range rec.KeyHighlights {
		if strings.TrimSpace(h) == "" {
			continue
		}
		c := b.newChunk(docID, summary.ID, models.LevelDetail, models.ChunkHighlight, order)
		c.Title = "Highlight"
		c.Content = strings.TrimSpace(h)
		c.Metadata = meta
		c.Confidence = confidence(c.Type, c.Content)
		c.TokenCount = b.counter.Count(c.Content)
		chunks = append(chunks, c)
	}
	return chunks
}

// spanChunks emits the full-fidelity view: each detected span is split into
// parent windows, each parent into child windows referencing it.
func (b *Builder) spanChunks(docID, text string, meta models.ChunkMetadata, order *int) []*models.Chunk {
	var chunks []*models.Chunk
	for _, span := range DetectSpans(text) {
		for _, parentText := range b.coarse.Split(span.Content) {
			parent := b.newChunk(docID, "", models.LevelParent, span.Type, order)
			parent.Content = parentText
			parent.Title = sectionTitle(parentText, span.Speaker)
			parent.Metadata = meta
			if span.Type == models.ChunkFinancialMetrics {
				parent.Metadata.Metrics = detectMetricTags(parentText)
			}
			parent.Confidence = confidence(span.Type, parentText)
			parent.TokenCount = b.counter.Count(parentText)
			chunks = append(chunks, parent)

			children := b.fine.Split(parentText)
			if len(children) <= 1 {
				continue
			}
			for _, childText := range children {
				child := b.newChunk(docID, parent.ID, models.LevelChild, span.Type, order)
				child.Content = childText
				child.Title = parent.Title
				child.Metadata = parent.Metadata
				child.Confidence = confidence(span.Type, childText)
				child.TokenCount = b.counter.Count(childText)
				chunks = append(chunks, child)
			}
		}
	}
	return chunks
}

func (b *Builder) newChunk(docID, parentID string, level models.ChunkLevel, typ models.ChunkType, order *int) *models.Chunk {
	c := &models.Chunk{
		ID:         uuid.New().String(),
		DocumentID: docID,
		ParentID:   parentID,
		Level:      level,
		Order:      *order,
		Type:       typ,
	}
	*order++
	return c
}

// buildSummaryLine joins the record's headline facts into one pipe-separated
// synopsis, appending only present fields. An empty record yields "".
func buildSummaryLine(rec *models.FinancialRecord) string {
	var fields []string
	add := func(s string) {
		if s != "" {
			fields = append(fields, s)
		}
	}
	addMetric := func(label string, v *float64) {
		if v != nil {
			add(label + ": " + formatAmount(*v))
		}
	}

	add(rec.CompanyInfo.CompanyName)
	add(rec.ReportInfo.FiscalPeriod)
	addMetric("Revenue", rec.FinancialMetrics.Revenue)
	addMetric("Net Income", rec.FinancialMetrics.NetIncome)
	addMetric("Gross Profit", rec.FinancialMetrics.GrossProfit)
	addMetric("Operating Income", rec.FinancialMetrics.OperatingIncome)
	if rec.FinancialMetrics.EPS != nil {
		add(fmt.Sprintf("EPS: $%.2f", *rec.FinancialMetrics.EPS))
	}
	addMetric("Free Cash Flow", rec.FinancialMetrics.FreeCashFlow)
	if rec.GrowthMetrics.RevenueGrowth != nil {
		add(fmt.Sprintf("Revenue Growth: %.1f%%", *rec.GrowthMetrics.RevenueGrowth))
	}
	for i, h := range rec.KeyHighlights {
		if i >= maxSummaryHighlights {
			break
		}
		add(strings.TrimSpace(h))
	}
	return strings.Join(fields, " | ")
}

// statementLine renders a statement map as "label: value" pairs, sorted by
// label for deterministic content.
func statementLine(data map[string]float64) string {
	labels := make([]string, 0, len(data))
	for k := range data {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	fields := make([]string, 0, len(labels))
	for _, k := range labels {
		fields = append(fields, k+": "+formatAmount(data[k]))
	}
	return strings.Join(fields, " | ")
}

func keyMetricsLine(m *models.FinancialMetrics) string {
	var fields []string
	add := func(label string, v *float64, percent bool) {
		if v == nil {
			return
		}
		if percent {
			fields = append(fields, fmt.Sprintf("%s: %.1f%%", label, *v))
		} else {
			fields = append(fields, label+": "+formatAmount(*v))
		}
	}
	add("Revenue", m.Revenue, false)
	add("Net Income", m.NetIncome, false)
	add("Gross Profit", m.GrossProfit, false)
	add("Operating Income", m.OperatingIncome, false)
	if m.EPS != nil {
		fields = append(fields, fmt.Sprintf("EPS: $%.2f", *m.EPS))
	}
	add("Gross Margin", m.GrossMargin, true)
	add("Operating Margin", m.OperatingMargin, true)
	add("Net Margin", m.NetMargin, true)
	add("Free Cash Flow", m.FreeCashFlow, false)
	add("Operating Cash Flow", m.OperatingCashFlow, false)
	add("Total Assets", m.TotalAssets, false)
	add("Total Liabilities", m.TotalLiabilities, false)
	add("Cash and Equivalents", m.CashAndEquivalents, false)
	return strings.Join(fields, " | ")
}

// formatAmount renders a base-unit amount compactly ($2.1B, $734.2M, $1234).
func formatAmount(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%s$%.1fB", sign, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s$%.1fM", sign, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s$%.0f", sign, v)
	default:
		return fmt.Sprintf("%s$%.2f", sign, v)
	}
}

// sectionTitle derives a title from a markdown header line, the speaker, or
// the truncated first sentence.
func sectionTitle(content, speaker string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
	}
	if speaker != "" {
		return speaker
	}
	first := content
	if i := strings.IndexAny(first, ".\n"); i > 0 {
		first = first[:i]
	}
	first = strings.TrimSpace(first)
	if len(first) > 60 {
		first = strings.TrimSpace(first[:60])
	}
	return first
}

// confidence computes the advisory quality score: base 0.5 plus type-specific
// signals plus length bonuses, capped at 1. Never used to drop chunks.
func confidence(typ models.ChunkType, content string) float64 {
	score := 0.5
	switch typ {
	case models.ChunkTranscript:
		if containsSpeaker(content) {
			score += 0.3
		}
		if qaMarkerRe.MatchString(content) {
			score += 0.1
		}
	case models.ChunkFinancialMetrics, models.ChunkKeyMetrics,
		models.ChunkIncomeStatement, models.ChunkBalanceSheet, models.ChunkCashFlow:
		if figureRe.MatchString(content) {
			score += 0.3
		}
		if hasFinancialKeyword(content) {
			score += 0.1
		}
	case models.ChunkTable:
		if wellFormedPipes(content) {
			score += 0.3
		}
	}
	if len(content) > 200 {
		score += 0.1
	}
	if len(content) > 500 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

func containsSpeaker(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if m := speakerRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil && isSpeakerName(m[1]) {
			return true
		}
	}
	return false
}

// wellFormedPipes reports whether every non-blank line has the same 3+ pipe
// field count.
func wellFormedPipes(content string) bool {
	want := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := pipeFieldCount(line)
		if n < 3 {
			return false
		}
		if want == 0 {
			want = n
		} else if n != want {
			return false
		}
	}
	return want > 0
}

// metadataFrom derives the shared chunk metadata from the extracted record.
func metadataFrom(rec *models.FinancialRecord) models.ChunkMetadata {
	return models.ChunkMetadata{
		CompanyName:  rec.CompanyInfo.CompanyName,
		ReportType:   string(rec.ReportInfo.ReportType),
		FiscalPeriod: rec.ReportInfo.FiscalPeriod,
		FiscalYear:   rec.ReportInfo.FiscalYear,
		Quarter:      rec.ReportInfo.Quarter,
	}
}
