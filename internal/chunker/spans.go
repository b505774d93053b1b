// Package chunker turns document text and an extracted financial record into
// a two-level tree of typed chunks: a structured-record view (summary,
// statements, highlights) plus span-derived parent/child chunks for
// full-fidelity retrieval.
package chunker

import (
	"regexp"
	"strings"

	"github.com/quantrail/finsight/internal/models"
)

// Span is a contiguous run of document lines sharing one detected content
// type. Transcript spans additionally carry the speaker of the turn.
type Span struct {
	Type    models.ChunkType
	Speaker string
	Content string
}

// speakerRe matches a "First Last:", "Operator:" or "Analyst:" turn opener.
var speakerRe = regexp.MustCompile(`^(Operator|Analyst|[A-Z][A-Za-z.'\-]+(?: [A-Z][A-Za-z.'\-]+)+):`)

// figureRe matches a dollar amount or a percentage.
var figureRe = regexp.MustCompile(`\$[0-9][0-9,]*(?:\.[0-9]+)?|\b[0-9]+(?:\.[0-9]+)?\s*%`)

// qaMarkerRe matches question-and-answer session markers in call transcripts.
var qaMarkerRe = regexp.MustCompile(`(?i)\bQ&A\b|^\s*(Question|Answer):`)

var financialKeywords = []string{
	"revenue", "earnings", "profit", "loss", "margin", "income", "ebitda",
	"cash flow", "eps", "guidance", "expenses", "sales", "assets", "liabilities",
}

// DetectSpans scans text line by line and groups lines into typed spans.
// A speaker line always opens a new transcript span (one span per turn);
// other lines continue the current span when the type matches and flush it
// otherwise. Blank lines stay with the current span.
func DetectSpans(text string) []Span {
	var spans []Span
	var cur *Span

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Content) != "" {
			cur.Content = strings.TrimSpace(cur.Content)
			spans = append(spans, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if cur != nil {
				cur.Content += "\n"
			}
			continue
		}

		typ, speaker := classifyLine(trimmed)
		turnStart := typ == models.ChunkTranscript && speaker != ""
		if cur == nil || cur.Type != typ || turnStart {
			flush()
			cur = &Span{Type: typ, Speaker: speaker}
		}
		cur.Content += line + "\n"
	}
	flush()
	return spans
}

// classifyLine types a single non-blank line, returning the speaker for
// transcript turn openers.
func classifyLine(line string) (models.ChunkType, string) {
	if m := speakerRe.FindStringSubmatch(line); m != nil && isSpeakerName(m[1]) {
		return models.ChunkTranscript, m[1]
	}
	if pipeFieldCount(line) >= 3 {
		return models.ChunkTable, ""
	}
	if hasFinancialKeyword(line) && figureRe.MatchString(line) {
		return models.ChunkFinancialMetrics, ""
	}
	return models.ChunkNarrative, ""
}

func pipeFieldCount(line string) int {
	n := 0
	for _, f := range strings.Split(line, "|") {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	if n < 2 || !strings.Contains(line, "|") {
		return 0
	}
	return n
}

// speakerStopwords are label words that make a "First Last:" match a metric
// label ("Net Loss:", "Total Revenue:") rather than a person.
var speakerStopwords = []string{
	"revenue", "income", "loss", "profit", "margin", "earnings", "sales",
	"cash", "flow", "assets", "liabilities", "total", "diluted", "share",
	"eps", "ebitda", "expenses", "equity",
}

func isSpeakerName(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range speakerStopwords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

func hasFinancialKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range financialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// detectMetricTags lists which named metrics a chunk's content mentions, for
// the chunk metadata metric tag list.
var metricTags = []struct {
	tag      string
	keywords []string
}{
	{"revenue", []string{"revenue", "net sales"}},
	{"net_income", []string{"net income", "net loss", "net earnings"}},
	{"gross_profit", []string{"gross profit"}},
	{"operating_income", []string{"operating income", "operating loss"}},
	{"eps", []string{"eps", "earnings per share"}},
	{"gross_margin", []string{"gross margin"}},
	{"operating_margin", []string{"operating margin"}},
	{"free_cash_flow", []string{"free cash flow"}},
	{"operating_cash_flow", []string{"operating cash flow", "cash from operations"}},
}

func detectMetricTags(content string) []string {
	lower := strings.ToLower(content)
	var tags []string
	for _, mt := range metricTags {
		for _, kw := range mt.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, mt.tag)
				break
			}
		}
	}
	return tags
}
