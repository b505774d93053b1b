// Package finrecord extracts a structured financial record from document text,
// via an LLM with a regex/heuristic fallback. Extraction is best effort and
// never fails: on any error the fallback record is returned instead.
package finrecord

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/quantrail/finsight/internal/llm"
	"github.com/quantrail/finsight/internal/models"
	"github.com/quantrail/finsight/pkg/utils"
)

// extractionTemperature keeps the LLM near-deterministic for structured output.
const extractionTemperature = 0.05

// maxPromptChars bounds the document text included in the prompt.
const maxPromptChars = 24000

const extractionPrompt = `You are a financial data extraction model. Extract structured data from the financial document below and return a SINGLE valid JSON object.

RULES:
- Output MUST be valid JSON, starting with '{' and ending with '}'.
- Do NOT include explanations, comments, or markdown.
- Omit any field you cannot determine; never invent values.
- Express absolute amounts in base currency units (e.g. 734200000 for $734.2 million).
- Express margins and growth as percentages (e.g. 12.5 for 12.5%%).

JSON STRUCTURE:
{
  "company_info": {"company_name": "", "ticker": "", "sector": "", "industry": "", "currency": ""},
  "report_info": {"report_type": "earnings|10k|10q|annual_report|quarterly_report|unknown", "fiscal_period": "", "fiscal_year": 0, "quarter": 0, "reporting_date": ""},
  "financial_metrics": {"revenue": 0, "net_income": 0, "gross_profit": 0, "operating_income": 0, "eps": 0, "gross_margin": 0, "operating_margin": 0, "net_margin": 0, "free_cash_flow": 0, "operating_cash_flow": 0, "total_assets": 0, "total_liabilities": 0, "cash_and_equivalents": 0},
  "growth_metrics": {"revenue_growth": 0, "net_income_growth": 0, "eps_growth": 0},
  "income_statement": {},
  "balance_sheet": {},
  "cash_flow_statement": {},
  "key_highlights": []
}

DOCUMENT:
%s

Return ONLY the JSON object.`

// Extractor produces a FinancialRecord from raw document text.
type Extractor struct {
	client llm.Client
	logger *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets a logger for debug output (LLM failures falling back, etc.).
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an extractor. client may be nil, in which case only the
// heuristic fallback path is used.
func NewExtractor(client llm.Client, opts ...ExtractorOption) *Extractor {
	e := &Extractor{client: client}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns a structured record for the document text. Never returns
// nil: LLM or parse failures fall back to heuristic extraction, and a document
// with nothing extractable yields an empty record. Downstream chunking must
// tolerate missing fields.
func (e *Extractor) Extract(ctx context.Context, text string) *models.FinancialRecord {
	if e.client != nil {
		rec, err := e.extractLLM(ctx, text)
		if err == nil {
			return rec
		}
		if e.logger != nil {
			e.logger.Debug("llm extraction failed, using fallback", zap.Error(err))
		}
	}
	return FallbackExtract(text)
}

func (e *Extractor) extractLLM(ctx context.Context, text string) (*models.FinancialRecord, error) {
	prompt := fmt.Sprintf(extractionPrompt, utils.Truncate(text, maxPromptChars))
	resp, err := e.client.Complete(ctx, prompt, extractionTemperature)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	raw, ok := firstJSONObject(resp)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var rec models.FinancialRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("parse extraction JSON: %w", err)
	}
	return &rec, nil
}

// firstJSONObject returns the first top-level JSON object in s by brace
// matching, skipping braces inside string literals.
func firstJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
