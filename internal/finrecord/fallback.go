package finrecord

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/quantrail/finsight/internal/models"
)

// amountRe matches a dollar amount with an optional magnitude unit, e.g.
// "$734.2 million", "1,234.5M", "$2.1 billion".
var amountRe = regexp.MustCompile(`(?i)\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(billion|million|bn|mn|b|m)?\b`)

// percentRe matches a percentage figure, e.g. "12.5%".
var percentRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*%`)

// metricWindow is how far past a keyword the fallback scans for a figure.
const metricWindow = 80

type metricPattern struct {
	keywords []string
	negative bool
	percent  bool
	assign   func(*models.FinancialMetrics, float64)
}

// Order matters: more specific keywords come before generic ones so "total
// revenue" wins over "revenue" and "net loss" carries its sign.
var metricPatterns = []metricPattern{
	{keywords: []string{"total revenue", "net revenue", "net sales", "revenue"},
		assign: func(m *models.FinancialMetrics, v float64) { m.Revenue = &v }},
	{keywords: []string{"net loss"}, negative: true,
		assign: func(m *models.FinancialMetrics, v float64) { m.NetIncome = &v }},
	{keywords: []string{"net income", "net earnings"},
		assign: func(m *models.FinancialMetrics, v float64) { m.NetIncome = &v }},
	{keywords: []string{"gross profit"},
		assign: func(m *models.FinancialMetrics, v float64) { m.GrossProfit = &v }},
	{keywords: []string{"operating loss", "loss from operations"}, negative: true,
		assign: func(m *models.FinancialMetrics, v float64) { m.OperatingIncome = &v }},
	{keywords: []string{"operating income", "income from operations", "operating profit"},
		assign: func(m *models.FinancialMetrics, v float64) { m.OperatingIncome = &v }},
	{keywords: []string{"diluted eps", "earnings per share", "eps"},
		assign: func(m *models.FinancialMetrics, v float64) { m.EPS = &v }},
	{keywords: []string{"gross margin"}, percent: true,
		assign: func(m *models.FinancialMetrics, v float64) { m.GrossMargin = &v }},
	{keywords: []string{"operating margin"}, percent: true,
		assign: func(m *models.FinancialMetrics, v float64) { m.OperatingMargin = &v }},
	{keywords: []string{"net margin", "profit margin"}, percent: true,
		assign: func(m *models.FinancialMetrics, v float64) { m.NetMargin = &v }},
	{keywords: []string{"free cash flow"},
		assign: func(m *models.FinancialMetrics, v float64) { m.FreeCashFlow = &v }},
	{keywords: []string{"operating cash flow", "cash from operations", "cash flow from operations"},
		assign: func(m *models.FinancialMetrics, v float64) { m.OperatingCashFlow = &v }},
	{keywords: []string{"total assets"},
		assign: func(m *models.FinancialMetrics, v float64) { m.TotalAssets = &v }},
	{keywords: []string{"total liabilities"},
		assign: func(m *models.FinancialMetrics, v float64) { m.TotalLiabilities = &v }},
	{keywords: []string{"cash and cash equivalents", "cash and equivalents"},
		assign: func(m *models.FinancialMetrics, v float64) { m.CashAndEquivalents = &v }},
}

// FallbackExtract builds a record from keyword and regex heuristics alone.
// It is deliberately conservative: a value is only set when a figure appears
// close after a recognized keyword.
func FallbackExtract(text string) *models.FinancialRecord {
	rec := &models.FinancialRecord{}
	lower := strings.ToLower(text)

	claimed := make([]bool, len(lower))
	for _, p := range metricPatterns {
		for _, kw := range p.keywords {
			idx := indexUnclaimed(lower, kw, claimed)
			if idx < 0 {
				continue
			}
			end := idx + len(kw) + metricWindow
			if end > len(text) {
				end = len(text)
			}
			window := text[idx+len(kw) : end]

			var value float64
			var ok bool
			if p.percent {
				value, ok = parsePercent(window)
			} else {
				value, ok = parseAmount(window)
			}
			if !ok {
				continue
			}
			if p.negative {
				value = -value
			}
			p.assign(&rec.FinancialMetrics, value)
			for i := idx; i < idx+len(kw); i++ {
				claimed[i] = true
			}
			break
		}
	}

	if growth, ok := extractRevenueGrowth(lower); ok {
		rec.GrowthMetrics.RevenueGrowth = &growth
	}

	rec.CompanyInfo.CompanyName = extractCompanyName(text)
	rec.ReportInfo = extractReportInfo(text)
	return rec
}

// indexUnclaimed finds the first whole-word occurrence of kw whose start
// position has not been consumed by an earlier, more specific keyword
// ("revenue" must not rematch inside an already claimed "total revenue",
// and "eps" must not match inside "steps").
func indexUnclaimed(lower, kw string, claimed []bool) int {
	from := 0
	for {
		rel := strings.Index(lower[from:], kw)
		if rel < 0 {
			return -1
		}
		idx := from + rel
		if !claimed[idx] && wordBoundary(lower, idx, idx+len(kw)) {
			return idx
		}
		from = idx + 1
	}
}

func wordBoundary(s string, start, end int) bool {
	if start > 0 && isLetter(s[start-1]) {
		return false
	}
	if end < len(s) && isLetter(s[end]) {
		return false
	}
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parseAmount extracts the first monetary figure in the window, normalizing
// million/billion suffixes to base units. Matches carrying a currency sign or
// a magnitude unit win over bare numbers, so "grew 12% to $734.2 million"
// yields 734.2 million rather than 12. Percentages never match.
func parseAmount(window string) (float64, bool) {
	var fallbackVal float64
	haveFallback := false
	for _, loc := range amountRe.FindAllStringSubmatchIndex(window, -1) {
		full := window[loc[0]:loc[1]]
		number := window[loc[2]:loc[3]]
		unit := ""
		if loc[4] >= 0 {
			unit = strings.ToLower(window[loc[4]:loc[5]])
		}
		if rest := strings.TrimLeft(window[loc[1]:], " "); strings.HasPrefix(rest, "%") {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
		if err != nil {
			continue
		}
		switch unit {
		case "billion", "bn", "b":
			return v * 1e9, true
		case "million", "mn", "m":
			return v * 1e6, true
		}
		if strings.HasPrefix(strings.TrimSpace(full), "$") {
			return v, true
		}
		if !haveFallback {
			fallbackVal = v
			haveFallback = true
		}
	}
	return fallbackVal, haveFallback
}

func parsePercent(window string) (float64, bool) {
	m := percentRe.FindStringSubmatch(window)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var revenueGrowthRe = regexp.MustCompile(`revenue[^\n]{0,80}?(?:grew|increased|rose|up|growth of)\s+(?:by\s+)?([0-9]+(?:\.[0-9]+)?)\s*%`)

func extractRevenueGrowth(lower string) (float64, bool) {
	m := revenueGrowthRe.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var (
	companyLabelRe  = regexp.MustCompile(`(?mi)^\s*Company(?: Name)?:\s*(.+?)\s*$`)
	companySuffixRe = regexp.MustCompile(`([A-Z][A-Za-z0-9&.\-]*(?:\s+[A-Z][A-Za-z0-9&.\-]*)*),?\s+(Inc|Corp|Corporation|Company|Ltd|LLC|PLC|Holdings|Group)\.?(?:\s|,|$)`)
	companyTitleRe  = regexp.MustCompile(`([A-Z][A-Za-z0-9&.\-]*(?:\s+[A-Z][A-Za-z0-9&.\-]*)+)\s+(?:Reports|Announces|Financial|Earnings|Quarterly|Annual|Q[1-4])`)
)

// extractCompanyName tries an explicit label, then a corporate-suffix pattern,
// then a capitalized phrase leading an earnings headline.
func extractCompanyName(text string) string {
	if m := companyLabelRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := companySuffixRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1] + " " + m[2])
	}
	if m := companyTitleRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

var (
	quarterRe    = regexp.MustCompile(`(?i)\b(?:Q([1-4])|(first|second|third|fourth)\s+quarter)(?:\s+(?:of\s+)?(?:FY\s*)?(20[0-9]{2}))?`)
	fiscalYearRe = regexp.MustCompile(`(?i)\b(?:fiscal(?:\s+year)?|FY|full\s+year)\s*(20[0-9]{2})\b`)
	bareYearRe   = regexp.MustCompile(`\b(20[0-9]{2})\b`)
)

var wordQuarters = map[string]int{"first": 1, "second": 2, "third": 3, "fourth": 4}

func extractReportInfo(text string) models.ReportInfo {
	info := models.ReportInfo{ReportType: detectReportType(text)}

	if m := quarterRe.FindStringSubmatch(text); m != nil {
		if m[1] != "" {
			info.Quarter, _ = strconv.Atoi(m[1])
		} else {
			info.Quarter = wordQuarters[strings.ToLower(m[2])]
		}
		if m[3] != "" {
			info.FiscalYear, _ = strconv.Atoi(m[3])
		}
	}
	if info.FiscalYear == 0 {
		if m := fiscalYearRe.FindStringSubmatch(text); m != nil {
			info.FiscalYear, _ = strconv.Atoi(m[1])
		} else if m := bareYearRe.FindStringSubmatch(text); m != nil {
			info.FiscalYear, _ = strconv.Atoi(m[1])
		}
	}

	switch {
	case info.Quarter > 0 && info.FiscalYear > 0:
		info.FiscalPeriod = "Q" + strconv.Itoa(info.Quarter) + " " + strconv.Itoa(info.FiscalYear)
	case info.Quarter > 0:
		info.FiscalPeriod = "Q" + strconv.Itoa(info.Quarter)
	case info.FiscalYear > 0:
		info.FiscalPeriod = "FY " + strconv.Itoa(info.FiscalYear)
	}
	return info
}

func detectReportType(text string) models.ReportType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "10-k"):
		return models.Report10K
	case strings.Contains(lower, "10-q"):
		return models.Report10Q
	case strings.Contains(lower, "earnings call") || strings.Contains(lower, "conference call"):
		return models.ReportEarnings
	case strings.Contains(lower, "annual report"):
		return models.ReportAnnual
	case strings.Contains(lower, "quarterly report"):
		return models.ReportQuarterly
	case strings.Contains(lower, "earnings"):
		return models.ReportEarnings
	default:
		return models.ReportUnknown
	}
}
