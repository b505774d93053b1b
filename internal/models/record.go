package models

// ReportType classifies a financial document.
type ReportType string

const (
	ReportEarnings  ReportType = "earnings"
	Report10K       ReportType = "10k"
	Report10Q       ReportType = "10q"
	ReportAnnual    ReportType = "annual_report"
	ReportQuarterly ReportType = "quarterly_report"
	ReportUnknown   ReportType = "unknown"
)

// CompanyInfo identifies the reporting company.
type CompanyInfo struct {
	CompanyName string `json:"company_name,omitempty"`
	Ticker      string `json:"ticker,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

// ReportInfo identifies the reporting period.
type ReportInfo struct {
	ReportType    ReportType `json:"report_type,omitempty"`
	FiscalPeriod  string     `json:"fiscal_period,omitempty"`
	FiscalYear    int        `json:"fiscal_year,omitempty"`
	Quarter       int        `json:"quarter,omitempty"`
	ReportingDate string     `json:"reporting_date,omitempty"`
}

// FinancialMetrics holds named numeric metrics. Every field is a pointer:
// nil means the value could not be extracted. Absolute figures are in the
// report currency's base unit (e.g. 734200000, not 734.2).
type FinancialMetrics struct {
	Revenue           *float64 `json:"revenue,omitempty"`
	NetIncome         *float64 `json:"net_income,omitempty"`
	GrossProfit       *float64 `json:"gross_profit,omitempty"`
	OperatingIncome   *float64 `json:"operating_income,omitempty"`
	EPS               *float64 `json:"eps,omitempty"`
	GrossMargin       *float64 `json:"gross_margin,omitempty"`
	OperatingMargin   *float64 `json:"operating_margin,omitempty"`
	NetMargin         *float64 `json:"net_margin,omitempty"`
	FreeCashFlow      *float64 `json:"free_cash_flow,omitempty"`
	OperatingCashFlow *float64 `json:"operating_cash_flow,omitempty"`
	TotalAssets       *float64 `json:"total_assets,omitempty"`
	TotalLiabilities  *float64 `json:"total_liabilities,omitempty"`
	CashAndEquivalents *float64 `json:"cash_and_equivalents,omitempty"`
}

// GrowthMetrics holds year-over-year percentage deltas.
type GrowthMetrics struct {
	RevenueGrowth   *float64 `json:"revenue_growth,omitempty"`
	NetIncomeGrowth *float64 `json:"net_income_growth,omitempty"`
	EPSGrowth       *float64 `json:"eps_growth,omitempty"`
}

// FinancialRecord is the normalized representation of a financial document's
// key facts, produced once per document by the extractor and consumed by the
// chunk builder. It is transient: only derived chunks are persisted.
// Every field is optional; downstream consumers must tolerate absence.
type FinancialRecord struct {
	CompanyInfo       CompanyInfo        `json:"company_info"`
	ReportInfo        ReportInfo         `json:"report_info"`
	FinancialMetrics  FinancialMetrics   `json:"financial_metrics"`
	GrowthMetrics     GrowthMetrics      `json:"growth_metrics"`
	IncomeStatement   map[string]float64 `json:"income_statement,omitempty"`
	BalanceSheet      map[string]float64 `json:"balance_sheet,omitempty"`
	CashFlowStatement map[string]float64 `json:"cash_flow_statement,omitempty"`
	KeyHighlights     []string           `json:"key_highlights,omitempty"`
}

// MetricNames returns the names of metrics present on the record, used to tag
// chunks with the metrics they cover.
func (m *FinancialMetrics) MetricNames() []string {
	var names []string
	add := func(name string, v *float64) {
		if v != nil {
			names = append(names, name)
		}
	}
	add("revenue", m.Revenue)
	add("net_income", m.NetIncome)
	add("gross_profit", m.GrossProfit)
	add("operating_income", m.OperatingIncome)
	add("eps", m.EPS)
	add("gross_margin", m.GrossMargin)
	add("operating_margin", m.OperatingMargin)
	add("net_margin", m.NetMargin)
	add("free_cash_flow", m.FreeCashFlow)
	add("operating_cash_flow", m.OperatingCashFlow)
	add("total_assets", m.TotalAssets)
	add("total_liabilities", m.TotalLiabilities)
	add("cash_and_equivalents", m.CashAndEquivalents)
	return names
}
