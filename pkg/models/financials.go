// Package models holds the shared data types of the DCF service.
package models

import (
	"fmt"
	"strings"
)

// Metric identifies one of the nine annual line items a ticker must carry.
type Metric int

const (
	Revenue Metric = iota
	EBIT
	DA
	CapEx
	Assets
	Liabilities
	Cash
	Debt
	Shares
)

// NumMetrics is the number of line items in a FinancialRecord.
const NumMetrics = 9

var metricNames = [NumMetrics]string{
	"Revenue", "EBIT", "DA", "CapEx", "Assets", "Liabilities", "Cash", "Debt", "Shares",
}

// AllMetrics lists every metric in column order.
func AllMetrics() []Metric {
	out := make([]Metric, NumMetrics)
	for i := range out {
		out[i] = Metric(i)
	}
	return out
}

func (m Metric) String() string {
	if m < 0 || int(m) >= NumMetrics {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

// ParseMetric maps a column suffix such as "CapEx" to its Metric.
func ParseMetric(name string) (Metric, bool) {
	for i, n := range metricNames {
		if n == name {
			return Metric(i), true
		}
	}
	return 0, false
}

// ColumnName returns the tabular column name for a ticker/metric pair, e.g. "AAPL_Revenue".
func ColumnName(ticker string, m Metric) string {
	return ticker + "_" + m.String()
}

// SplitColumnName is the inverse of ColumnName. The ticker is everything before the
// last underscore, so tickers may themselves contain underscores.
func SplitColumnName(col string) (string, Metric, bool) {
	idx := strings.LastIndex(col, "_")
	if idx <= 0 || idx == len(col)-1 {
		return "", 0, false
	}
	m, ok := ParseMetric(col[idx+1:])
	if !ok {
		return "", 0, false
	}
	return col[:idx], m, true
}

// Series is an ordered sequence of optional values, oldest period first.
// A nil entry is an unreported period.
type Series []*float64

// Values builds a fully-defined Series.
func Values(vs ...float64) Series {
	s := make(Series, len(vs))
	for i := range vs {
		v := vs[i]
		s[i] = &v
	}
	return s
}

// Defined reports whether index i exists and holds a value.
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && s[i] != nil
}

// At returns the value at i. Callers must check Defined first.
func (s Series) At(i int) float64 {
	return *s[i]
}

// Last returns the most recent defined value.
func (s Series) Last() (float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != nil {
			return *s[i], true
		}
	}
	return 0, false
}

// FinancialRecord is the positionally aligned table of all nine series for one ticker.
type FinancialRecord struct {
	Ticker  string
	Periods int
	series  [NumMetrics]Series
}

// NewFinancialRecord checks that every series has the same length.
func NewFinancialRecord(ticker string, series [NumMetrics]Series) (*FinancialRecord, error) {
	periods := len(series[0])
	for i, s := range series {
		if len(s) != periods {
			return nil, fmt.Errorf("series %s has %d periods, %s has %d",
				Metric(i), len(s), Metric(0), periods)
		}
	}
	return &FinancialRecord{Ticker: ticker, Periods: periods, series: series}, nil
}

// Series returns the series for m.
func (r *FinancialRecord) Series(m Metric) Series {
	return r.series[m]
}

// Assumptions are the per-calculation valuation parameters, as fractions.
type Assumptions struct {
	TaxRate        float64 `json:"tax_rate" yaml:"tax_rate"`
	WACC           float64 `json:"wacc" yaml:"wacc"`
	TerminalGrowth float64 `json:"terminal_growth" yaml:"terminal_growth"`
	Horizon        int     `json:"projection_years" yaml:"projection_years"`
}

// DefaultAssumptions returns 27% tax, 6.9% WACC, 2.5% terminal growth over five years.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		TaxRate:        0.27,
		WACC:           0.069,
		TerminalGrowth: 0.025,
		Horizon:        5,
	}
}

// GrowthRates are average historical growth rates in percent.
type GrowthRates struct {
	Revenue float64 `json:"revenue"`
	EBIT    float64 `json:"ebit"`
	DA      float64 `json:"da"`
	CapEx   float64 `json:"capex"`
}

// Result is the full output of one DCF calculation.
type Result struct {
	Ticker          string  `json:"stock"`
	IntrinsicValue  float64 `json:"intrinsic_value"`
	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`

	PVFCFF          []float64 `json:"pv_fcff"`
	TerminalValue   float64   `json:"terminal_value"`
	PVTerminalValue float64   `json:"pv_terminal_value"`

	FCFFProjections    []float64 `json:"fcff_projections"`
	RevenueProjections []float64 `json:"revenue_projections"`
	EBITProjections    []float64 `json:"ebit_projections"`
	DAProjections      []float64 `json:"da_projections"`
	CapExProjections   []float64 `json:"capex_projections"`
	NOPATProjections   []float64 `json:"nopat_projections"`
	NWCProjections     []float64 `json:"nwc_projections"`
	ChangeInNWC        []float64 `json:"change_in_nwc"`

	AvgNWCToRevenue float64 `json:"avg_nwc_to_revenue"`
	LastNWC         float64 `json:"last_nwc"`

	GrowthRates GrowthRates `json:"growth_rates"`
	Assumptions Assumptions `json:"assumptions"`
}
