// Package store holds the read-only time-series table the valuation engine reads from.
package store

import (
	"sort"

	"dcf_valuation/pkg/models"
)

type key struct {
	ticker string
	metric models.Metric
}

// Table is an immutable set of metric series keyed by (ticker, metric).
// It is built once at startup and safe for concurrent readers.
type Table struct {
	columns map[key]models.Series
	tickers []string
}

// NewTable builds a Table from "TICKER_Metric" named columns. Columns whose suffix is
// not a known metric are skipped and returned so the caller can report them.
func NewTable(columns map[string]models.Series) (*Table, []string) {
	t := &Table{columns: make(map[key]models.Series, len(columns))}
	var skipped []string
	for name, s := range columns {
		ticker, m, ok := models.SplitColumnName(name)
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		t.columns[key{ticker, m}] = cloneSeries(s)
	}
	for k := range t.columns {
		if k.metric == models.Revenue {
			t.tickers = append(t.tickers, k.ticker)
		}
	}
	sort.Strings(t.tickers)
	sort.Strings(skipped)
	return t, skipped
}

// Lookup returns a copy of the series for ticker and metric.
func (t *Table) Lookup(ticker string, m models.Metric) (models.Series, bool) {
	if t == nil {
		return nil, false
	}
	s, ok := t.columns[key{ticker, m}]
	if !ok {
		return nil, false
	}
	return cloneSeries(s), true
}

// Tickers lists every ticker that has a Revenue column, sorted.
func (t *Table) Tickers() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.tickers))
	copy(out, t.tickers)
	return out
}

// Len is the number of stored columns.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.columns)
}

func cloneSeries(s models.Series) models.Series {
	out := make(models.Series, len(s))
	for i, v := range s {
		if v != nil {
			c := *v
			out[i] = &c
		}
	}
	return out
}
