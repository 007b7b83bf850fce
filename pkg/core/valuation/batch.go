package valuation

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"dcf_valuation/pkg/models"
)

// BatchItem is the outcome for one ticker of CalculateAll.
type BatchItem struct {
	Ticker string         `json:"stock"`
	Result *models.Result `json:"result,omitempty"`
	Err    error          `json:"-"`
}

// CalculateAll values every ticker with at most workers concurrent calculations.
// Failures are reported per ticker; a cancelled ctx marks the remaining tickers
// with ctx.Err(). Items come back sorted by ticker.
func CalculateAll(ctx context.Context, store Store, tickers []string, a models.Assumptions, workers int) []BatchItem {
	if workers < 1 {
		workers = 1
	}
	p := pool.NewWithResults[BatchItem]().WithMaxGoroutines(workers)
	for _, ticker := range tickers {
		ticker := ticker
		p.Go(func() BatchItem {
			if err := ctx.Err(); err != nil {
				return BatchItem{Ticker: ticker, Err: err}
			}
			res, err := Calculate(store, ticker, a)
			return BatchItem{Ticker: ticker, Result: res, Err: err}
		})
	}
	items := p.Wait()
	sort.Slice(items, func(i, j int) bool { return items[i].Ticker < items[j].Ticker })
	return items
}
