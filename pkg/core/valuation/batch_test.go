package valuation

import (
	"context"
	"testing"

	"dcf_valuation/pkg/core/store"
	"dcf_valuation/pkg/models"
)

func TestCalculateAll(t *testing.T) {
	cols := map[string]models.Series{}
	for _, ticker := range []string{"BBB", "AAA"} {
		for _, m := range models.AllMetrics() {
			cols[models.ColumnName(ticker, m)] = models.Values(100, 110, 121)
		}
	}
	table, _ := store.NewTable(cols)

	items := CalculateAll(context.Background(), table, []string{"BBB", "NOPE", "AAA"}, models.DefaultAssumptions(), 2)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Ticker != "AAA" || items[1].Ticker != "BBB" || items[2].Ticker != "NOPE" {
		t.Errorf("items not sorted: %s %s %s", items[0].Ticker, items[1].Ticker, items[2].Ticker)
	}
	for _, it := range items[:2] {
		if it.Err != nil || it.Result == nil {
			t.Errorf("%s: unexpected failure %v", it.Ticker, it.Err)
		}
	}
	if KindOf(items[2].Err) != KindTickerNotFound {
		t.Errorf("NOPE: expected TickerNotFound, got %v", items[2].Err)
	}
	if items[0].Result.IntrinsicValue != items[1].Result.IntrinsicValue {
		t.Error("identical inputs should value identically")
	}
}

func TestCalculateAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := CalculateAll(ctx, nil, []string{"A", "B"}, models.DefaultAssumptions(), 0)
	for _, it := range items {
		if it.Err != context.Canceled {
			t.Errorf("%s: expected context.Canceled, got %v", it.Ticker, it.Err)
		}
	}
}
