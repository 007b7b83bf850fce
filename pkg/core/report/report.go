// Package report renders valuation results as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"dcf_valuation/pkg/models"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown formats r as a report with a per-period projection table.
func Markdown(r *models.Result) string {
	var b strings.Builder
	a := r.Assumptions

	fmt.Fprintf(&b, "# %s DCF valuation\n\n", r.Ticker)
	fmt.Fprintf(&b, "**Intrinsic value per share:** %s\n\n", money(r.IntrinsicValue))

	b.WriteString("## Summary\n\n| Item | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Enterprise value | %s |\n", money(r.EnterpriseValue))
	fmt.Fprintf(&b, "| Equity value | %s |\n", money(r.EquityValue))
	fmt.Fprintf(&b, "| PV of terminal value | %s |\n", money(r.PVTerminalValue))
	fmt.Fprintf(&b, "| Terminal value | %s |\n\n", money(r.TerminalValue))

	b.WriteString("## Assumptions\n\n| Parameter | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Tax rate | %s |\n", pct(a.TaxRate*100))
	fmt.Fprintf(&b, "| WACC | %s |\n", pct(a.WACC*100))
	fmt.Fprintf(&b, "| Terminal growth | %s |\n", pct(a.TerminalGrowth*100))
	fmt.Fprintf(&b, "| Projection years | %d |\n\n", a.Horizon)

	g := r.GrowthRates
	b.WriteString("## Historical growth\n\n| Revenue | EBIT | D&A | CapEx |\n|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s |\n\n", pct(g.Revenue), pct(g.EBIT), pct(g.DA), pct(g.CapEx))

	b.WriteString("## Projections\n\n")
	b.WriteString("| Year | Revenue | NOPAT | ΔNWC | FCFF | PV(FCFF) |\n|---:|---:|---:|---:|---:|---:|\n")
	for i := range r.FCFFProjections {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n", i+1,
			money(at(r.RevenueProjections, i)), money(at(r.NOPATProjections, i)),
			money(at(r.ChangeInNWC, i)), money(r.FCFFProjections[i]), money(at(r.PVFCFF, i)))
	}
	return b.String()
}

// HTML renders Markdown(r) to an HTML fragment.
func HTML(r *models.Result) ([]byte, error) {
	return render(Markdown(r))
}

// IndexHTML renders the landing page listing available tickers.
func IndexHTML(tickers []string) ([]byte, error) {
	var b strings.Builder
	b.WriteString("# DCF valuation\n\n")
	b.WriteString("- `GET /api/stocks` lists tickers\n")
	b.WriteString("- `POST /api/calculate` values one ticker\n")
	b.WriteString("- `GET /api/report?stock=TICKER` renders a report\n\n")
	b.WriteString("## Tickers\n\n")
	if len(tickers) == 0 {
		b.WriteString("_No data loaded._\n")
	}
	for _, t := range tickers {
		fmt.Fprintf(&b, "- [%s](/api/report?stock=%s)\n", t, t)
	}
	return render(b.String())
}

func render(src string) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

func at(vs []float64, i int) float64 {
	if i < len(vs) {
		return vs[i]
	}
	return 0
}

func money(v float64) string { return fmt.Sprintf("%.2f", v) }

func pct(v float64) string { return fmt.Sprintf("%.2f%%", v) }
