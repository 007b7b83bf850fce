package calc

import (
	"fmt"

	"dcf_valuation/pkg/models"
)

// NOPAT calculates net operating profit after tax.
//
// FORMULA: NOPAT = EBIT × (1 - t)
func NOPAT(ebit, taxRate float64) float64 {
	return ebit * (1 - taxRate)
}

// NOPATSeries applies NOPAT to every projected EBIT.
func NOPATSeries(ebit []float64, taxRate float64) []float64 {
	out := make([]float64, len(ebit))
	for i, e := range ebit {
		out[i] = NOPAT(e, taxRate)
	}
	return out
}

// NWC calculates net working capital.
//
// FORMULA: NWC = Assets - Liabilities - Cash + Debt
//
// Cash reduces the working-capital need and debt increases it. This sign convention
// is fixed; historical and projected figures are only comparable under it.
func NWC(assets, liabilities, cash, debt float64) float64 {
	return assets - liabilities - cash + debt
}

// NWCSeries computes NWC period by period. A period is undefined when any of its
// four inputs is undefined. The result has the length of the shortest input.
func NWCSeries(assets, liabilities, cash, debt models.Series) models.Series {
	n := min(len(assets), len(liabilities), len(cash), len(debt))
	out := make(models.Series, n)
	for i := 0; i < n; i++ {
		if !assets.Defined(i) || !liabilities.Defined(i) || !cash.Defined(i) || !debt.Defined(i) {
			continue
		}
		v := NWC(assets.At(i), liabilities.At(i), cash.At(i), debt.At(i))
		out[i] = &v
	}
	return out
}

// ProjectNWC scales projected revenue by the historical NWC-to-revenue ratio.
func ProjectNWC(revenue []float64, nwcToRevenue float64) []float64 {
	out := make([]float64, len(revenue))
	for i, r := range revenue {
		out[i] = r * nwcToRevenue
	}
	return out
}

// ChangeInNWC returns the period-over-period NWC investment. The first period is
// measured against lastActual, the NWC of the most recent reported period.
func ChangeInNWC(projected []float64, lastActual float64) []float64 {
	out := make([]float64, len(projected))
	prev := lastActual
	for i, v := range projected {
		out[i] = v - prev
		prev = v
	}
	return out
}

// FCFF calculates free cash flow to firm for each projected period.
//
// FORMULA: FCFF = NOPAT + D&A - CapEx - ΔNWC
func FCFF(nopat, da, capex, deltaNWC []float64) ([]float64, error) {
	n := len(nopat)
	if len(da) != n || len(capex) != n || len(deltaNWC) != n {
		return nil, fmt.Errorf("fcff inputs differ in length: nopat=%d da=%d capex=%d dnwc=%d",
			n, len(da), len(capex), len(deltaNWC))
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = nopat[i] + da[i] - capex[i] - deltaNWC[i]
	}
	return out, nil
}
