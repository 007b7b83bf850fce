// Package calc provides the deterministic building blocks of the DCF model.
// This file implements discounting and the Gordon Growth terminal value.
package calc

import (
	"fmt"
	"math"
)

// =============================================================================
// DISCOUNTING
// =============================================================================

// PresentValue calculates PV of a single cash flow.
//
// FORMULA: PV = CF / (1 + r)^t
func PresentValue(cashFlow, discountRate float64, periods int) float64 {
	if periods < 0 {
		return 0
	}
	return cashFlow / math.Pow(1+discountRate, float64(periods))
}

// DiscountSeries returns the present value of each cash flow.
//
// FORMULA: PV_t = CF_t / (1 + r)^t, t = 1..N
//
// Cash flows are assumed to be at end of each period (ordinary annuity).
func DiscountSeries(cashFlows []float64, discountRate float64) []float64 {
	out := make([]float64, len(cashFlows))
	for t, cf := range cashFlows {
		out[t] = PresentValue(cf, discountRate, t+1)
	}
	return out
}

// Sum adds a slice of values.
func Sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

// =============================================================================
// TERMINAL VALUE
// =============================================================================

// TerminalValueGordonGrowth calculates terminal value from the final projected flow.
//
// FORMULA: TV = CF_N × (1 + g) / (r - g)
//
// Where:
//   - CF_N = cash flow of the last explicit period
//   - r = Discount rate (WACC)
//   - g = Long-run growth rate (must be < r)
func TerminalValueGordonGrowth(lastCF, discountRate, growthRate float64) (float64, error) {
	if !(discountRate > growthRate) {
		return 0, fmt.Errorf("discount rate %.4f must exceed terminal growth %.4f: %w",
			discountRate, growthRate, ErrInvalidAssumption)
	}
	return lastCF * (1 + growthRate) / (discountRate - growthRate), nil
}

// PresentValueOfTerminal discounts a terminal value back from the end of the horizon.
//
// FORMULA: PV(TV) = TV / (1 + r)^N
func PresentValueOfTerminal(tv, discountRate float64, horizon int) float64 {
	return PresentValue(tv, discountRate, horizon)
}
