// Package calc provides the deterministic building blocks of the DCF model.
// This file implements historical estimators and the constant-growth projector.
package calc

import (
	"errors"
	"fmt"
	"math"

	"dcf_valuation/pkg/models"
)

var (
	// ErrDivisionByZero is returned when a required denominator is zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidAssumption is returned when a rate or horizon makes the model undefined.
	ErrInvalidAssumption = errors.New("invalid assumption")
)

// AverageGrowth returns the mean period-over-period growth of s.
//
// FORMULA: g = mean( (s[i+1] - s[i]) / s[i] )
//
// The walk starts at index 0 and stops at the first undefined successor; interior
// gaps are never skipped. With no usable pair the result is 0, which callers must
// read as "no history", not as a measured zero growth.
func AverageGrowth(s models.Series) (float64, error) {
	var sum float64
	n := 0
	for i := 0; i+1 < len(s) && s.Defined(i) && s.Defined(i+1); i++ {
		cur := s.At(i)
		if cur == 0 {
			return 0, fmt.Errorf("growth from period %d: %w", i, ErrDivisionByZero)
		}
		sum += (s.At(i+1) - cur) / cur
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// AverageRatio returns the mean of num[i]/den[i].
//
// Scanning stops at the first index where either side is undefined. Pairs with a
// zero denominator are skipped. Returns 0 when no pair qualifies.
func AverageRatio(num, den models.Series) float64 {
	var sum float64
	n := 0
	for i := 0; num.Defined(i) && den.Defined(i); i++ {
		d := den.At(i)
		if d == 0 {
			continue
		}
		sum += num.At(i) / d
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Project extrapolates last forward n periods at a constant rate.
//
// FORMULA: p[k] = last × (1 + rate)^k, k = 1..n
func Project(last, rate float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	for k := 1; k <= n; k++ {
		out[k-1] = last * math.Pow(1+rate, float64(k))
	}
	return out
}
