// Package valuation assembles the calc building blocks into a full DCF valuation.
package valuation

import (
	"errors"
	"fmt"
	"math"

	"dcf_valuation/pkg/core/calc"
	"dcf_valuation/pkg/models"
)

// Store is the read-only time-series source the engine consumes.
type Store interface {
	Lookup(ticker string, m models.Metric) (models.Series, bool)
}

// Resolve gathers all nine series for ticker into an aligned FinancialRecord.
func Resolve(store Store, ticker string) (*models.FinancialRecord, error) {
	if store == nil {
		return nil, newError(KindDataUnavailable, nil, "Data file not loaded")
	}
	var series [models.NumMetrics]models.Series
	var missing []string
	for _, m := range models.AllMetrics() {
		s, ok := store.Lookup(ticker, m)
		if !ok {
			missing = append(missing, m.String())
			continue
		}
		series[m] = s
	}
	if len(missing) > 0 {
		return nil, newError(KindTickerNotFound, nil,
			"Stock ticker %s not found in database (missing %v)", ticker, missing)
	}
	rec, err := models.NewFinancialRecord(ticker, series)
	if err != nil {
		return nil, newError(KindDataUnavailable, err, "misaligned data for %s: %v", ticker, err)
	}
	return rec, nil
}

// Validate rejects assumptions for which the model has no finite answer.
func Validate(a models.Assumptions) error {
	rates := []struct {
		name string
		v    float64
	}{
		{"tax rate", a.TaxRate},
		{"wacc", a.WACC},
		{"terminal growth", a.TerminalGrowth},
	}
	for _, r := range rates {
		if math.IsNaN(r.v) || math.IsInf(r.v, 0) {
			return newError(KindInvalidAssumption, nil, "%s must be a finite number", r.name)
		}
	}
	if a.Horizon < 1 {
		return newError(KindInvalidAssumption, nil, "projection horizon must be at least 1, got %d", a.Horizon)
	}
	if a.WACC <= -1 {
		return newError(KindInvalidAssumption, nil, "wacc must be greater than -100%%, got %g", a.WACC)
	}
	if a.WACC <= a.TerminalGrowth {
		return newError(KindInvalidAssumption, nil,
			"wacc (%g) must exceed terminal growth (%g)", a.WACC, a.TerminalGrowth)
	}
	return nil
}

// Calculate runs the full DCF for ticker. It reads store but never writes to it and
// keeps no state, so concurrent calls are safe.
func Calculate(store Store, ticker string, a models.Assumptions) (*models.Result, error) {
	rec, err := Resolve(store, ticker)
	if err != nil {
		return nil, err
	}
	return CalculateRecord(rec, a)
}

// CalculateRecord values an already-resolved record.
func CalculateRecord(rec *models.FinancialRecord, a models.Assumptions) (*models.Result, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}
	n := a.Horizon

	// 1. Historical growth and last reported values of the four flow metrics
	flows := []models.Metric{models.Revenue, models.EBIT, models.DA, models.CapEx}
	var growth [4]float64
	var proj [4][]float64
	for i, m := range flows {
		s := rec.Series(m)
		g, err := calc.AverageGrowth(s)
		if err != nil {
			return nil, wrapCalc(err, "%s growth for %s", m, rec.Ticker)
		}
		last, ok := s.Last()
		if !ok {
			return nil, newError(KindDataUnavailable, nil, "no reported %s for %s", m, rec.Ticker)
		}
		growth[i] = g
		proj[i] = calc.Project(last, g, n)
	}
	revenue, ebit, da, capex := proj[0], proj[1], proj[2], proj[3]

	// 2. NOPAT
	nopat := calc.NOPATSeries(ebit, a.TaxRate)

	// 3. Working capital
	assets, liabilities := rec.Series(models.Assets), rec.Series(models.Liabilities)
	cash, debt := rec.Series(models.Cash), rec.Series(models.Debt)
	nwcToRevenue := calc.AverageRatio(calc.NWCSeries(assets, liabilities, cash, debt), rec.Series(models.Revenue))
	nwc := calc.ProjectNWC(revenue, nwcToRevenue)

	lastVals := make(map[models.Metric]float64, 5)
	for _, m := range []models.Metric{models.Assets, models.Liabilities, models.Cash, models.Debt, models.Shares} {
		v, ok := rec.Series(m).Last()
		if !ok {
			return nil, newError(KindDataUnavailable, nil, "no reported %s for %s", m, rec.Ticker)
		}
		lastVals[m] = v
	}
	lastNWC := calc.NWC(lastVals[models.Assets], lastVals[models.Liabilities], lastVals[models.Cash], lastVals[models.Debt])
	deltaNWC := calc.ChangeInNWC(nwc, lastNWC)

	// 4. FCFF and discounting
	fcff, err := calc.FCFF(nopat, da, capex, deltaNWC)
	if err != nil {
		return nil, wrapCalc(err, "fcff for %s", rec.Ticker)
	}
	pv := calc.DiscountSeries(fcff, a.WACC)

	// 5. Terminal value (Gordon Growth)
	tv, err := calc.TerminalValueGordonGrowth(fcff[n-1], a.WACC, a.TerminalGrowth)
	if err != nil {
		return nil, wrapCalc(err, "terminal value for %s", rec.Ticker)
	}
	pvTV := calc.PresentValueOfTerminal(tv, a.WACC, n)

	// 6. Aggregation
	ev := calc.Sum(pv) + pvTV
	equity := ev - lastVals[models.Debt] + lastVals[models.Cash]
	shares := lastVals[models.Shares]
	if shares == 0 {
		return nil, newError(KindDivisionByZero, calc.ErrDivisionByZero,
			"shares outstanding for %s is zero", rec.Ticker)
	}

	res := &models.Result{
		Ticker:             rec.Ticker,
		IntrinsicValue:     equity / shares,
		EnterpriseValue:    ev,
		EquityValue:        equity,
		PVFCFF:             pv,
		TerminalValue:      tv,
		PVTerminalValue:    pvTV,
		FCFFProjections:    fcff,
		RevenueProjections: revenue,
		EBITProjections:    ebit,
		DAProjections:      da,
		CapExProjections:   capex,
		NOPATProjections:   nopat,
		NWCProjections:     nwc,
		ChangeInNWC:        deltaNWC,
		AvgNWCToRevenue:    nwcToRevenue,
		LastNWC:            lastNWC,
		GrowthRates: models.GrowthRates{
			Revenue: growth[0] * 100,
			EBIT:    growth[1] * 100,
			DA:      growth[2] * 100,
			CapEx:   growth[3] * 100,
		},
		Assumptions: a,
	}
	if err := checkFinite(res); err != nil {
		return nil, err
	}
	return res, nil
}

func wrapCalc(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...) + ": " + err.Error()
	switch {
	case errors.Is(err, calc.ErrDivisionByZero):
		return newError(KindDivisionByZero, err, "%s", msg)
	case errors.Is(err, calc.ErrInvalidAssumption):
		return newError(KindInvalidAssumption, err, "%s", msg)
	default:
		return newError(KindDataUnavailable, err, "%s", msg)
	}
}

// checkFinite keeps NaN and ±Inf from reaching callers, e.g. from overflow on
// extreme growth rates.
func checkFinite(r *models.Result) error {
	bad := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
	for _, v := range []float64{r.IntrinsicValue, r.EnterpriseValue, r.EquityValue, r.TerminalValue, r.AvgNWCToRevenue} {
		if bad(v) {
			return newError(KindInvalidAssumption, nil, "valuation of %s is not finite", r.Ticker)
		}
	}
	for _, series := range [][]float64{r.PVFCFF, r.FCFFProjections, r.RevenueProjections} {
		for _, v := range series {
			if bad(v) {
				return newError(KindInvalidAssumption, nil, "projections for %s are not finite", r.Ticker)
			}
		}
	}
	return nil
}
