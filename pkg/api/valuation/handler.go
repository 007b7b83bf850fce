package valuation

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"dcf_valuation/pkg/core/report"
	"dcf_valuation/pkg/core/utils"
	coreValuation "dcf_valuation/pkg/core/valuation"
	"dcf_valuation/pkg/models"
)

const (
	maxBodyBytes       = 1 << 20
	maxProjectionYears = 50
)

// Catalog is the Store view the HTTP layer needs: lookups plus the ticker list.
type Catalog interface {
	coreValuation.Store
	Tickers() []string
}

// Handler serves the valuation endpoints. A nil catalog means the data failed to
// load; every data endpoint then answers with an error.
type Handler struct {
	catalog  Catalog
	defaults models.Assumptions
}

func NewHandler(catalog Catalog, defaults models.Assumptions) *Handler {
	return &Handler{catalog: catalog, defaults: defaults}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.HandleIndex)
	mux.HandleFunc("/api/health", h.HandleHealth)
	mux.HandleFunc("/api/stocks", h.HandleStocks)
	mux.HandleFunc("/api/calculate", h.HandleCalculate)
	mux.HandleFunc("/api/report", h.HandleReport)
}

// CalculateRequest carries rates as whole-number percentages. Omitted fields take
// the configured defaults.
type CalculateRequest struct {
	Stock           string   `json:"stock"`
	TaxRate         *float64 `json:"tax_rate"`
	WACC            *float64 `json:"wacc"`
	TerminalGrowth  *float64 `json:"terminal_growth"`
	ProjectionYears *int     `json:"projection_years"`
}

// AssumptionsResponse echoes the assumptions in percent.
type AssumptionsResponse struct {
	TaxRate         float64 `json:"tax_rate"`
	WACC            float64 `json:"wacc"`
	TerminalGrowth  float64 `json:"terminal_growth"`
	ProjectionYears int     `json:"projection_years"`
}

type CalculateResponse struct {
	Stock              string              `json:"stock"`
	IntrinsicValue     float64             `json:"intrinsic_value"`
	EnterpriseValue    float64             `json:"enterprise_value"`
	EquityValue        float64             `json:"equity_value"`
	PVFCFF             []float64           `json:"pv_fcff"`
	PVTerminalValue    float64             `json:"pv_terminal_value"`
	TerminalValue      float64             `json:"terminal_value"`
	FCFFProjections    []float64           `json:"fcff_projections"`
	RevenueProjections []float64           `json:"revenue_projections"`
	GrowthRates        models.GrowthRates  `json:"growth_rates"`
	Assumptions        AssumptionsResponse `json:"assumptions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewCalculateResponse converts a Result into the percent-valued response shape.
func NewCalculateResponse(r *models.Result) CalculateResponse {
	return CalculateResponse{
		Stock:              r.Ticker,
		IntrinsicValue:     r.IntrinsicValue,
		EnterpriseValue:    r.EnterpriseValue,
		EquityValue:        r.EquityValue,
		PVFCFF:             r.PVFCFF,
		PVTerminalValue:    r.PVTerminalValue,
		TerminalValue:      r.TerminalValue,
		FCFFProjections:    r.FCFFProjections,
		RevenueProjections: r.RevenueProjections,
		GrowthRates:        r.GrowthRates,
		Assumptions: AssumptionsResponse{
			TaxRate:         r.Assumptions.TaxRate * 100,
			WACC:            r.Assumptions.WACC * 100,
			TerminalGrowth:  r.Assumptions.TerminalGrowth * 100,
			ProjectionYears: r.Assumptions.Horizon,
		},
	}
}

// assumptions merges the request's percentages over the defaults.
func (h *Handler) assumptions(taxRate, wacc, terminalGrowth *float64, years *int) models.Assumptions {
	a := h.defaults
	if taxRate != nil {
		a.TaxRate = *taxRate / 100
	}
	if wacc != nil {
		a.WACC = *wacc / 100
	}
	if terminalGrowth != nil {
		a.TerminalGrowth = *terminalGrowth / 100
	}
	if years != nil {
		a.Horizon = *years
	}
	return a
}

func (h *Handler) store() coreValuation.Store {
	if h.catalog == nil {
		return nil
	}
	return h.catalog
}

func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	var req CalculateRequest
	if err := utils.SmartParse(string(body), &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Stock))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "stock is required")
		return
	}
	if req.ProjectionYears != nil && *req.ProjectionYears > maxProjectionYears {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("projection_years must be at most %d", maxProjectionYears))
		return
	}
	a := h.assumptions(req.TaxRate, req.WACC, req.TerminalGrowth, req.ProjectionYears)

	res, err := coreValuation.Calculate(h.store(), ticker, a)
	if err != nil {
		h.fail(w, r, ticker, err)
		return
	}
	log.Debug().Str("component", "valuation").Str("stock", ticker).
		Float64("intrinsic_value", res.IntrinsicValue).Msg("calculated")
	writeJSON(w, http.StatusOK, NewCalculateResponse(res))
}

func (h *Handler) HandleStocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.catalog == nil {
		writeError(w, http.StatusInternalServerError, "Data not available")
		return
	}
	tickers := h.catalog.Tickers()
	if tickers == nil {
		tickers = []string{}
	}
	writeJSON(w, http.StatusOK, tickers)
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	ticker := strings.ToUpper(strings.TrimSpace(q.Get("stock")))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "stock is required")
		return
	}

	var rates [3]*float64
	for i, name := range []string{"tax_rate", "wacc", "terminal_growth"} {
		v, err := queryFloat(q.Get(name))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
			return
		}
		rates[i] = v
	}
	var years *int
	if s := q.Get("projection_years"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n > maxProjectionYears {
			writeError(w, http.StatusBadRequest, "invalid projection_years")
			return
		}
		years = &n
	}

	res, err := coreValuation.Calculate(h.store(), ticker, h.assumptions(rates[0], rates[1], rates[2], years))
	if err != nil {
		h.fail(w, r, ticker, err)
		return
	}
	page, err := report.HTML(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	var tickers []string
	if h.catalog != nil {
		tickers = h.catalog.Tickers()
	}
	page, err := report.IndexHTML(tickers)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error rendering template: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok", "tickers": 0}
	if h.catalog == nil {
		status["status"] = "degraded"
	} else {
		status["tickers"] = len(h.catalog.Tickers())
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, ticker string, err error) {
	status := statusFor(coreValuation.KindOf(err))
	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Str("component", "valuation").
		Str("stock", ticker).
		Str("kind", string(coreValuation.KindOf(err))).
		Str("request_id", r.Header.Get("X-Request-ID")).
		Err(err).
		Msg("valuation failed")
	writeError(w, status, err.Error())
}

func statusFor(kind coreValuation.Kind) int {
	switch kind {
	case coreValuation.KindTickerNotFound:
		return http.StatusNotFound
	case coreValuation.KindInvalidAssumption:
		return http.StatusBadRequest
	case coreValuation.KindDivisionByZero:
		return http.StatusUnprocessableEntity
	case coreValuation.KindDataUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func queryFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
