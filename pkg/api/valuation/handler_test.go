package valuation

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dcf_valuation/pkg/core/store"
	"dcf_valuation/pkg/models"
)

const testCSV = `Year,TEST_Revenue,TEST_EBIT,TEST_DA,TEST_CapEx,TEST_Assets,TEST_Liabilities,TEST_Cash,TEST_Debt,TEST_Shares,ZERO_Revenue
2021,100,20,5,5,200,50,30,20,10,1
2022,110,22,5,5,200,50,30,20,10,2
2023,121,24.2,5,5,200,50,30,20,10,3
`

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	table, err := store.LoadCSV(strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return NewHandler(table, models.DefaultAssumptions())
}

func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestHandleStocks(t *testing.T) {
	rec := serve(newTestHandler(t), http.MethodGet, "/api/stocks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var tickers []string
	if err := json.NewDecoder(rec.Body).Decode(&tickers); err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 2 || tickers[0] != "TEST" || tickers[1] != "ZERO" {
		t.Errorf("unexpected tickers %v", tickers)
	}
}

func TestHandleStocks_NoData(t *testing.T) {
	rec := serve(NewHandler(nil, models.DefaultAssumptions()), http.MethodGet, "/api/stocks", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Data not available") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandleCalculate(t *testing.T) {
	body := `{"stock": "test", "tax_rate": 27, "wacc": 6.9, "terminal_growth": 2.5}`
	rec := serve(newTestHandler(t), http.MethodPost, "/api/calculate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CalculateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Stock != "TEST" {
		t.Errorf("ticker should be upper-cased, got %s", resp.Stock)
	}
	if math.Abs(resp.GrowthRates.Revenue-10) > 1e-9 {
		t.Errorf("expected 10%% revenue growth, got %f", resp.GrowthRates.Revenue)
	}
	if math.Abs(resp.Assumptions.WACC-6.9) > 1e-9 || resp.Assumptions.ProjectionYears != 5 {
		t.Errorf("assumptions not echoed in percent: %+v", resp.Assumptions)
	}
	if len(resp.PVFCFF) != 5 || resp.EnterpriseValue <= 0 {
		t.Errorf("unexpected valuation: %+v", resp)
	}
	if math.Abs(resp.IntrinsicValue-resp.EquityValue/10) > 1e-9 {
		t.Errorf("intrinsic value %f != equity/10 %f", resp.IntrinsicValue, resp.EquityValue/10)
	}
}

func TestHandleCalculate_DefaultsAndLenientBody(t *testing.T) {
	h := newTestHandler(t)
	strict := serve(h, http.MethodPost, "/api/calculate", `{"stock": "TEST"}`)
	lenient := serve(h, http.MethodPost, "/api/calculate", "{\n  # defaults for every rate\n  stock: TEST\n}")
	if strict.Code != http.StatusOK || lenient.Code != http.StatusOK {
		t.Fatalf("expected 200/200, got %d/%d: %s", strict.Code, lenient.Code, lenient.Body.String())
	}
	if strict.Body.String() != lenient.Body.String() {
		t.Error("lenient body should produce the same valuation as strict JSON")
	}
}

func TestHandleCalculate_RepairedBodyKeepsRates(t *testing.T) {
	h := newTestHandler(t)
	bodies := []string{
		`{stock: TEST, wacc: 6.9, terminal_growth: 2.5}`,
		`{"stock":"TEST","wacc":6.9,"terminal_growth":2.5`,
	}
	for _, body := range bodies {
		rec := serve(h, http.MethodPost, "/api/calculate", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", body, rec.Code, rec.Body.String())
		}
		var resp CalculateResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Assumptions.WACC != 6.9 || resp.Assumptions.TerminalGrowth != 2.5 {
			t.Errorf("%s: rates changed on the way in: %+v", body, resp.Assumptions)
		}
	}
}

func TestHandleCalculate_ExtraFieldsIgnored(t *testing.T) {
	h := newTestHandler(t)
	plain := serve(h, http.MethodPost, "/api/calculate", `{"stock": "TEST", "wacc": 8}`)
	extra := serve(h, http.MethodPost, "/api/calculate", `{"stock": "TEST", "wacc": 8, "client": "web"}`)
	if extra.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", extra.Code, extra.Body.String())
	}
	if plain.Body.String() != extra.Body.String() {
		t.Error("extra fields should not change the valuation")
	}
}

func TestHandleCalculate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"unknown ticker", http.MethodPost, `{"stock": "NOPE"}`, http.StatusNotFound},
		{"wacc equals growth", http.MethodPost, `{"stock": "TEST", "wacc": 5, "terminal_growth": 5}`, http.StatusBadRequest},
		{"zero horizon", http.MethodPost, `{"stock": "TEST", "projection_years": 0}`, http.StatusBadRequest},
		{"horizon too long", http.MethodPost, `{"stock": "TEST", "projection_years": 500}`, http.StatusBadRequest},
		{"missing metrics", http.MethodPost, `{"stock": "ZERO"}`, http.StatusNotFound},
		{"garbage body", http.MethodPost, `<<<`, http.StatusBadRequest},
		{"two documents", http.MethodPost, `{"stock":"TEST","wacc":6.9}{"x":1}`, http.StatusBadRequest},
		{"no stock", http.MethodPost, `{"wacc": 8}`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}
	h := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, "/api/calculate", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			var resp map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if len(resp) != 1 || resp["error"] == nil {
				t.Errorf("failure must be a bare error object, got %v", resp)
			}
		})
	}
}

func TestHandleCalculate_NoData(t *testing.T) {
	rec := serve(NewHandler(nil, models.DefaultAssumptions()), http.MethodPost, "/api/calculate", `{"stock": "TEST"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandleReport(t *testing.T) {
	h := newTestHandler(t)
	rec := serve(h, http.MethodGet, "/api/report?stock=test&wacc=8", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "8.00%") {
		t.Error("report should use the WACC from the query")
	}

	if rec := serve(h, http.MethodGet, "/api/report?stock=TEST&wacc=abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad wacc, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/report?stock=NOPE", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown ticker, got %d", rec.Code)
	}
	for _, target := range []string{"/api/report", "/api/report?stock=%20"} {
		rec := serve(h, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "stock is required") {
			t.Errorf("%s: expected 400 stock is required, got %d %s", target, rec.Code, rec.Body.String())
		}
	}
}

func TestHandleIndexAndHealth(t *testing.T) {
	h := newTestHandler(t)
	rec := serve(h, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/api/report?stock=TEST") {
		t.Errorf("index: %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(h, http.MethodGet, "/nothing-here", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = serve(h, http.MethodGet, "/api/health", "")
	var health map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "ok" || health["tickers"] != float64(2) {
		t.Errorf("unexpected health %v", health)
	}
}
