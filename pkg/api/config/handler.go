package config

import (
	"encoding/json"
	"net/http"

	coreConfig "dcf_valuation/pkg/core/config"
)

// Response describes the defaults a calculation uses when the request omits them.
type Response struct {
	TaxRate         float64 `json:"tax_rate"`
	WACC            float64 `json:"wacc"`
	TerminalGrowth  float64 `json:"terminal_growth"`
	ProjectionYears int     `json:"projection_years"`
	DataSource      string  `json:"data_source"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Config *coreConfig.Config
}

// NewHandler creates a new config handler
func NewHandler(cfg *coreConfig.Config) *Handler {
	return &Handler{Config: cfg}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	source := "csv"
	if h.Config.Data.UseDatabase {
		source = "postgres"
	}
	v := h.Config.Valuation
	resp := Response{
		TaxRate:         v.TaxRate,
		WACC:            v.WACC,
		TerminalGrowth:  v.TerminalGrowth,
		ProjectionYears: v.ProjectionYears,
		DataSource:      source,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
