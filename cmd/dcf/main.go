package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apiValuation "dcf_valuation/pkg/api/valuation"
	"dcf_valuation/pkg/core/store"
	"dcf_valuation/pkg/core/valuation"
	"dcf_valuation/pkg/models"
)

// output reports rates in percent, the same shape POST /api/calculate returns.
type output struct {
	Stock  string                          `json:"stock"`
	Result *apiValuation.CalculateResponse `json:"result,omitempty"`
	Error  string                          `json:"error,omitempty"`
	Kind   string                          `json:"kind,omitempty"`
}

func newOutput(it valuation.BatchItem) output {
	o := output{Stock: it.Ticker}
	if it.Err != nil {
		o.Error = it.Err.Error()
		o.Kind = string(valuation.KindOf(it.Err))
		return o
	}
	resp := apiValuation.NewCalculateResponse(it.Result)
	o.Result = &resp
	return o
}

func main() {
	godotenv.Load()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	stock := flag.String("stock", "", "Ticker to value")
	all := flag.Bool("all", false, "Value every ticker in the data set")
	data := flag.String("data", "Data.csv", "CSV data file (ignored when DATABASE_URL is set)")
	tax := flag.Float64("tax", 27, "Tax rate, percent")
	wacc := flag.Float64("wacc", 6.9, "WACC, percent")
	growth := flag.Float64("growth", 2.5, "Terminal growth, percent")
	years := flag.Int("years", models.DefaultAssumptions().Horizon, "Projection years")
	workers := flag.Int("workers", 4, "Concurrent valuations with -all")
	flag.Parse()

	if *stock == "" && !*all {
		fmt.Println("Error: -stock or -all is required")
		os.Exit(1)
	}

	ctx := context.Background()
	table, err := load(ctx, *data)
	if err != nil {
		fmt.Printf("Error loading data: %v\n", err)
		os.Exit(1)
	}

	a := models.Assumptions{
		TaxRate:        *tax / 100,
		WACC:           *wacc / 100,
		TerminalGrowth: *growth / 100,
		Horizon:        *years,
	}

	tickers := table.Tickers()
	if !*all {
		tickers = []string{strings.ToUpper(*stock)}
	}

	failed := false
	var outs []output
	for _, it := range valuation.CalculateAll(ctx, table, tickers, a, *workers) {
		if it.Err != nil {
			failed = true
		}
		outs = append(outs, newOutput(it))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *all {
		enc.Encode(outs)
	} else {
		enc.Encode(outs[0])
	}
	if failed && !*all {
		os.Exit(2)
	}
}

func load(ctx context.Context, path string) (*store.Table, error) {
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadPostgres(ctx, store.GetPool())
	}
	return store.LoadCSVFile(path)
}
