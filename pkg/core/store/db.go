package store

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"dcf_valuation/pkg/models"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the database connection pool using the DATABASE_URL environment variable
func InitDB(ctx context.Context) error {
	var err error
	once.Do(func() {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
	})
	return err
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// seriesRow is one reported value. Schema:
//
//	CREATE TABLE IF NOT EXISTS financial_series (
//	  ticker TEXT NOT NULL,
//	  metric TEXT NOT NULL,
//	  period INTEGER NOT NULL,
//	  value  DOUBLE PRECISION,
//	  PRIMARY KEY (ticker, metric, period)
//	);
type seriesRow struct {
	Ticker string   `db:"ticker"`
	Metric string   `db:"metric"`
	Period int      `db:"period"`
	Value  *float64 `db:"value"`
}

// LoadPostgres reads every row of financial_series into a Table.
func LoadPostgres(ctx context.Context, p *pgxpool.Pool) (*Table, error) {
	if p == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT ticker, metric, period, value FROM financial_series ORDER BY ticker, metric, period`
	rows, err := p.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query financial_series: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[seriesRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan financial_series: %w", err)
	}

	table, skipped := tableFromRows(records)
	if len(skipped) > 0 {
		log.Debug().Str("component", "store").Strs("columns", skipped).Msg("skipped columns")
	}
	log.Info().
		Str("component", "store").
		Int("rows", len(records)).
		Int("tickers", len(table.Tickers())).
		Msg("loaded Postgres data")
	return table, nil
}

// tableFromRows aligns rows by period label. Each ticker gets one slot per distinct
// period seen across any of its metrics, so a metric missing a period gets a nil
// entry there instead of shifting later values.
func tableFromRows(rows []seriesRow) (*Table, []string) {
	periods := make(map[string]map[int]struct{})
	values := make(map[string]map[int]*float64)
	for _, r := range rows {
		if periods[r.Ticker] == nil {
			periods[r.Ticker] = make(map[int]struct{})
		}
		periods[r.Ticker][r.Period] = struct{}{}

		col := r.Ticker + "_" + r.Metric
		if values[col] == nil {
			values[col] = make(map[int]*float64)
		}
		values[col][r.Period] = r.Value
	}

	order := make(map[string][]int, len(periods))
	for ticker, set := range periods {
		ps := make([]int, 0, len(set))
		for p := range set {
			ps = append(ps, p)
		}
		sort.Ints(ps)
		order[ticker] = ps
	}

	columns := make(map[string]models.Series, len(values))
	for col, byPeriod := range values {
		ticker, _, ok := models.SplitColumnName(col)
		if !ok {
			// Let NewTable report it.
			columns[col] = nil
			continue
		}
		s := make(models.Series, len(order[ticker]))
		for i, p := range order[ticker] {
			s[i] = byPeriod[p]
		}
		columns[col] = s
	}
	return NewTable(columns)
}
