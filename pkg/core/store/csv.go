package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"dcf_valuation/pkg/models"
)

// LoadCSVFile opens path and loads it with LoadCSV.
func LoadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV reads a wide table: the header names the columns ("AAPL_Revenue", ...)
// and each following row is one period, oldest first. Values may use "," as a
// thousands separator; an empty or NaN cell is an unreported period.
func LoadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Only metric columns are parsed; anything else (a year column, notes) is ignored.
	type column struct {
		name string
		idx  int
	}
	var wanted []column
	seen := make(map[string]int)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, _, ok := models.SplitColumnName(name); !ok {
			continue
		}
		if first, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate column %s (columns %d and %d)", name, first+1, i+1)
		}
		seen[name] = i
		wanted = append(wanted, column{name: name, idx: i})
	}

	columns := make(map[string]models.Series, len(wanted))
	for _, c := range wanted {
		columns[c.name] = models.Series{}
	}

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv record %d: %w", row, err)
		}
		row++
		for _, c := range wanted {
			v, err := parseCell(record[c.idx])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", row, c.name, err)
			}
			columns[c.name] = append(columns[c.name], v)
		}
	}

	table, skipped := NewTable(columns)
	if len(skipped) > 0 {
		log.Debug().Str("component", "store").Strs("columns", skipped).Msg("skipped columns")
	}
	log.Info().
		Str("component", "store").
		Int("columns", table.Len()).
		Int("tickers", len(table.Tickers())).
		Int("periods", row-1).
		Msg("loaded CSV data")
	return table, nil
}

func parseCell(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return nil, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", raw)
	}
	return &v, nil
}
