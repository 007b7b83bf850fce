package store

import (
	"strings"
	"testing"

	"dcf_valuation/pkg/models"
)

func TestLoadCSV(t *testing.T) {
	data := `Year,TEST_Revenue,TEST_EBIT,TEST_Cash,Notes
2021,"1,000",200,,first
2022,"1,100.5",NaN,30,
2023,1210,242,31,x
`
	table, err := LoadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rev, ok := table.Lookup("TEST", models.Revenue)
	if !ok || len(rev) != 3 {
		t.Fatalf("revenue: %v %v", rev, ok)
	}
	if rev.At(0) != 1000 || rev.At(1) != 1100.5 || rev.At(2) != 1210 {
		t.Errorf("thousands separators not handled: %v %v %v", rev.At(0), rev.At(1), rev.At(2))
	}

	ebit, _ := table.Lookup("TEST", models.EBIT)
	if ebit.Defined(1) {
		t.Error("NaN cell should be undefined")
	}
	cash, _ := table.Lookup("TEST", models.Cash)
	if cash.Defined(0) {
		t.Error("empty cell should be undefined")
	}
	if got := table.Tickers(); len(got) != 1 || got[0] != "TEST" {
		t.Errorf("tickers: %v", got)
	}
}

func TestLoadCSV_InvalidNumber(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("A_Revenue\nabc\n"))
	if err == nil || !strings.Contains(err.Error(), "A_Revenue") {
		t.Fatalf("expected column error, got %v", err)
	}
}

func TestLoadCSV_EmptyInput(t *testing.T) {
	if _, err := LoadCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected header error")
	}
}

func TestLoadCSV_DuplicateColumn(t *testing.T) {
	data := "Year,TEST_Revenue,TEST_EBIT,TEST_Revenue\n2021,1,2,3\n"
	_, err := LoadCSV(strings.NewReader(data))
	if err == nil || !strings.Contains(err.Error(), "duplicate column TEST_Revenue") {
		t.Fatalf("expected duplicate column error, got %v", err)
	}
}
