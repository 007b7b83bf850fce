package utils

import "testing"

type calcBody struct {
	Stock string   `json:"stock"`
	WACC  *float64 `json:"wacc"`
}

func TestSmartParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		stock string
		wacc  float64
	}{
		{"strict", `{"stock": "aapl", "wacc": 7.5}`, "aapl", 7.5},
		{"trailing comma", `{"stock": "msft", "wacc": 8,}`, "msft", 8},
		{"hjson", "{\n  # analyst override\n  stock: goog\n  wacc: 9\n}", "goog", 9},
		{"repaired unquoted", `{stock: TEST, wacc: 6.9}`, "TEST", 6.9},
		{"repaired truncated", `{"stock":"TEST","wacc":6.9`, "TEST", 6.9},
		{"repaired truncated exponent", `{"stock":"TEST","wacc":6.9e0`, "TEST", 6.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body calcBody
			if err := SmartParse(tt.input, &body); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if body.Stock != tt.stock {
				t.Errorf("stock: got %q, want %q", body.Stock, tt.stock)
			}
			// Exact comparison: lenient stages must not change the number.
			if body.WACC == nil || *body.WACC != tt.wacc {
				t.Errorf("wacc: got %v, want exactly %v", body.WACC, tt.wacc)
			}
		})
	}
}

func TestSmartParse_UnknownFieldIgnored(t *testing.T) {
	var body calcBody
	if err := SmartParse(`{"stock": "x", "client": "web"}`, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Stock != "x" {
		t.Errorf("stock: got %q", body.Stock)
	}
}

func TestSmartParse_MultipleValues(t *testing.T) {
	inputs := []string{
		`{"stock":"TEST","wacc":6.9}{"x":1}`,
		`{"stock":"TEST"} {"stock":"OTHER"}`,
		`{stock: TEST, wacc: 6.9}{x: 1}`,
	}
	for _, in := range inputs {
		var body calcBody
		if err := SmartParse(in, &body); err == nil {
			t.Errorf("expected %q to be rejected, got %+v", in, body)
		}
	}
}

func TestShieldNumbers(t *testing.T) {
	shielded, numbers, err := shieldNumbers(`{a: 1.25, "b": "7.5", c: [2, -3e2], d: x9}`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1.25", "2", "-3e2"}
	if len(numbers) != len(want) {
		t.Fatalf("numbers: got %v, want %v", numbers, want)
	}
	for i := range want {
		if numbers[i] != want[i] {
			t.Errorf("numbers[%d]: got %s, want %s", i, numbers[i], want[i])
		}
	}
	restored, err := restoreNumbers(shielded, numbers)
	if err != nil {
		t.Fatal(err)
	}
	if restored != `{a: 1.25, "b": "7.5", c: [2, -3e2], d: x9}` {
		t.Errorf("round trip changed input: %s", restored)
	}
	if _, err := restoreNumbers(`{"a":1}`, numbers); err == nil {
		t.Error("expected missing placeholder to be reported")
	}
}
