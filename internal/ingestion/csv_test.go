package ingestion

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"commodity-momentum-lab/internal/domain"
)

func ms(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func TestReadPriceCSV(t *testing.T) {
	input := `Date,GC=F,SI=F,Lumber
2024-01-03,2050.5,23.1,
2024-01-02,2040.0,NaN,560
`
	universe := []domain.Commodity{{Name: "Gold", Ticker: "GC=F"}, {Name: "Silver", Ticker: "SI=F"}}

	series, err := ReadPriceCSV(strings.NewReader(input), universe)
	if err != nil {
		t.Fatalf("ReadPriceCSV failed: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("Expected 3 series, got %d", len(series))
	}

	names := []string{series[0].Name, series[1].Name, series[2].Name}
	if names[0] != "Gold" || names[1] != "Silver" || names[2] != "Lumber" {
		t.Errorf("Expected [Gold Silver Lumber], got %v", names)
	}

	gold := series[0]
	if gold.Index[0] != ms(2024, 1, 2) || gold.Index[1] != ms(2024, 1, 3) {
		t.Errorf("Expected rows sorted by date, got %v", gold.Index)
	}
	if gold.Values[0] != 2040.0 || gold.Values[1] != 2050.5 {
		t.Errorf("Unexpected gold prices %v", gold.Values)
	}
	if !math.IsNaN(series[1].Values[0]) {
		t.Errorf("Expected NaN for missing silver price, got %v", series[1].Values[0])
	}
	if !math.IsNaN(series[2].Values[1]) {
		t.Errorf("Expected NaN for empty lumber cell, got %v", series[2].Values[1])
	}
}

func TestReadPriceCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"date only", "Date\n2024-01-02\n"},
		{"bad date", "Date,Gold\n02/01/2024,1\n"},
		{"bad price", "Date,Gold\n2024-01-02,abc\n"},
		{"ragged row", "Date,Gold,Silver\n2024-01-02,1\n"},
		{"duplicate date", "Date,Gold\n2024-01-02,1\n2024-01-02,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPriceCSV(strings.NewReader(tt.input), nil)
			if !errors.Is(err, ErrInvalidCSV) {
				t.Errorf("Expected ErrInvalidCSV, got %v", err)
			}
		})
	}
}

func TestReadPriceCSV_DateLayouts(t *testing.T) {
	input := "Date,Gold\n2024-01-02 00:00:00,1\n2024-01-03T00:00:00Z,2\n"

	series, err := ReadPriceCSV(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("ReadPriceCSV failed: %v", err)
	}
	if series[0].Index[0] != ms(2024, 1, 2) || series[0].Index[1] != ms(2024, 1, 3) {
		t.Errorf("Unexpected index %v", series[0].Index)
	}
}

func TestReadPriceCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte("Date,Gold\n2024-01-02,1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	series, err := ReadPriceCSVFile(path, nil)
	if err != nil {
		t.Fatalf("ReadPriceCSVFile failed: %v", err)
	}
	if len(series) != 1 || series[0].Len() != 1 {
		t.Errorf("Expected one series with one row, got %+v", series)
	}

	if _, err := ReadPriceCSVFile(filepath.Join(t.TempDir(), "missing.csv"), nil); err == nil {
		t.Error("Expected error for missing file")
	}
}
