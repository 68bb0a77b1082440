package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"commodity-momentum-lab/internal/domain"
)

// ErrInvalidCSV is returned when a price file cannot be parsed.
var ErrInvalidCSV = errors.New("invalid price csv")

// dateLayouts are the accepted first-column formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ReadPriceCSV parses a wide price table: the first column is the date,
// every other column is one asset. Header cells that match a ticker in
// universe are renamed to the commodity name. Empty, "NaN" and "null"
// cells become missing values. Rows are sorted by date on output.
func ReadPriceCSV(r io.Reader, universe []domain.Commodity) ([]*domain.Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: need a date column and at least one asset", ErrInvalidCSV)
	}

	byTicker := make(map[string]string, len(universe))
	for _, c := range universe {
		byTicker[c.Ticker] = c.Name
	}

	series := make([]*domain.Series, len(header)-1)
	for i, col := range header[1:] {
		name := strings.TrimSpace(col)
		if mapped, ok := byTicker[name]; ok {
			name = mapped
		}
		series[i] = &domain.Series{Name: name}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, line, err)
		}

		ts, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, line, err)
		}
		for i, cell := range record[1:] {
			v, err := parsePrice(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v", ErrInvalidCSV, line, series[i].Name, err)
			}
			series[i].Index = append(series[i].Index, ts)
			series[i].Values = append(series[i].Values, v)
		}
	}

	for _, s := range series {
		sortSeries(s)
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
	}
	return series, nil
}

// ReadPriceCSVFile opens path and parses it with ReadPriceCSV.
func ReadPriceCSVFile(path string, universe []domain.Commodity) ([]*domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadPriceCSV(f, universe)
}

func parseDate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized date %q", s)
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func sortSeries(s *domain.Series) {
	points := s.Points()
	SortPoints(points)
	for i, p := range points {
		s.Index[i] = p.TimestampMs
		s.Values[i] = p.Value
	}
}

func isMissing(v float64) bool {
	return math.IsNaN(v)
}
