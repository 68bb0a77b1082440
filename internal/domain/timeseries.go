package domain

import (
	"fmt"
	"math"
	"sort"
)

// SeriesPoint is one stored observation of an asset series.
// Corresponds to price_series / return_series tables in ClickHouse.
type SeriesPoint struct {
	Asset       string  // asset identifier (commodity name)
	TimestampMs int64   // Unix timestamp in milliseconds
	Value       float64 // price or fractional return; NaN marks a gap
}

// Series is an ordered single-asset series. Missing values are NaN.
type Series struct {
	Name   string
	Index  []int64 // Unix ms, strictly increasing
	Values []float64
}

// NewSeries builds a series from points already sorted by timestamp.
func NewSeries(name string, points []*SeriesPoint) *Series {
	s := &Series{
		Name:   name,
		Index:  make([]int64, len(points)),
		Values: make([]float64, len(points)),
	}
	for i, p := range points {
		s.Index[i] = p.TimestampMs
		s.Values[i] = p.Value
	}
	return s
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Values)
}

// Validate checks index alignment and ordering.
func (s *Series) Validate() error {
	if len(s.Index) != len(s.Values) {
		return fmt.Errorf("%w: series %q has %d timestamps and %d values",
			ErrMisalignedInput, s.Name, len(s.Index), len(s.Values))
	}
	return validateIndex(s.Index)
}

// Points converts the series back into storable points.
func (s *Series) Points() []*SeriesPoint {
	points := make([]*SeriesPoint, len(s.Values))
	for i := range s.Values {
		points[i] = &SeriesPoint{Asset: s.Name, TimestampMs: s.Index[i], Value: s.Values[i]}
	}
	return points
}

// Panel is a set of asset columns sharing one time index.
// Data is column-major: Data[asset][t].
type Panel struct {
	Index  []int64
	Assets []string
	Data   [][]float64
}

// NewPanel aligns several series on the union of their timestamps.
// Timestamps absent from a series become NaN in its column.
func NewPanel(series []*Series) *Panel {
	seen := make(map[int64]struct{})
	for _, s := range series {
		for _, ts := range s.Index {
			seen[ts] = struct{}{}
		}
	}
	index := make([]int64, 0, len(seen))
	for ts := range seen {
		index = append(index, ts)
	}
	sort.Slice(index, func(i, j int) bool { return index[i] < index[j] })

	pos := make(map[int64]int, len(index))
	for i, ts := range index {
		pos[ts] = i
	}

	p := &Panel{
		Index:  index,
		Assets: make([]string, len(series)),
		Data:   make([][]float64, len(series)),
	}
	for a, s := range series {
		p.Assets[a] = s.Name
		col := make([]float64, len(index))
		for i := range col {
			col[i] = math.NaN()
		}
		for i, ts := range s.Index {
			col[pos[ts]] = s.Values[i]
		}
		p.Data[a] = col
	}
	return p
}

// Rows returns the number of timestamps.
func (p *Panel) Rows() int {
	return len(p.Index)
}

// Column returns the values of one asset.
func (p *Panel) Column(asset string) ([]float64, bool) {
	for a, name := range p.Assets {
		if name == asset {
			return p.Data[a], true
		}
	}
	return nil, false
}

// Row copies the cross-section at row t.
func (p *Panel) Row(t int) []float64 {
	row := make([]float64, len(p.Assets))
	for a := range p.Assets {
		row[a] = p.Data[a][t]
	}
	return row
}

// Validate checks that every column matches the index and the index is ordered.
func (p *Panel) Validate() error {
	if len(p.Assets) != len(p.Data) {
		return fmt.Errorf("%w: %d assets but %d columns", ErrMisalignedInput, len(p.Assets), len(p.Data))
	}
	for a, col := range p.Data {
		if len(col) != len(p.Index) {
			return fmt.Errorf("%w: column %q has %d rows, index has %d",
				ErrMisalignedInput, p.Assets[a], len(col), len(p.Index))
		}
	}
	return validateIndex(p.Index)
}

// SignalPanel holds integer positions per asset and timestamp.
// Defined[t] is false when no asset had a score at t.
type SignalPanel struct {
	Index     []int64
	Assets    []string
	Positions [][]int // Positions[asset][t]
	Defined   []bool
}

func validateIndex(index []int64) error {
	for i := 1; i < len(index); i++ {
		if index[i] <= index[i-1] {
			return fmt.Errorf("%w: timestamps not strictly increasing at position %d", ErrMisalignedInput, i)
		}
	}
	return nil
}
