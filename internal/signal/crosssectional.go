package signal

import (
	"fmt"
	"math"

	"commodity-momentum-lab/internal/domain"
)

// CrossSectional ranks every row of a rolling score panel independently and
// emits long/short positions for the top and bottom k assets.
// A row with no defined score is marked undefined.
func CrossSectional(scores *domain.Panel, k int) (*domain.SignalPanel, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidBucketSize, k)
	}
	if err := scores.Validate(); err != nil {
		return nil, err
	}

	rows := scores.Rows()
	out := &domain.SignalPanel{
		Index:     append([]int64(nil), scores.Index...),
		Assets:    append([]string(nil), scores.Assets...),
		Positions: make([][]int, len(scores.Assets)),
		Defined:   make([]bool, rows),
	}
	for a := range out.Positions {
		out.Positions[a] = make([]int, rows)
	}

	for t := 0; t < rows; t++ {
		row := scores.Row(t)
		if !anyDefined(row) {
			continue
		}
		out.Defined[t] = true
		for a, pos := range RankSignal(row, k, k) {
			out.Positions[a][t] = pos
		}
	}

	return out, nil
}

func anyDefined(row []float64) bool {
	for _, v := range row {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}
