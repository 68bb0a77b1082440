// Package signal turns rolling scores into integer position signals.
package signal

import "math"

// RankMin ranks values in descending order. Tied values share the smallest
// rank of their group, and the next distinct value skips the tied slots
// (e.g. [9 7 7 7 1] -> [1 2 2 2 5]). Missing values get rank 0.
func RankMin(row []float64) []int {
	ranks := make([]int, len(row))
	for i, v := range row {
		if math.IsNaN(v) {
			continue
		}
		r := 1
		for _, u := range row {
			if !math.IsNaN(u) && u > v {
				r++
			}
		}
		ranks[i] = r
	}
	return ranks
}

// RankSignal emits +1 for assets ranked within the top kLong, -1 for assets
// ranked beyond len(row)-kShort, and 0 otherwise.
//
// Ties at a bucket boundary admit every tied asset, so a bucket can hold more
// than k members. The short cutoff counts every column, missing ones included,
// and missing scores never qualify for either bucket.
func RankSignal(row []float64, kLong, kShort int) []int {
	ranks := RankMin(row)
	n := len(row)

	positions := make([]int, n)
	for i, r := range ranks {
		if r == 0 {
			continue
		}
		if r <= kLong {
			positions[i]++
		}
		if r > n-kShort {
			positions[i]--
		}
	}
	return positions
}
