// Package optimizer searches crossover window grids and compares momentum lookbacks.
package optimizer

import (
	"github.com/samber/lo"
)

// Pair is one (short, long) moving-average window combination.
type Pair struct {
	Short int
	Long  int
}

// Range returns start, start+step, ... below end.
func Range(start, end, step int) []int {
	if step <= 0 || end <= start {
		return nil
	}
	return lo.RangeWithSteps(start, end, step)
}

// Pairs crosses every short window with every long window and keeps the pairs
// with short < long. skipped counts the discarded combinations.
func Pairs(shorts, longs []int) (valid []Pair, skipped int) {
	all := lo.FlatMap(shorts, func(short int, _ int) []Pair {
		return lo.Map(longs, func(long int, _ int) Pair {
			return Pair{Short: short, Long: long}
		})
	})
	valid = lo.Filter(all, func(p Pair, _ int) bool {
		return p.Short < p.Long
	})
	return valid, len(all) - len(valid)
}

// windows returns the distinct window lengths used by pairs.
func windows(pairs []Pair) []int {
	return lo.Uniq(lo.FlatMap(pairs, func(p Pair, _ int) []int {
		return []int{p.Short, p.Long}
	}))
}
