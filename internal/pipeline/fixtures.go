package pipeline

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

// FixtureStart is the first trading day of generated fixtures.
var FixtureStart = time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)

// FixtureAssets is the default fixture universe.
var FixtureAssets = []string{"Copper", "Corn", "Crude Oil", "Gold", "Natural Gas", "Silver"}

// fixtureSeed makes every fixture run produce the same prices.
const fixtureSeed = 20190102

// SyntheticPrices generates deterministic daily closes for each asset over
// the given number of weekdays starting at start. Each asset follows a
// geometric random walk with its own drift and volatility, and every 40th
// day of the second asset is left missing to exercise gap handling.
func SyntheticPrices(assets []string, start time.Time, days int) []*domain.Series {
	index := weekdays(start, days)

	out := make([]*domain.Series, len(assets))
	for a, name := range assets {
		rng := rand.New(rand.NewPCG(fixtureSeed, uint64(a+1)))
		drift := 0.0002 * float64(a%3-1)
		vol := 0.008 + 0.002*float64(a%4)

		s := &domain.Series{
			Name:   name,
			Index:  append([]int64(nil), index...),
			Values: make([]float64, days),
		}
		price := 50.0 + 25.0*float64(a)
		for i := range s.Values {
			price *= math.Exp(drift + vol*rng.NormFloat64())
			s.Values[i] = math.Round(price*100) / 100
			if a == 1 && i > 0 && i%40 == 0 {
				s.Values[i] = math.NaN()
			}
		}
		out[a] = s
	}
	return out
}

// LoadFixtures populates the price store with synthetic prices for demonstration runs.
// Missing values are not stored.
func LoadFixtures(ctx context.Context, priceStore storage.PriceSeriesStore, assets []string, days int) error {
	for _, s := range SyntheticPrices(assets, FixtureStart, days) {
		var points []*domain.SeriesPoint
		for _, p := range s.Points() {
			if !math.IsNaN(p.Value) {
				points = append(points, p)
			}
		}
		if err := priceStore.InsertBulk(ctx, points); err != nil {
			return err
		}
	}
	return nil
}

func weekdays(start time.Time, n int) []int64 {
	out := make([]int64, 0, n)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for len(out) < n {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, day.UnixMilli())
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}
