package optimizer

import (
	"commodity-momentum-lab/internal/backtest"
	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/metrics"
)

// CompareMomentumPeriods runs the momentum strategy once per lookback and
// returns one comparison row per lookback, in the order given.
func CompareMomentumPeriods(returns *domain.Panel, lookbacks []int, k int, riskFreeRate, periodsPerYear float64) ([]*domain.MomentumComparison, error) {
	rows := make([]*domain.MomentumComparison, 0, len(lookbacks))
	for _, x := range lookbacks {
		res, err := backtest.RunMomentum(returns, domain.MomentumParams{
			K:              k,
			Lookback:       x,
			RiskFreeRate:   riskFreeRate,
			PeriodsPerYear: periodsPerYear,
		})
		if err != nil {
			return nil, err
		}

		cumulative := 0.0
		if len(res.StrategyReturns) > 0 {
			cumulative = metrics.Final(metrics.CumProd(res.StrategyReturns))
		}

		rows = append(rows, &domain.MomentumComparison{
			Lookback:         x,
			AnnualizedReturn: res.Summary.AnnualizedReturn,
			AnnualizedStdDev: res.Summary.AnnualizedStdDev,
			SharpeRatio:      res.Summary.SharpeRatio,
			CumulativeReturn: cumulative,
		})
	}
	return rows, nil
}
