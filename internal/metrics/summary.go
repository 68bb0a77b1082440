package metrics

import (
	"fmt"

	"commodity-momentum-lab/internal/domain"
)

// MomentumSummary computes the performance record of a cross-sectional run.
// Drawdown is taken on the running-sum cumulative series.
func MomentumSummary(returns []float64, riskFreeRate, periodsPerYear float64) domain.PerformanceSummary {
	annRet := AnnualizedReturn(returns, periodsPerYear)
	annStd := AnnualizedStdDev(returns, periodsPerYear)
	mdd := MaxDrawdown(CumSum(returns))

	return domain.PerformanceSummary{
		SharpeRatio:      SharpeRatio(annRet, annStd, riskFreeRate),
		AnnualizedReturn: annRet,
		AnnualizedStdDev: annStd,
		MaxDrawdown:      &mdd,
	}
}

// CrossoverSummary computes the performance record of a single-asset crossover run.
// Cumulative return and CAGR follow the compounded convention.
func CrossoverSummary(returns []float64, index []int64, riskFreeRate, periodsPerYear float64) (domain.PerformanceSummary, error) {
	if len(returns) != len(index) {
		return domain.PerformanceSummary{}, fmt.Errorf("%w: %d returns for %d timestamps",
			domain.ErrMisalignedInput, len(returns), len(index))
	}

	annRet := AnnualizedReturn(returns, periodsPerYear)
	annStd := AnnualizedStdDev(returns, periodsPerYear)
	cum := Final(CumProd(returns))

	var years float64
	if len(index) > 0 {
		years = Years(index[0], index[len(index)-1])
	}
	cagr := CAGR(cum, years)

	return domain.PerformanceSummary{
		SharpeRatio:      SharpeRatio(annRet, annStd, riskFreeRate),
		AnnualizedReturn: annRet,
		AnnualizedStdDev: annStd,
		CumulativeReturn: &cum,
		CAGR:             &cagr,
	}, nil
}
