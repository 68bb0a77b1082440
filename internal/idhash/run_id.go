package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"commodity-momentum-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(strategy_type|universe|params|start_ms|end_ms)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	strategyType domain.StrategyType,
	universe string,
	params string,
	startMs int64,
	endMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		string(strategyType),
		universe,
		params,
		startMs,
		endMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// MomentumParams formats momentum parameters for ComputeRunID.
func MomentumParams(p domain.MomentumParams) string {
	return fmt.Sprintf("k=%d|x=%d|rf=%s|ppy=%s",
		p.K, p.Lookback, formatFloat(p.RiskFreeRate), formatFloat(p.PeriodsPerYear))
}

// CrossoverParams formats single-pair crossover parameters for ComputeRunID.
func CrossoverParams(p domain.CrossoverParams) string {
	return fmt.Sprintf("short=%d|long=%d|rf=%s|ppy=%s",
		p.Short, p.Long, formatFloat(p.RiskFreeRate), formatFloat(p.PeriodsPerYear))
}

// GridParams formats grid search parameters for ComputeRunID.
// Window lists are used in the order given.
func GridParams(shorts, longs []int, topN int, riskFreeRate, periodsPerYear float64) string {
	return fmt.Sprintf("grid|shorts=%s|longs=%s|top=%d|rf=%s|ppy=%s",
		joinInts(shorts), joinInts(longs), topN, formatFloat(riskFreeRate), formatFloat(periodsPerYear))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
