package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"commodity-momentum-lab/internal/reporting"
	"commodity-momentum-lab/internal/storage"
)

// Requirements are the minimum data needed for a meaningful backtest.
type Requirements struct {
	// MinAssets is the number of assets with returns; 2K for momentum.
	MinAssets int
	// MinPeriods is the number of defined returns per asset; the longest
	// window plus one realized return.
	MinPeriods int
}

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // assets that fail a per-asset check
}

// SufficiencyChecker validates stored returns before backtests and reports.
type SufficiencyChecker struct {
	returnStore storage.ReturnSeriesStore
	req         Requirements
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(returnStore storage.ReturnSeriesStore, req Requirements) *SufficiencyChecker {
	return &SufficiencyChecker{returnStore: returnStore, req: req}
}

// Check performs the sufficiency checks against the return store.
func (c *SufficiencyChecker) Check(ctx context.Context) (*SufficiencyResult, error) {
	assets, err := c.returnStore.ListAssets(ctx)
	if err != nil {
		return nil, err
	}

	result := &SufficiencyResult{Checks: make([]SufficiencyCheck, 0, 3)}

	// 1. Universe size
	result.Checks = append(result.Checks, SufficiencyCheck{
		Name:      "Assets with returns",
		Threshold: fmt.Sprintf(">= %d", c.req.MinAssets),
		Actual:    fmt.Sprintf("%d", len(assets)),
		Pass:      len(assets) >= c.req.MinAssets,
	})

	// 2. History length and 3. empty series
	defined := make(map[string]int, len(assets))
	for _, asset := range assets {
		points, err := c.returnStore.GetByAsset(ctx, asset)
		if err != nil {
			return nil, err
		}
		n := 0
		for _, p := range points {
			if !math.IsNaN(p.Value) {
				n++
			}
		}
		defined[asset] = n
	}

	shortest, shortestAsset := math.MaxInt, ""
	var short, empty []string
	for _, asset := range assets {
		n := defined[asset]
		if n < shortest {
			shortest, shortestAsset = n, asset
		}
		if n < c.req.MinPeriods {
			short = append(short, asset)
		}
		if n == 0 {
			empty = append(empty, asset)
		}
	}
	sort.Strings(short)

	actual := "n/a"
	if shortestAsset != "" {
		actual = fmt.Sprintf("%d (%s)", shortest, shortestAsset)
	}
	result.Checks = append(result.Checks, SufficiencyCheck{
		Name:      "Shortest return history",
		Threshold: fmt.Sprintf(">= %d periods", c.req.MinPeriods),
		Actual:    actual,
		Pass:      shortestAsset != "" && len(short) == 0,
	})
	result.Checks = append(result.Checks, SufficiencyCheck{
		Name:      "Assets without defined returns",
		Threshold: "0",
		Actual:    fmt.Sprintf("%d", len(empty)),
		Pass:      len(empty) == 0,
	})

	for _, asset := range short {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s: %d defined returns, need %d", asset, defined[asset], c.req.MinPeriods))
	}

	result.AllPass = true
	for _, check := range result.Checks {
		if !check.Pass {
			result.AllPass = false
			break
		}
	}
	return result, nil
}

// Summary renders failing checks as one line, empty when all pass.
func (r *SufficiencyResult) Summary() string {
	var failed []string
	for _, c := range r.Checks {
		if !c.Pass {
			failed = append(failed, fmt.Sprintf("%s: %s (want %s)", c.Name, c.Actual, c.Threshold))
		}
	}
	return strings.Join(failed, "; ")
}

func convertToDataQuality(result *SufficiencyResult) reporting.DataQualitySection {
	dq := reporting.DataQualitySection{AllChecksPassed: result.AllPass}
	for _, c := range result.Checks {
		dq.Checks = append(dq.Checks, reporting.QualityCheck{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		})
	}
	return dq
}
