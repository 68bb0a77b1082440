package normalization

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

// NormalizeAsset processes a single asset.
// Steps:
//  1. Load prices from the price store
//  2. Compute period returns
//  3. Optionally repair outliers
//  4. Store returns
func (r *Runner) NormalizeAsset(ctx context.Context, asset string) (*AssetResult, error) {
	// 1. Load prices
	points, err := r.priceStore.GetByAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrNoSeries, asset)
	}
	prices := domain.NewSeries(asset, points)

	// 2. Period returns
	returns, err := PeriodReturns(prices, r.opts.Period)
	if err != nil {
		return nil, err
	}

	// 3. Outlier repair
	repaired := 0
	if r.opts.RemoveOutliers {
		returns, repaired, err = RepairOutliers(returns, r.opts.Period)
		if err != nil {
			return nil, err
		}
		if r.observer != nil {
			r.observer.ObserveOutliers(asset, repaired)
		}
	}

	// 4. Persist
	if err := r.returnStore.InsertBulk(ctx, returns.Points()); err != nil {
		return nil, fmt.Errorf("store returns for %s: %w", asset, err)
	}

	if r.log != nil {
		r.log.WithFields(logrus.Fields{
			"asset":    asset,
			"prices":   prices.Len(),
			"returns":  returns.Len(),
			"repaired": repaired,
			"period":   r.opts.Period,
		}).Debug("normalized asset")
	}

	return &AssetResult{
		Asset:            asset,
		Prices:           prices.Len(),
		Returns:          returns.Len(),
		OutliersRepaired: repaired,
	}, nil
}

// NormalizeBatch processes multiple assets.
func (r *Runner) NormalizeBatch(ctx context.Context, assets []string) ([]*AssetResult, error) {
	results := make([]*AssetResult, 0, len(assets))
	for _, asset := range assets {
		res, err := r.NormalizeAsset(ctx, asset)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// NormalizeAll processes every asset present in the price store.
func (r *Runner) NormalizeAll(ctx context.Context) ([]*AssetResult, error) {
	assets, err := r.priceStore.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	return r.NormalizeBatch(ctx, assets)
}
