package normalization

import (
	"context"

	"github.com/sirupsen/logrus"

	"commodity-momentum-lab/internal/domain"
	"commodity-momentum-lab/internal/storage"
)

// NormalizationEngine defines the main normalization interface.
type NormalizationEngine interface {
	// NormalizeAsset turns stored prices of one asset into stored period returns.
	NormalizeAsset(ctx context.Context, asset string) (*AssetResult, error)
}

// Options controls return generation.
type Options struct {
	Period         domain.Period
	RemoveOutliers bool
}

// AssetResult summarizes one normalized asset.
type AssetResult struct {
	Asset            string
	Prices           int
	Returns          int
	OutliersRepaired int
}

// OutlierObserver receives the number of repaired values per asset.
type OutlierObserver interface {
	ObserveOutliers(asset string, repaired int)
}

// Runner implements NormalizationEngine.
type Runner struct {
	priceStore  storage.PriceSeriesStore
	returnStore storage.ReturnSeriesStore
	opts        Options
	observer    OutlierObserver
	log         logrus.FieldLogger
}

// NewRunner creates a new normalization runner.
func NewRunner(
	priceStore storage.PriceSeriesStore,
	returnStore storage.ReturnSeriesStore,
	opts Options,
	log logrus.FieldLogger,
) *Runner {
	return &Runner{
		priceStore:  priceStore,
		returnStore: returnStore,
		opts:        opts,
		log:         log,
	}
}

// WithObserver attaches an outlier observer (metrics).
func (r *Runner) WithObserver(o OutlierObserver) *Runner {
	r.observer = o
	return r
}
