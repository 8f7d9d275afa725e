package oracle

import (
	"context"

	"margin/core"
)

type staticOracle struct {
	medians []uint64
}

// New oracle service backed by fixed medians, one per market. Intended
// for single-node and test deployments; a live deployment supplies its
// own core.IOracleService.
func New(medians []uint64) core.IOracleService {
	return &staticOracle{medians: medians}
}

func (s *staticOracle) Feeds(ctx context.Context, group *core.AssetGroup) ([core.NumMarkets]core.PriceFeed, error) {
	var feeds [core.NumMarkets]core.PriceFeed

	if len(s.medians) != core.NumMarkets {
		return feeds, core.ErrInvalidPrice
	}

	for i := 0; i < core.NumMarkets; i++ {
		feeds[i] = core.PriceFeed{
			Oracle:   group.Oracles[i],
			Median:   s.medians[i],
			Decimals: group.OracleDecimals[i],
		}
	}

	return feeds, nil
}
