package core

import "context"

// PriceFeed one oracle reading: the last known price of a base asset in
// quote terms, scaled by the feed's own decimal precision.
type PriceFeed struct {
	Oracle   string `json:"oracle"`
	Median   uint64 `json:"median"`
	Decimals uint8  `json:"decimals"`
}

// IOracleService supplies one feed per market, in market order.
type IOracleService interface {
	Feeds(ctx context.Context, group *AssetGroup) ([NumMarkets]PriceFeed, error)
}
