package valuation

import (
	"context"

	"margin/core"
	"margin/pkg/fixnum"

	"github.com/shopspring/decimal"
)

type valuationService struct{}

// New new valuation service
func New() core.IValuationService {
	return &valuationService{}
}

func pow10(n uint8) fixnum.Fixed {
	f, err := fixnum.FromDecimal(decimal.New(1, int32(n)))
	if err != nil {
		panic(err)
	}

	return f
}

// Prices quote-currency price per native unit of every asset, adjusted
// for the decimal precision of the quote, the oracle and the base. The
// quote currency itself is exactly 1.
func (s *valuationService) Prices(ctx context.Context, group *core.AssetGroup, feeds [core.NumMarkets]core.PriceFeed) ([core.NumAssets]fixnum.Fixed, error) {
	var prices [core.NumAssets]fixnum.Fixed
	prices[core.QuoteIndex] = fixnum.One

	quoteDecimals := group.Assets[core.QuoteIndex].Decimals

	for i := 0; i < core.NumMarkets; i++ {
		if feeds[i].Oracle != group.Oracles[i] {
			return prices, core.ErrRecordMismatch
		}
		if feeds[i].Decimals != group.OracleDecimals[i] {
			return prices, core.ErrInvalidPrice
		}
		if group.OracleDecimals[i] > quoteDecimals {
			return prices, core.ErrInvalidPrice
		}

		quoteAdj := pow10(quoteDecimals - group.OracleDecimals[i])
		baseAdj := pow10(group.Assets[i].Decimals)

		adj, err := quoteAdj.Div(baseAdj)
		if err != nil {
			return prices, core.ErrMathFault
		}

		price, err := adj.Mul(fixnum.FromUint(feeds[i].Median))
		if err != nil {
			return prices, core.ErrMathFault
		}

		prices[i] = price
	}

	return prices, nil
}

// AssetsValue deposits plus everything resting on the venue, valued in
// quote terms. A market the account never traded contributes nothing.
func (s *valuationService) AssetsValue(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, prices [core.NumAssets]fixnum.Fixed, orders [core.NumMarkets]*core.OpenOrders) (fixnum.Fixed, error) {
	assets := fixnum.Zero

	for i := 0; i < core.NumMarkets; i++ {
		if account.OpenOrders[i] == "" {
			continue
		}

		if orders[i] == nil || orders[i].ID != account.OpenOrders[i] {
			return fixnum.Zero, core.ErrOpenOrdersMismatch
		}

		baseValue, err := fixnum.FromUint(orders[i].BaseTotal).Mul(prices[i])
		if err != nil {
			return fixnum.Zero, core.ErrMathFault
		}

		assets, err = assets.Add(baseValue)
		if err != nil {
			return fixnum.Zero, core.ErrMathFault
		}

		assets, err = assets.Add(fixnum.FromUint(orders[i].QuoteTotal))
		if err != nil {
			return fixnum.Zero, core.ErrMathFault
		}
	}

	for i := 0; i < core.NumAssets; i++ {
		native, err := account.DepositShares[i].Mul(group.Assets[i].Index.Deposit)
		if err != nil {
			return fixnum.Zero, core.ErrMathFault
		}

		value, err := native.Mul(prices[i])
		if err != nil {
			return fixnum.Zero, core.ErrMathFault
		}

		assets, err = assets.Add(value)
		if err != nil {
			return fixnum.Zero, core.ErrMathFault
		}
	}

	return assets, nil
}

// LiabilitiesValue borrows valued in quote terms.
func (s *valuationService) LiabilitiesValue(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, prices [core.NumAssets]fixnum.Fixed) (fixnum.Fixed, error) {
	liabs := fixnum.Zero

	for i := 0; i < core.NumAssets; i++ {
		native, err := account.BorrowShares[i].Mul(group.Assets[i].Index.Borrow)
		if err != nil {
			return fixnum.Zero, core.ErrMathFault
		}

		value, err := native.Mul(prices[i])
		if err != nil {
			return fixnum.Zero, core.ErrMathFault
		}

		liabs, err = liabs.Add(value)
		if err != nil {
			return fixnum.Zero, core.ErrMathFault
		}
	}

	return liabs, nil
}

// CollateralRatio assets over liabilities. A debt-free account has the
// maximum representable ratio, never a division fault.
func (s *valuationService) CollateralRatio(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, prices [core.NumAssets]fixnum.Fixed, orders [core.NumMarkets]*core.OpenOrders) (fixnum.Fixed, error) {
	assets, err := s.AssetsValue(ctx, group, account, prices, orders)
	if err != nil {
		return fixnum.Zero, err
	}

	liabs, err := s.LiabilitiesValue(ctx, group, account, prices)
	if err != nil {
		return fixnum.Zero, err
	}

	if liabs.IsZero() {
		return fixnum.Max, nil
	}

	ratio, err := assets.Div(liabs)
	if err != nil {
		return fixnum.Zero, core.ErrMathFault
	}

	return ratio, nil
}

// Equity assets minus liabilities, floored at zero.
func (s *valuationService) Equity(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, prices [core.NumAssets]fixnum.Fixed, orders [core.NumMarkets]*core.OpenOrders) (fixnum.Fixed, error) {
	assets, err := s.AssetsValue(ctx, group, account, prices, orders)
	if err != nil {
		return fixnum.Zero, err
	}

	liabs, err := s.LiabilitiesValue(ctx, group, account, prices)
	if err != nil {
		return fixnum.Zero, err
	}

	if liabs.GreaterThan(assets) {
		return fixnum.Zero, nil
	}

	return assets.Sub(liabs)
}

// CollateralDeficit quote value the account still needs to reach the
// initial ratio; zero for a healthy or debt-free account.
func (s *valuationService) CollateralDeficit(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, prices [core.NumAssets]fixnum.Fixed, orders [core.NumMarkets]*core.OpenOrders) (uint64, error) {
	assets, err := s.AssetsValue(ctx, group, account, prices, orders)
	if err != nil {
		return 0, err
	}

	liabs, err := s.LiabilitiesValue(ctx, group, account, prices)
	if err != nil {
		return 0, err
	}

	if liabs.IsZero() {
		return 0, nil
	}

	required, err := liabs.Mul(group.InitRatio)
	if err != nil {
		return 0, core.ErrMathFault
	}

	if assets.GreaterThanOrEqual(required) {
		return 0, nil
	}

	deficit, err := required.Sub(assets)
	if err != nil {
		return 0, core.ErrMathFault
	}

	return deficit.Ceil(), nil
}
