package core

import (
	"context"

	"margin/pkg/fixnum"
)

// IValuationService prices and account valuation in quote terms. Pure
// reads; every value is derived from live ledger state plus the feeds.
type IValuationService interface {
	Prices(ctx context.Context, group *AssetGroup, feeds [NumMarkets]PriceFeed) ([NumAssets]fixnum.Fixed, error)
	AssetsValue(ctx context.Context, group *AssetGroup, account *MarginAccount, prices [NumAssets]fixnum.Fixed, orders [NumMarkets]*OpenOrders) (fixnum.Fixed, error)
	LiabilitiesValue(ctx context.Context, group *AssetGroup, account *MarginAccount, prices [NumAssets]fixnum.Fixed) (fixnum.Fixed, error)
	CollateralRatio(ctx context.Context, group *AssetGroup, account *MarginAccount, prices [NumAssets]fixnum.Fixed, orders [NumMarkets]*OpenOrders) (fixnum.Fixed, error)
	Equity(ctx context.Context, group *AssetGroup, account *MarginAccount, prices [NumAssets]fixnum.Fixed, orders [NumMarkets]*OpenOrders) (fixnum.Fixed, error)
	CollateralDeficit(ctx context.Context, group *AssetGroup, account *MarginAccount, prices [NumAssets]fixnum.Fixed, orders [NumMarkets]*OpenOrders) (uint64, error)
}

// ILedgerService the state-changing account operations. Every method
// refreshes indexes before converting between shares and native
// amounts, and either completes or leaves the records for the host to
// discard.
type ILedgerService interface {
	Deposit(ctx context.Context, group *AssetGroup, account *MarginAccount, caller string, asset int, amount uint64) error
	Withdraw(ctx context.Context, group *AssetGroup, account *MarginAccount, caller string, asset int, amount uint64, feeds [NumMarkets]PriceFeed, orders [NumMarkets]*OpenOrders) error
	Borrow(ctx context.Context, group *AssetGroup, account *MarginAccount, caller string, asset int, amount uint64, feeds [NumMarkets]PriceFeed, orders [NumMarkets]*OpenOrders) error
	SettleBorrow(ctx context.Context, group *AssetGroup, account *MarginAccount, caller string, asset int, amount uint64) error
	PlaceOrder(ctx context.Context, group *AssetGroup, account *MarginAccount, caller string, order OrderInstruction, feeds [NumMarkets]PriceFeed, orders [NumMarkets]*OpenOrders) error
	PlaceAndSettle(ctx context.Context, group *AssetGroup, account *MarginAccount, caller string, order OrderInstruction, feeds [NumMarkets]PriceFeed, orders [NumMarkets]*OpenOrders) error
	SettleFunds(ctx context.Context, group *AssetGroup, account *MarginAccount, caller string, market int, orders [NumMarkets]*OpenOrders) error
	CancelOrder(ctx context.Context, group *AssetGroup, account *MarginAccount, caller string, market int, orderID uint64, orders [NumMarkets]*OpenOrders) error
}

// ILiquidationService forced debt settlement of unhealthy accounts.
type ILiquidationService interface {
	Liquidate(ctx context.Context, group *AssetGroup, account *MarginAccount, liquidator string, deposits [NumAssets]uint64, feeds [NumMarkets]PriceFeed, orders [NumMarkets]*OpenOrders) error
	PartialLiquidate(ctx context.Context, group *AssetGroup, account *MarginAccount, liquidator string, deposits [NumAssets]uint64, feeds [NumMarkets]PriceFeed, orders [NumMarkets]*OpenOrders) error
}
