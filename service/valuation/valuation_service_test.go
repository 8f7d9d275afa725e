package valuation

import (
	"context"
	"testing"
	"time"

	"margin/core"
	"margin/pkg/fixnum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroup(t *testing.T) *core.AssetGroup {
	t.Helper()

	group, err := core.NewAssetGroup(core.GroupParams{
		ID:     "group",
		Signer: "signer",
		Admin:  "admin",
		Assets: []core.AssetParam{
			{Mint: "BASE-A", Vault: "vault-a", Decimals: 0},
			{Mint: "BASE-B", Vault: "vault-b", Decimals: 0},
			{Mint: "QUOTE", Vault: "vault-q", Decimals: 1},
		},
		Markets: []core.MarketParam{
			{Venue: "market-a", Oracle: "oracle-a", OracleDecimals: 1},
			{Venue: "market-b", Oracle: "oracle-b", OracleDecimals: 1},
		},
		MaintRatio: "1.1",
		InitRatio:  "1.2",
	}, time.Unix(1700000000, 0))
	require.Nil(t, err)

	return group
}

func testFeeds(medianA, medianB uint64) [core.NumMarkets]core.PriceFeed {
	return [core.NumMarkets]core.PriceFeed{
		{Oracle: "oracle-a", Median: medianA, Decimals: 1},
		{Oracle: "oracle-b", Median: medianB, Decimals: 1},
	}
}

func TestPrices(t *testing.T) {
	group := testGroup(t)
	s := New()

	prices, err := s.Prices(context.Background(), group, testFeeds(10, 25))
	require.Nil(t, err)

	assert.Equal(t, "10", prices[0].String())
	assert.Equal(t, "25", prices[1].String())
	assert.Equal(t, "1", prices[core.QuoteIndex].String())
}

func TestPricesDecimalAdjustment(t *testing.T) {
	group := testGroup(t)
	group.Assets[0].Decimals = 3
	group.Assets[core.QuoteIndex].Decimals = 6
	group.OracleDecimals[0] = 2

	feeds := testFeeds(55, 10)
	feeds[0].Decimals = 2

	s := New()
	prices, err := s.Prices(context.Background(), group, feeds)
	require.Nil(t, err)

	// 55 * 10^(6-2) / 10^3
	assert.Equal(t, "550", prices[0].String())
}

func TestPricesOracleMismatch(t *testing.T) {
	group := testGroup(t)

	feeds := testFeeds(10, 25)
	feeds[1].Oracle = "oracle-x"

	_, err := New().Prices(context.Background(), group, feeds)
	assert.Equal(t, core.ErrRecordMismatch, err)
}

func TestCollateralRatioScenarioA(t *testing.T) {
	group := testGroup(t)
	account := core.NewMarginAccount(group, "alice")
	ctx := context.Background()
	s := New()

	// deposit 1000 QUOTE (10000 native), borrow 500 BASE-A at price 1.0
	account.DepositShares[core.QuoteIndex] = fixnum.FromUint(10000)
	group.Assets[core.QuoteIndex].TotalDepositShares = fixnum.FromUint(10000)
	account.BorrowShares[0] = fixnum.FromUint(500)
	group.Assets[0].TotalBorrowShares = fixnum.FromUint(500)

	prices, err := s.Prices(ctx, group, testFeeds(10, 10))
	require.Nil(t, err)

	ratio, err := s.CollateralRatio(ctx, group, account, prices, [core.NumMarkets]*core.OpenOrders{})
	require.Nil(t, err)
	assert.Equal(t, "2", ratio.String())

	// BASE-A rises to 2.5: liabilities 12500 against 10000 of assets
	prices, err = s.Prices(ctx, group, testFeeds(25, 10))
	require.Nil(t, err)

	ratio, err = s.CollateralRatio(ctx, group, account, prices, [core.NumMarkets]*core.OpenOrders{})
	require.Nil(t, err)
	assert.Equal(t, "0.8", ratio.String())
	assert.True(t, ratio.LessThan(group.MaintRatio))
	assert.True(t, ratio.LessThan(fixnum.One))
}

func TestZeroLiabilityRatio(t *testing.T) {
	group := testGroup(t)
	account := core.NewMarginAccount(group, "alice")

	ratio, err := New().CollateralRatio(context.Background(), group, account, [core.NumAssets]fixnum.Fixed{}, [core.NumMarkets]*core.OpenOrders{})
	require.Nil(t, err)
	assert.True(t, ratio.Equal(fixnum.Max))
}

func TestOpenOrdersValued(t *testing.T) {
	group := testGroup(t)
	account := core.NewMarginAccount(group, "alice")
	ctx := context.Background()
	s := New()

	account.OpenOrders[0] = "oo-a"
	orders := [core.NumMarkets]*core.OpenOrders{
		{ID: "oo-a", Market: "market-a", Owner: "signer", BaseTotal: 10, QuoteTotal: 100},
		nil,
	}

	prices, err := s.Prices(ctx, group, testFeeds(10, 10))
	require.Nil(t, err)

	assets, err := s.AssetsValue(ctx, group, account, prices, orders)
	require.Nil(t, err)
	// 10 base at price 10 plus 100 raw quote units
	assert.Equal(t, "200", assets.String())
}

func TestOpenOrdersMismatch(t *testing.T) {
	group := testGroup(t)
	account := core.NewMarginAccount(group, "alice")
	account.OpenOrders[0] = "oo-a"

	orders := [core.NumMarkets]*core.OpenOrders{
		{ID: "oo-x", Market: "market-a"},
		nil,
	}

	_, err := New().AssetsValue(context.Background(), group, account, [core.NumAssets]fixnum.Fixed{}, orders)
	assert.Equal(t, core.ErrOpenOrdersMismatch, err)
}

func TestEquity(t *testing.T) {
	group := testGroup(t)
	account := core.NewMarginAccount(group, "alice")
	ctx := context.Background()
	s := New()

	account.DepositShares[core.QuoteIndex] = fixnum.FromUint(10000)
	group.Assets[core.QuoteIndex].TotalDepositShares = fixnum.FromUint(10000)
	account.BorrowShares[0] = fixnum.FromUint(500)
	group.Assets[0].TotalBorrowShares = fixnum.FromUint(500)

	prices, err := s.Prices(ctx, group, testFeeds(10, 10))
	require.Nil(t, err)

	equity, err := s.Equity(ctx, group, account, prices, [core.NumMarkets]*core.OpenOrders{})
	require.Nil(t, err)
	assert.Equal(t, "5000", equity.String())

	// underwater equity floors at zero instead of going negative
	underwater, err := s.Prices(ctx, group, testFeeds(25, 10))
	require.Nil(t, err)

	equity, err = s.Equity(ctx, group, account, underwater, [core.NumMarkets]*core.OpenOrders{})
	require.Nil(t, err)
	assert.True(t, equity.IsZero())
}

func TestCollateralDeficit(t *testing.T) {
	group := testGroup(t)
	account := core.NewMarginAccount(group, "alice")
	ctx := context.Background()
	s := New()

	account.DepositShares[core.QuoteIndex] = fixnum.FromUint(10000)
	group.Assets[core.QuoteIndex].TotalDepositShares = fixnum.FromUint(10000)
	account.BorrowShares[0] = fixnum.FromUint(500)
	group.Assets[0].TotalBorrowShares = fixnum.FromUint(500)

	prices, err := s.Prices(ctx, group, testFeeds(25, 10))
	require.Nil(t, err)

	deficit, err := s.CollateralDeficit(ctx, group, account, prices, [core.NumMarkets]*core.OpenOrders{})
	require.Nil(t, err)
	// liabs 12500 * 1.2 - assets 10000
	assert.Equal(t, uint64(5000), deficit)

	healthy, err := s.Prices(ctx, group, testFeeds(10, 10))
	require.Nil(t, err)

	deficit, err = s.CollateralDeficit(ctx, group, account, healthy, [core.NumMarkets]*core.OpenOrders{})
	require.Nil(t, err)
	assert.Equal(t, uint64(0), deficit)
}
