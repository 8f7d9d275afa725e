package core

import (
	"context"
	"testing"
	"time"

	"margin/pkg/fixnum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroup(t *testing.T) *AssetGroup {
	t.Helper()

	group, err := NewAssetGroup(GroupParams{
		ID:     "group",
		Signer: "signer",
		Admin:  "admin",
		Assets: []AssetParam{
			{Mint: "BASE-A", Vault: "vault-a", Decimals: 6},
			{Mint: "BASE-B", Vault: "vault-b", Decimals: 6},
			{Mint: "QUOTE", Vault: "vault-q", Decimals: 6},
		},
		Markets: []MarketParam{
			{Venue: "market-a", Oracle: "oracle-a", OracleDecimals: 6},
			{Venue: "market-b", Oracle: "oracle-b", OracleDecimals: 6},
		},
		MaintRatio: "1.1",
		InitRatio:  "1.2",
	}, time.Unix(1700000000, 0))
	require.Nil(t, err)

	return group
}

func TestNewAssetGroup(t *testing.T) {
	group := testGroup(t)

	for i := range group.Assets {
		assert.True(t, group.Assets[i].Index.Borrow.Equal(fixnum.One))
		assert.True(t, group.Assets[i].Index.Deposit.Equal(fixnum.One))
		assert.Equal(t, int64(1700000000), group.Assets[i].Index.LastUpdate)
	}

	i, ok := group.TokenIndex("QUOTE")
	require.True(t, ok)
	assert.Equal(t, QuoteIndex, i)

	i, ok = group.TokenIndexByVault("vault-b")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = group.MarketIndex("market-x")
	assert.False(t, ok)
}

func TestNewAssetGroupRejectsBadRatios(t *testing.T) {
	params := GroupParams{
		ID: "group",
		Assets: []AssetParam{
			{Mint: "A"}, {Mint: "B"}, {Mint: "Q"},
		},
		Markets: []MarketParam{
			{Venue: "a"}, {Venue: "b"},
		},
		MaintRatio: "1.2",
		InitRatio:  "1.1",
	}

	_, err := NewAssetGroup(params, time.Now())
	assert.Equal(t, ErrInvalidAmount, err)

	params.MaintRatio = "0.9"
	params.InitRatio = "1.2"
	_, err = NewAssetGroup(params, time.Now())
	assert.Equal(t, ErrInvalidAmount, err)
}

func TestPairedShareUpdates(t *testing.T) {
	group := testGroup(t)
	account := NewMarginAccount(group, "alice")

	require.Nil(t, AddDeposit(group, account, 0, fixnum.FromUint(100)))
	require.Nil(t, AddBorrow(group, account, 0, fixnum.FromUint(40)))

	// the account and the pool always move together
	assert.True(t, account.DepositShares[0].Equal(group.Assets[0].TotalDepositShares))
	assert.True(t, account.BorrowShares[0].Equal(group.Assets[0].TotalBorrowShares))

	require.Nil(t, SubDeposit(group, account, 0, fixnum.FromUint(30)))
	require.Nil(t, SubBorrow(group, account, 0, fixnum.FromUint(10)))

	assert.True(t, account.DepositShares[0].Equal(fixnum.FromUint(70)))
	assert.True(t, group.Assets[0].TotalDepositShares.Equal(fixnum.FromUint(70)))

	// underflow leaves both sides untouched
	err := SubDeposit(group, account, 0, fixnum.FromUint(1000))
	assert.Equal(t, ErrMathFault, err)
	assert.True(t, account.DepositShares[0].Equal(fixnum.FromUint(70)))
	assert.True(t, group.Assets[0].TotalDepositShares.Equal(fixnum.FromUint(70)))
}

func TestSettleBorrowCapped(t *testing.T) {
	group := testGroup(t)
	account := NewMarginAccount(group, "alice")

	require.Nil(t, AddDeposit(group, account, 0, fixnum.FromUint(100)))
	require.Nil(t, AddBorrow(group, account, 0, fixnum.FromUint(40)))

	// capped by the borrow, not the requested quantity
	require.Nil(t, SettleBorrow(group, account, 0, 1000))
	assert.True(t, account.BorrowShares[0].IsZero())
	assert.True(t, account.DepositShares[0].Equal(fixnum.FromUint(60)))
}

func TestSettleBorrowCappedByDeposit(t *testing.T) {
	group := testGroup(t)
	account := NewMarginAccount(group, "alice")

	require.Nil(t, AddDeposit(group, account, 0, fixnum.FromUint(30)))
	require.Nil(t, AddBorrow(group, account, 0, fixnum.FromUint(40)))

	require.Nil(t, SettleBorrowFull(group, account, 0))
	assert.True(t, account.DepositShares[0].IsZero())
	assert.True(t, account.BorrowShares[0].Equal(fixnum.FromUint(10)))
}

func TestSettleBorrowAtGrownIndexes(t *testing.T) {
	group := testGroup(t)
	account := NewMarginAccount(group, "alice")

	group.Assets[0].Index.Deposit = fixnum.MustNew("1.05")
	group.Assets[0].Index.Borrow = fixnum.MustNew("1.25")

	require.Nil(t, AddDeposit(group, account, 0, fixnum.FromUint(100)))
	require.Nil(t, AddBorrow(group, account, 0, fixnum.FromUint(40)))

	// native: 105 of deposit against 50 of debt
	require.Nil(t, SettleBorrowFull(group, account, 0))

	native, err := account.NativeBorrow(&group.Assets[0].Index, 0)
	require.Nil(t, err)
	assert.Equal(t, uint64(0), native)

	native, err = account.NativeDeposit(&group.Assets[0].Index, 0)
	require.Nil(t, err)
	assert.Equal(t, uint64(55), native)
}

func TestHasValidDepositsBorrows(t *testing.T) {
	group := testGroup(t)
	account := NewMarginAccount(group, "alice")

	require.Nil(t, AddDeposit(group, account, 0, fixnum.FromUint(100)))
	require.Nil(t, AddBorrow(group, account, 0, fixnum.FromUint(100)))
	assert.True(t, group.HasValidDepositsBorrows(0))

	require.Nil(t, SubDeposit(group, account, 0, fixnum.FromUint(1)))
	assert.False(t, group.HasValidDepositsBorrows(0))
}

func TestSetBorrowCeiling(t *testing.T) {
	group := testGroup(t)
	ctx := context.Background()

	err := group.SetBorrowCeiling(ctx, "mallory", 0, 42)
	assert.Equal(t, ErrNotAuthorized, err)

	err = group.SetBorrowCeiling(ctx, "admin", NumAssets, 42)
	assert.Equal(t, ErrAssetNotFound, err)

	require.Nil(t, group.SetBorrowCeiling(ctx, "admin", 0, 42))
	assert.Equal(t, uint64(42), group.BorrowCeilings[0])
}

func TestCheckOpenOrders(t *testing.T) {
	group := testGroup(t)
	account := NewMarginAccount(group, "alice")

	require.Nil(t, account.CheckOpenOrders([NumMarkets]*OpenOrders{}))

	// supplying a record for an unused market is as wrong as omitting
	// one for a used market
	err := account.CheckOpenOrders([NumMarkets]*OpenOrders{{ID: "oo-a"}, nil})
	assert.Equal(t, ErrOpenOrdersMismatch, err)

	account.OpenOrders[0] = "oo-a"
	err = account.CheckOpenOrders([NumMarkets]*OpenOrders{})
	assert.Equal(t, ErrOpenOrdersMismatch, err)

	require.Nil(t, account.CheckOpenOrders([NumMarkets]*OpenOrders{{ID: "oo-a"}, nil}))
}
