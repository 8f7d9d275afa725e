package memory

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
			{Mint: "BASE-A", Vault: "vault-a"},
			{Mint: "BASE-B", Vault: "vault-b"},
			{Mint: "QUOTE", Vault: "vault-q"},
		},
		Markets: []core.MarketParam{
			{Venue: "market-a", Oracle: "oracle-a"},
			{Venue: "market-b", Oracle: "oracle-b"},
		},
		MaintRatio: "1.1",
		InitRatio:  "1.2",
	}, time.Unix(1700000000, 0))
	require.Nil(t, err)

	return group
}

func TestSaveIsolatesRecords(t *testing.T) {
	store := New()
	ctx := context.Background()

	group := testGroup(t)
	require.Nil(t, store.Groups().Save(ctx, group))

	// a checked-out copy never leaks mutations back
	loaded, err := store.Groups().Find(ctx, "group")
	require.Nil(t, err)
	loaded.Assets[0].TotalDepositShares = fixnum.FromUint(999)

	fresh, err := store.Groups().Find(ctx, "group")
	require.Nil(t, err)
	assert.True(t, fresh.Assets[0].TotalDepositShares.IsZero())

	// same the other way: mutating the saved original changes nothing
	group.Signer = "other"
	fresh, err = store.Groups().Find(ctx, "group")
	require.Nil(t, err)
	assert.Equal(t, "signer", fresh.Signer)
}

func TestFindUnknown(t *testing.T) {
	store := New()

	_, err := store.Groups().Find(context.Background(), "missing")
	assert.Equal(t, core.ErrRecordMismatch, err)
}

func TestKindChecked(t *testing.T) {
	store := New()
	ctx := context.Background()

	group := testGroup(t)
	require.Nil(t, store.Groups().Save(ctx, group))

	// a group id is not an account id
	_, err := store.Accounts().Find(ctx, "group")
	assert.Equal(t, core.ErrRecordMismatch, err)

	account := core.NewMarginAccount(group, "alice")
	account.ID = "group"
	err = store.Accounts().Save(ctx, account)
	assert.Equal(t, core.ErrRecordMismatch, err)
}

func TestAccountsByOwner(t *testing.T) {
	store := New()
	ctx := context.Background()
	group := testGroup(t)

	a1 := core.NewMarginAccount(group, "alice")
	a1.ID = "a1"
	a2 := core.NewMarginAccount(group, "alice")
	a2.ID = "a2"
	b1 := core.NewMarginAccount(group, "bob")
	b1.ID = "b1"

	for _, a := range []*core.MarginAccount{a2, b1, a1} {
		require.Nil(t, store.Accounts().Save(ctx, a))
	}

	accounts, err := store.Accounts().FindByOwner(ctx, "alice")
	require.Nil(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a1", accounts[0].ID)
	assert.Equal(t, "a2", accounts[1].ID)

	all, err := store.Accounts().All(ctx)
	require.Nil(t, err)
	assert.Len(t, all, 3)
}
