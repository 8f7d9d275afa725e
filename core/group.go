package core

import (
	"context"
	"time"

	"margin/pkg/fixnum"
)

const (
	// NumAssets number of assets in a group; the last slot is the quote currency
	NumAssets = 3
	// NumMarkets number of spot markets, one per base asset
	NumMarkets = NumAssets - 1
	// QuoteIndex slot of the quote currency
	QuoteIndex = NumAssets - 1

	// SecondsPerYear used to express yearly rates per second
	SecondsPerYear = 31536000
)

// Index converts between index-adjusted shares and native amounts for
// one asset. Both factors start at exactly 1 when the asset is listed
// and only grow under accrual; the deposit factor shrinks only through
// loss socialization.
type Index struct {
	LastUpdate int64        `json:"last_update"`
	Borrow     fixnum.Fixed `json:"borrow"`
	Deposit    fixnum.Fixed `json:"deposit"`
}

// AssetSlot per-asset pool state.
type AssetSlot struct {
	Mint               string       `json:"mint"`
	Vault              string       `json:"vault"`
	Decimals           uint8        `json:"decimals"`
	Index              Index        `json:"index"`
	TotalDepositShares fixnum.Fixed `json:"total_deposit_shares"`
	TotalBorrowShares  fixnum.Fixed `json:"total_borrow_shares"`
}

// AssetGroup a set of spot markets cross-margined together. One record
// per pool, exclusively checked out by the host for each operation.
type AssetGroup struct {
	ID             string                  `json:"id"`
	Signer         string                  `json:"signer"`
	Admin          string                  `json:"admin"`
	Assets         [NumAssets]AssetSlot    `json:"assets"`
	SpotMarkets    [NumMarkets]string      `json:"spot_markets"`
	Oracles        [NumMarkets]string      `json:"oracles"`
	OracleDecimals [NumMarkets]uint8       `json:"oracle_decimals"`
	MaintRatio     fixnum.Fixed            `json:"maint_ratio"`
	InitRatio      fixnum.Fixed            `json:"init_ratio"`
	BorrowCeilings [NumAssets]uint64       `json:"borrow_ceilings"`
}

// AssetParam listing parameters for one asset slot.
type AssetParam struct {
	Mint          string `json:"mint" yaml:"mint"`
	Vault         string `json:"vault" yaml:"vault"`
	Decimals      uint8  `json:"decimals" yaml:"decimals"`
	BorrowCeiling uint64 `json:"borrow_ceiling" yaml:"borrow_ceiling"`
}

// MarketParam listing parameters for one spot market.
type MarketParam struct {
	Venue          string `json:"venue" yaml:"venue"`
	Oracle         string `json:"oracle" yaml:"oracle"`
	OracleDecimals uint8  `json:"oracle_decimals" yaml:"oracle_decimals"`
}

// GroupParams genesis configuration of a group.
type GroupParams struct {
	ID         string        `json:"id" yaml:"id"`
	Signer     string        `json:"signer" yaml:"signer"`
	Admin      string        `json:"admin" yaml:"admin"`
	Assets     []AssetParam  `json:"assets" yaml:"assets"`
	Markets    []MarketParam `json:"markets" yaml:"markets"`
	MaintRatio string        `json:"maint_ratio" yaml:"maint_ratio"`
	InitRatio  string        `json:"init_ratio" yaml:"init_ratio"`
}

// NewAssetGroup group genesis: indexes at exactly 1, aggregates zeroed.
func NewAssetGroup(params GroupParams, now time.Time) (*AssetGroup, error) {
	if len(params.Assets) != NumAssets || len(params.Markets) != NumMarkets {
		return nil, ErrRecordMismatch
	}

	maint, err := fixnum.New(params.MaintRatio)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	init, err := fixnum.New(params.InitRatio)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	if !init.GreaterThanOrEqual(maint) || !maint.GreaterThanOrEqual(fixnum.One) {
		return nil, ErrInvalidAmount
	}

	group := AssetGroup{
		ID:         params.ID,
		Signer:     params.Signer,
		Admin:      params.Admin,
		MaintRatio: maint,
		InitRatio:  init,
	}

	ts := now.UTC().Unix()
	for i, asset := range params.Assets {
		group.Assets[i] = AssetSlot{
			Mint:     asset.Mint,
			Vault:    asset.Vault,
			Decimals: asset.Decimals,
			Index: Index{
				LastUpdate: ts,
				Borrow:     fixnum.One,
				Deposit:    fixnum.One,
			},
		}
		group.BorrowCeilings[i] = asset.BorrowCeiling
	}

	for i, market := range params.Markets {
		group.SpotMarkets[i] = market.Venue
		group.Oracles[i] = market.Oracle
		group.OracleDecimals[i] = market.OracleDecimals
	}

	return &group, nil
}

// TokenIndex slot of the asset with the given mint.
func (g *AssetGroup) TokenIndex(mint string) (int, bool) {
	for i := range g.Assets {
		if g.Assets[i].Mint == mint {
			return i, true
		}
	}

	return 0, false
}

// TokenIndexByVault slot of the asset stored in the given vault.
func (g *AssetGroup) TokenIndexByVault(vault string) (int, bool) {
	for i := range g.Assets {
		if g.Assets[i].Vault == vault {
			return i, true
		}
	}

	return 0, false
}

// MarketIndex market slot for the given venue record.
func (g *AssetGroup) MarketIndex(venue string) (int, bool) {
	for i := range g.SpotMarkets {
		if g.SpotMarkets[i] == venue {
			return i, true
		}
	}

	return 0, false
}

// TotalNativeDeposit pool deposits in native units, rounded down.
func (g *AssetGroup) TotalNativeDeposit(i int) (uint64, error) {
	native, err := g.Assets[i].TotalDepositShares.Mul(g.Assets[i].Index.Deposit)
	if err != nil {
		return 0, ErrMathFault
	}

	return native.Floor(), nil
}

// TotalNativeBorrow pool borrows in native units, rounded up.
func (g *AssetGroup) TotalNativeBorrow(i int) (uint64, error) {
	native, err := g.Assets[i].TotalBorrowShares.Mul(g.Assets[i].Index.Borrow)
	if err != nil {
		return 0, ErrMathFault
	}

	return native.Ceil(), nil
}

// HasValidDepositsBorrows native deposits cover native borrows for the
// asset. Checked after every mutating operation, never assumed.
func (g *AssetGroup) HasValidDepositsBorrows(i int) bool {
	deposits, err := g.TotalNativeDeposit(i)
	if err != nil {
		return false
	}

	borrows, err := g.TotalNativeBorrow(i)
	if err != nil {
		return false
	}

	return deposits >= borrows
}

// SetBorrowCeiling admin-only ceiling amendment.
func (g *AssetGroup) SetBorrowCeiling(ctx context.Context, admin string, i int, ceiling uint64) error {
	if admin != g.Admin {
		return ErrNotAuthorized
	}

	if i < 0 || i >= NumAssets {
		return ErrAssetNotFound
	}

	g.BorrowCeilings[i] = ceiling
	return nil
}

// Clone deep copy; records are value types apart from the pointer itself.
func (g *AssetGroup) Clone() *AssetGroup {
	dup := *g
	return &dup
}
