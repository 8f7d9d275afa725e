package core

import (
	"margin/pkg/fixnum"
	"margin/pkg/id"
)

// MarginAccount per-user ledger. Deposits and borrows are stored as
// index-adjusted shares; multiply by the current index for native
// amounts. The record survives liquidation, only its owner changes.
type MarginAccount struct {
	ID            string                    `json:"id"`
	GroupID       string                    `json:"group_id"`
	Owner         string                    `json:"owner"`
	DepositShares [NumAssets]fixnum.Fixed   `json:"deposit_shares"`
	BorrowShares  [NumAssets]fixnum.Fixed   `json:"borrow_shares"`
	// OpenOrders[i] is empty until the first order on market i; once
	// set it never changes for the life of the account.
	OpenOrders [NumMarkets]string `json:"open_orders"`
}

// NewMarginAccount zeroed account bound to the group.
func NewMarginAccount(group *AssetGroup, owner string) *MarginAccount {
	return &MarginAccount{
		ID:      id.GenTraceID(),
		GroupID: group.ID,
		Owner:   owner,
	}
}

// NativeDeposit account deposit in native units, rounded down.
func (a *MarginAccount) NativeDeposit(idx *Index, i int) (uint64, error) {
	native, err := a.DepositShares[i].Mul(idx.Deposit)
	if err != nil {
		return 0, ErrMathFault
	}

	return native.Floor(), nil
}

// NativeBorrow account borrow in native units, rounded down.
func (a *MarginAccount) NativeBorrow(idx *Index, i int) (uint64, error) {
	native, err := a.BorrowShares[i].Mul(idx.Borrow)
	if err != nil {
		return 0, ErrMathFault
	}

	return native.Floor(), nil
}

// CheckOpenOrders every supplied record must be the one pinned to the
// account for its market; an unused market must supply none.
func (a *MarginAccount) CheckOpenOrders(orders [NumMarkets]*OpenOrders) error {
	for i := 0; i < NumMarkets; i++ {
		if a.OpenOrders[i] == "" {
			if orders[i] != nil {
				return ErrOpenOrdersMismatch
			}
			continue
		}

		if orders[i] == nil || orders[i].ID != a.OpenOrders[i] {
			return ErrOpenOrdersMismatch
		}
	}

	return nil
}

// Clone deep copy.
func (a *MarginAccount) Clone() *MarginAccount {
	dup := *a
	return &dup
}
