package core

import (
	"margin/pkg/fixnum"
)

// Share mutation primitives. Each applies to the account and the pool
// aggregate in the same call, never one without the other, so the pool
// solvency check stays meaningful. Each computes every new value before
// assigning any of them, so a failed operation changes nothing.

// AddDeposit credit deposit shares to the account and the pool.
func AddDeposit(g *AssetGroup, a *MarginAccount, i int, shares fixnum.Fixed) error {
	account, err := a.DepositShares[i].Add(shares)
	if err != nil {
		return ErrMathFault
	}

	pool, err := g.Assets[i].TotalDepositShares.Add(shares)
	if err != nil {
		return ErrMathFault
	}

	a.DepositShares[i] = account
	g.Assets[i].TotalDepositShares = pool
	return nil
}

// SubDeposit remove deposit shares from the account and the pool.
func SubDeposit(g *AssetGroup, a *MarginAccount, i int, shares fixnum.Fixed) error {
	account, err := a.DepositShares[i].Sub(shares)
	if err != nil {
		return ErrMathFault
	}

	pool, err := g.Assets[i].TotalDepositShares.Sub(shares)
	if err != nil {
		return ErrMathFault
	}

	a.DepositShares[i] = account
	g.Assets[i].TotalDepositShares = pool
	return nil
}

// AddBorrow credit borrow shares to the account and the pool.
func AddBorrow(g *AssetGroup, a *MarginAccount, i int, shares fixnum.Fixed) error {
	account, err := a.BorrowShares[i].Add(shares)
	if err != nil {
		return ErrMathFault
	}

	pool, err := g.Assets[i].TotalBorrowShares.Add(shares)
	if err != nil {
		return ErrMathFault
	}

	a.BorrowShares[i] = account
	g.Assets[i].TotalBorrowShares = pool
	return nil
}

// SubBorrow remove borrow shares from the account and the pool.
func SubBorrow(g *AssetGroup, a *MarginAccount, i int, shares fixnum.Fixed) error {
	account, err := a.BorrowShares[i].Sub(shares)
	if err != nil {
		return ErrMathFault
	}

	pool, err := g.Assets[i].TotalBorrowShares.Sub(shares)
	if err != nil {
		return ErrMathFault
	}

	a.BorrowShares[i] = account
	g.Assets[i].TotalBorrowShares = pool
	return nil
}

// SettleBorrow nets a borrow against the account's own deposit in the
// same asset, up to min(quantity, native borrow, native deposit). Net
// equity is unchanged, so no collateral check is needed.
func SettleBorrow(g *AssetGroup, a *MarginAccount, i int, quantity uint64) error {
	idx := &g.Assets[i].Index

	nativeBorrow, err := a.NativeBorrow(idx, i)
	if err != nil {
		return err
	}

	nativeDeposit, err := a.NativeDeposit(idx, i)
	if err != nil {
		return err
	}

	if quantity > nativeBorrow {
		quantity = nativeBorrow
	}
	if quantity > nativeDeposit {
		quantity = nativeDeposit
	}
	if quantity == 0 {
		return nil
	}

	settled := fixnum.FromUint(quantity)

	borrowShares, err := settled.Div(idx.Borrow)
	if err != nil {
		return ErrMathFault
	}

	depositShares, err := settled.Div(idx.Deposit)
	if err != nil {
		return ErrMathFault
	}

	if err := SubDeposit(g, a, i, depositShares); err != nil {
		return err
	}

	return SubBorrow(g, a, i, borrowShares)
}

// SettleBorrowFull nets out as much of the asset's borrow as the
// account's own deposit covers.
func SettleBorrowFull(g *AssetGroup, a *MarginAccount, i int) error {
	nativeBorrow, err := a.NativeBorrow(&g.Assets[i].Index, i)
	if err != nil {
		return err
	}

	return SettleBorrow(g, a, i, nativeBorrow)
}
