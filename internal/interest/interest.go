package interest

import (
	"context"
	"time"

	"margin/core"
	"margin/pkg/fixnum"
)

// Piecewise-linear utilization curve with a kink: linear from 0 to the
// optimal rate below optimal utilization, then linear up to the max
// rate at full utilization. Rates are per second.
var (
	optimalUtil = fixnum.MustNew("0.7")
	optimalRate = perSecond("0.1") // 10% per year
	maxRate     = perSecond("1")   // 100% per year
)

func perSecond(yearly string) fixnum.Fixed {
	rate, err := fixnum.MustNew(yearly).Div(fixnum.FromUint(core.SecondsPerYear))
	if err != nil {
		panic(err)
	}

	return rate
}

// Rate per-second borrow rate at the given utilization.
func Rate(utilization fixnum.Fixed) (fixnum.Fixed, error) {
	if utilization.GreaterThan(optimalUtil) {
		extra, err := utilization.Sub(optimalUtil)
		if err != nil {
			return fixnum.Zero, err
		}

		span, err := maxRate.Sub(optimalRate)
		if err != nil {
			return fixnum.Zero, err
		}

		room, err := fixnum.One.Sub(optimalUtil)
		if err != nil {
			return fixnum.Zero, err
		}

		slope, err := span.Div(room)
		if err != nil {
			return fixnum.Zero, err
		}

		climb, err := slope.Mul(extra)
		if err != nil {
			return fixnum.Zero, err
		}

		return optimalRate.Add(climb)
	}

	// ratio first, so the rate at the kink is exactly the optimal rate
	ratio, err := utilization.Div(optimalUtil)
	if err != nil {
		return fixnum.Zero, err
	}

	return optimalRate.Mul(ratio)
}

// RateForAsset per-second borrow rate of one asset slot. Returns the
// max rate when deposits do not exceed borrows, which also covers the
// empty pool.
func RateForAsset(g *core.AssetGroup, i int) (fixnum.Fixed, error) {
	slot := &g.Assets[i]

	deposits, err := slot.TotalDepositShares.Mul(slot.Index.Deposit)
	if err != nil {
		return fixnum.Zero, core.ErrMathFault
	}

	borrows, err := slot.TotalBorrowShares.Mul(slot.Index.Borrow)
	if err != nil {
		return fixnum.Zero, core.ErrMathFault
	}

	if deposits.Cmp(borrows) <= 0 {
		return maxRate, nil
	}

	utilization, err := borrows.Div(deposits)
	if err != nil {
		return fixnum.Zero, core.ErrMathFault
	}

	rate, err := Rate(utilization)
	if err != nil {
		return fixnum.Zero, core.ErrMathFault
	}

	return rate, nil
}

// Accrue advances every asset's borrow and deposit index to now. Must
// run before any share/native conversion in a mutating operation.
// Idempotent within one timestamp.
func Accrue(ctx context.Context, g *core.AssetGroup, now time.Time) error {
	ts := now.UTC().Unix()

	for i := range g.Assets {
		slot := &g.Assets[i]

		if ts < slot.Index.LastUpdate {
			return core.ErrIndexNotMonotonic
		}
		if slot.Index.LastUpdate == ts {
			continue
		}

		if slot.TotalDepositShares.IsZero() {
			// nothing to accrue against; borrows here would mean the
			// pool solvency invariant is already broken
			if !slot.TotalBorrowShares.IsZero() {
				return core.ErrInvariantViolated
			}
			continue
		}

		deposits, err := slot.TotalDepositShares.Mul(slot.Index.Deposit)
		if err != nil {
			return core.ErrMathFault
		}

		borrows, err := slot.TotalBorrowShares.Mul(slot.Index.Borrow)
		if err != nil {
			return core.ErrMathFault
		}

		if borrows.GreaterThan(deposits) {
			return core.ErrInvariantViolated
		}

		rate, err := RateForAsset(g, i)
		if err != nil {
			return err
		}

		utilization, err := borrows.Div(deposits)
		if err != nil {
			return core.ErrMathFault
		}

		elapsed := fixnum.FromUint(uint64(ts - slot.Index.LastUpdate))

		borrowGrowth, err := rate.Mul(elapsed)
		if err != nil {
			return core.ErrMathFault
		}

		// depositors earn only the interest borrowers pay
		depositGrowth, err := borrowGrowth.Mul(utilization)
		if err != nil {
			return core.ErrMathFault
		}

		borrowInterest, err := slot.Index.Borrow.Mul(borrowGrowth)
		if err != nil {
			return core.ErrMathFault
		}

		depositInterest, err := slot.Index.Deposit.Mul(depositGrowth)
		if err != nil {
			return core.ErrMathFault
		}

		newBorrow, err := slot.Index.Borrow.Add(borrowInterest)
		if err != nil {
			return core.ErrMathFault
		}

		newDeposit, err := slot.Index.Deposit.Add(depositInterest)
		if err != nil {
			return core.ErrMathFault
		}

		slot.Index.LastUpdate = ts
		slot.Index.Borrow = newBorrow
		slot.Index.Deposit = newDeposit
	}

	return nil
}
