package liquidation

import (
	"context"
	"time"

	"margin/core"
	"margin/internal/interest"
	"margin/pkg/fixnum"

	"github.com/fox-one/pkg/logger"
)

// haircut applied to remaining assets when writing down an insolvent
// account, so the liquidator keeps a margin over the debt it inherits
var insolvencyHaircut = fixnum.MustNew("1.01")

type liquidationService struct {
	venue      core.IOrderVenue
	transfers  core.ITransferService
	valuations core.IValuationService
	clock      func() time.Time
}

// New new liquidation service
func New(venue core.IOrderVenue, transfers core.ITransferService, valuations core.IValuationService, clock func() time.Time) core.ILiquidationService {
	if clock == nil {
		clock = time.Now
	}

	return &liquidationService{
		venue:      venue,
		transfers:  transfers,
		valuations: valuations,
		clock:      clock,
	}
}

// socializeLoss writes off part of an account's debt against the whole
// deposit pool: the borrow shares vanish and the deposit index shrinks
// so every depositor of the asset absorbs a pro-rata haircut.
func socializeLoss(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, asset int, reduce uint64) error {
	if reduce == 0 {
		return nil
	}

	slot := &group.Assets[asset]
	native := fixnum.FromUint(reduce)

	borrowShares, err := native.Div(slot.Index.Borrow)
	if err != nil {
		return core.ErrMathFault
	}

	if err := core.SubBorrow(group, account, asset, borrowShares); err != nil {
		return err
	}

	totalDeposits, err := group.TotalNativeDeposit(asset)
	if err != nil {
		return err
	}
	if totalDeposits == 0 {
		return core.ErrInsufficientLiquidity
	}

	fraction, err := native.Div(fixnum.FromUint(totalDeposits))
	if err != nil {
		return core.ErrMathFault
	}

	cut, err := slot.Index.Deposit.Mul(fraction)
	if err != nil {
		return core.ErrMathFault
	}

	newIndex, err := slot.Index.Deposit.Sub(cut)
	if err != nil {
		return core.ErrMathFault
	}

	logger.FromContext(ctx).WithField("service", "liquidation").
		Infof("socialized %d of asset %d across the pool", reduce, asset)

	slot.Index.Deposit = newIndex
	return nil
}

// writeDownInsolvency shrinks an underwater account's debt until its
// remaining assets cover it with the haircut to spare. The write-off is
// spread across the borrowed assets pro rata by liability value.
func (s *liquidationService) writeDownInsolvency(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, prices [core.NumAssets]fixnum.Fixed, orders [core.NumMarkets]*core.OpenOrders) error {
	assets, err := s.valuations.AssetsValue(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}

	liabs, err := s.valuations.LiabilitiesValue(ctx, group, account, prices)
	if err != nil {
		return err
	}

	discounted, err := assets.Div(insolvencyHaircut)
	if err != nil {
		return core.ErrMathFault
	}

	if !liabs.GreaterThan(discounted) {
		return nil
	}

	reduction, err := liabs.Sub(discounted)
	if err != nil {
		return core.ErrMathFault
	}

	for i := 0; i < core.NumAssets; i++ {
		if account.BorrowShares[i].IsZero() {
			continue
		}

		borrowed, err := account.NativeBorrow(&group.Assets[i].Index, i)
		if err != nil {
			return err
		}

		value, err := fixnum.FromUint(borrowed).Mul(prices[i])
		if err != nil {
			return core.ErrMathFault
		}

		weight, err := value.Div(liabs)
		if err != nil {
			return core.ErrMathFault
		}

		share, err := reduction.Mul(weight)
		if err != nil {
			return core.ErrMathFault
		}

		native, err := share.Div(prices[i])
		if err != nil {
			return core.ErrMathFault
		}

		reduce := native.Floor()
		if reduce > borrowed {
			reduce = borrowed
		}

		if err := socializeLoss(ctx, group, account, i, reduce); err != nil {
			return err
		}
	}

	return nil
}

func (s *liquidationService) prepare(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, feeds [core.NumMarkets]core.PriceFeed, orders [core.NumMarkets]*core.OpenOrders) ([core.NumAssets]fixnum.Fixed, error) {
	var prices [core.NumAssets]fixnum.Fixed

	if account.GroupID != group.ID {
		return prices, core.ErrGroupMismatch
	}

	if err := interest.Accrue(ctx, group, s.clock()); err != nil {
		return prices, err
	}

	if err := account.CheckOpenOrders(orders); err != nil {
		return prices, err
	}

	return s.valuations.Prices(ctx, group, feeds)
}

// fund pulls the liquidator's own capital into the account as fresh
// deposits. Transfers are signed by the liquidator; nothing moves out
// of the pool.
func (s *liquidationService) fund(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, liquidator string, deposits [core.NumAssets]uint64) error {
	for i := 0; i < core.NumAssets; i++ {
		if deposits[i] == 0 {
			continue
		}

		slot := &group.Assets[i]
		if err := s.transfers.Transfer(ctx, slot.Mint, liquidator, slot.Vault, liquidator, deposits[i]); err != nil {
			return err
		}

		shares, err := fixnum.FromUint(deposits[i]).Div(slot.Index.Deposit)
		if err != nil {
			return core.ErrMathFault
		}

		if err := core.AddDeposit(group, account, i, shares); err != nil {
			return err
		}
	}

	return nil
}

// Liquidate takes over an account below the maintenance ratio. Internal
// netting runs first and may heal the account outright; a truly
// insolvent account is written down against the pool before the
// liquidator's capital comes in. The liquidator must fund the account
// back to the initial ratio and receives its ownership.
func (s *liquidationService) Liquidate(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, liquidator string, deposits [core.NumAssets]uint64, feeds [core.NumMarkets]core.PriceFeed, orders [core.NumMarkets]*core.OpenOrders) error {
	log := logger.FromContext(ctx).WithField("service", "liquidation")

	prices, err := s.prepare(ctx, group, account, feeds, orders)
	if err != nil {
		return err
	}

	ratio, err := s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if ratio.GreaterThanOrEqual(group.MaintRatio) {
		return core.ErrNotLiquidatable
	}

	for i := 0; i < core.NumAssets; i++ {
		if err := core.SettleBorrowFull(group, account, i); err != nil {
			return err
		}
	}

	ratio, err = s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if ratio.GreaterThanOrEqual(group.MaintRatio) {
		log.Infof("account %s healed by netting, ratio %s", account.ID, ratio)
		return nil
	}

	if ratio.LessThan(fixnum.One) {
		if err := s.writeDownInsolvency(ctx, group, account, prices, orders); err != nil {
			return err
		}
	}

	if err := s.fund(ctx, group, account, liquidator, deposits); err != nil {
		return err
	}

	ratio, err = s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if ratio.LessThan(group.InitRatio) {
		return core.ErrLiquidationIncomplete
	}

	log.Infof("account %s liquidated, new owner %s", account.ID, liquidator)
	account.Owner = liquidator
	return nil
}

// unwindOrders cancels everything resting on the venue for the account
// and settles the freed balances back into deposits.
func (s *liquidationService) unwindOrders(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, orders [core.NumMarkets]*core.OpenOrders) error {
	for i := 0; i < core.NumMarkets; i++ {
		if account.OpenOrders[i] == "" {
			continue
		}

		oo := orders[i]

		resting := make([]uint64, len(oo.Orders))
		copy(resting, oo.Orders)
		for _, orderID := range resting {
			if err := s.venue.CancelOrder(ctx, group, oo, orderID); err != nil {
				return err
			}
		}

		preBase, preQuote := oo.BaseFree, oo.QuoteFree
		if preBase == 0 && preQuote == 0 {
			continue
		}

		if err := s.venue.SettleFunds(ctx, group, oo); err != nil {
			return err
		}
		if oo.BaseFree > preBase || oo.QuoteFree > preQuote {
			return core.ErrInvariantViolated
		}

		baseShares, err := fixnum.FromUint(preBase - oo.BaseFree).Div(group.Assets[i].Index.Deposit)
		if err != nil {
			return core.ErrMathFault
		}

		quoteShares, err := fixnum.FromUint(preQuote - oo.QuoteFree).Div(group.Assets[core.QuoteIndex].Index.Deposit)
		if err != nil {
			return core.ErrMathFault
		}

		if err := core.AddDeposit(group, account, i, baseShares); err != nil {
			return err
		}
		if err := core.AddDeposit(group, account, core.QuoteIndex, quoteShares); err != nil {
			return err
		}
	}

	return nil
}

// PartialLiquidate like Liquidate, but first unwinds the account's
// resting orders and caps how much of the liquidator's capital is
// accepted: contributions stop once the account is funded back to the
// initial ratio, so the liquidator never overpays for the takeover.
func (s *liquidationService) PartialLiquidate(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, liquidator string, deposits [core.NumAssets]uint64, feeds [core.NumMarkets]core.PriceFeed, orders [core.NumMarkets]*core.OpenOrders) error {
	log := logger.FromContext(ctx).WithField("service", "liquidation")

	prices, err := s.prepare(ctx, group, account, feeds, orders)
	if err != nil {
		return err
	}

	ratio, err := s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if ratio.GreaterThanOrEqual(group.MaintRatio) {
		return core.ErrNotLiquidatable
	}

	if err := s.unwindOrders(ctx, group, account, orders); err != nil {
		return err
	}

	for i := 0; i < core.NumAssets; i++ {
		if err := core.SettleBorrowFull(group, account, i); err != nil {
			return err
		}
	}

	ratio, err = s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if ratio.GreaterThanOrEqual(group.MaintRatio) {
		log.Infof("account %s healed by unwinding, ratio %s", account.ID, ratio)
		return nil
	}

	if ratio.LessThan(fixnum.One) {
		if err := s.writeDownInsolvency(ctx, group, account, prices, orders); err != nil {
			return err
		}
	}

	deficit, err := s.valuations.CollateralDeficit(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}

	capped, err := capContributions(deposits, prices, deficit)
	if err != nil {
		return err
	}

	if err := s.fund(ctx, group, account, liquidator, capped); err != nil {
		return err
	}

	ratio, err = s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if ratio.LessThan(group.InitRatio) {
		return core.ErrLiquidationIncomplete
	}

	log.Infof("account %s liquidated, new owner %s", account.ID, liquidator)
	account.Owner = liquidator
	return nil
}

// capContributions trims the offered deposits so their quote value does
// not exceed the account's remaining collateral deficit. Rounding works
// against the pool, never against it: the last contribution is rounded
// up to cover the deficit in full.
func capContributions(deposits [core.NumAssets]uint64, prices [core.NumAssets]fixnum.Fixed, deficit uint64) ([core.NumAssets]uint64, error) {
	var capped [core.NumAssets]uint64

	remaining := fixnum.FromUint(deficit)

	for i := 0; i < core.NumAssets; i++ {
		if deposits[i] == 0 || remaining.IsZero() {
			continue
		}

		value, err := fixnum.FromUint(deposits[i]).Mul(prices[i])
		if err != nil {
			return capped, core.ErrMathFault
		}

		if value.GreaterThan(remaining) {
			native, err := remaining.Div(prices[i])
			if err != nil {
				return capped, core.ErrMathFault
			}

			capped[i] = native.Ceil()
			remaining = fixnum.Zero
			continue
		}

		capped[i] = deposits[i]

		remaining, err = remaining.Sub(value)
		if err != nil {
			return capped, core.ErrMathFault
		}
	}

	return capped, nil
}
