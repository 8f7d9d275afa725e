package ledger

import (
	"context"
	"time"

	"margin/core"
	"margin/internal/interest"
	"margin/pkg/fixnum"

	"github.com/fox-one/pkg/logger"
)

type ledgerService struct {
	venue      core.IOrderVenue
	transfers  core.ITransferService
	valuations core.IValuationService
	clock      func() time.Time
}

// New new ledger service. A nil clock means wall time; tests inject a
// fixed one.
func New(venue core.IOrderVenue, transfers core.ITransferService, valuations core.IValuationService, clock func() time.Time) core.ILedgerService {
	if clock == nil {
		clock = time.Now
	}

	return &ledgerService{
		venue:      venue,
		transfers:  transfers,
		valuations: valuations,
		clock:      clock,
	}
}

// common preamble: bind account to group, refresh indexes, then
// authorize. Index refresh must come before any share conversion.
func (s *ledgerService) prepare(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, caller string, checkOwner bool) error {
	if account.GroupID != group.ID {
		return core.ErrGroupMismatch
	}

	if err := interest.Accrue(ctx, group, s.clock()); err != nil {
		return err
	}

	if checkOwner && account.Owner != caller {
		return core.ErrWrongOwner
	}

	return nil
}

// Deposit external transfer in, credited as deposit shares. Strictly
// improves the ratio, so no collateral check. Anyone may deposit into
// any account.
func (s *ledgerService) Deposit(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, caller string, asset int, amount uint64) error {
	log := logger.FromContext(ctx).WithField("service", "ledger")

	if asset < 0 || asset >= core.NumAssets {
		return core.ErrAssetNotFound
	}
	if amount == 0 {
		return core.ErrInvalidAmount
	}

	if err := s.prepare(ctx, group, account, caller, false); err != nil {
		return err
	}

	slot := &group.Assets[asset]
	if err := s.transfers.Transfer(ctx, slot.Mint, caller, slot.Vault, caller, amount); err != nil {
		return err
	}

	shares, err := fixnum.FromUint(amount).Div(slot.Index.Deposit)
	if err != nil {
		return core.ErrMathFault
	}

	if err := core.AddDeposit(group, account, asset, shares); err != nil {
		return err
	}

	log.Debugf("deposit %d of %s for %s", amount, slot.Mint, account.ID)
	return nil
}

// Withdraw spends existing deposit only, never borrows implicitly, and
// must leave the account at or above the initial ratio.
func (s *ledgerService) Withdraw(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, caller string, asset int, amount uint64, feeds [core.NumMarkets]core.PriceFeed, orders [core.NumMarkets]*core.OpenOrders) error {
	if asset < 0 || asset >= core.NumAssets {
		return core.ErrAssetNotFound
	}
	if amount == 0 {
		return core.ErrInvalidAmount
	}

	if err := s.prepare(ctx, group, account, caller, true); err != nil {
		return err
	}

	if err := account.CheckOpenOrders(orders); err != nil {
		return err
	}

	slot := &group.Assets[asset]

	available, err := account.NativeDeposit(&slot.Index, asset)
	if err != nil {
		return err
	}
	if available < amount {
		return core.ErrInsufficientBalance
	}

	prices, err := s.valuations.Prices(ctx, group, feeds)
	if err != nil {
		return err
	}

	shares, err := fixnum.FromUint(amount).Div(slot.Index.Deposit)
	if err != nil {
		return core.ErrMathFault
	}

	if err := core.SubDeposit(group, account, asset, shares); err != nil {
		return err
	}

	ratio, err := s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if ratio.LessThan(group.InitRatio) {
		return core.ErrInsufficientCollateral
	}

	if !group.HasValidDepositsBorrows(asset) {
		return core.ErrInsufficientLiquidity
	}

	return s.transfers.Transfer(ctx, slot.Mint, slot.Vault, caller, group.Signer, amount)
}

// Borrow credits the borrowed amount as a spendable deposit and records
// the matching debt, gated on the initial ratio and the asset ceiling.
func (s *ledgerService) Borrow(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, caller string, asset int, amount uint64, feeds [core.NumMarkets]core.PriceFeed, orders [core.NumMarkets]*core.OpenOrders) error {
	if asset < 0 || asset >= core.NumAssets {
		return core.ErrAssetNotFound
	}
	if amount == 0 {
		return core.ErrInvalidAmount
	}

	if err := s.prepare(ctx, group, account, caller, true); err != nil {
		return err
	}

	if err := account.CheckOpenOrders(orders); err != nil {
		return err
	}

	slot := &group.Assets[asset]
	quantity := fixnum.FromUint(amount)

	depositShares, err := quantity.Div(slot.Index.Deposit)
	if err != nil {
		return core.ErrMathFault
	}

	borrowShares, err := quantity.Div(slot.Index.Borrow)
	if err != nil {
		return core.ErrMathFault
	}

	if err := core.AddDeposit(group, account, asset, depositShares); err != nil {
		return err
	}
	if err := core.AddBorrow(group, account, asset, borrowShares); err != nil {
		return err
	}

	prices, err := s.valuations.Prices(ctx, group, feeds)
	if err != nil {
		return err
	}

	ratio, err := s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if ratio.LessThan(group.InitRatio) {
		return core.ErrInsufficientCollateral
	}

	if !group.HasValidDepositsBorrows(asset) {
		return core.ErrInsufficientLiquidity
	}

	borrowed, err := account.NativeBorrow(&slot.Index, asset)
	if err != nil {
		return err
	}
	if borrowed > group.BorrowCeilings[asset] {
		return core.ErrBorrowCeilingExceeded
	}

	return nil
}

// SettleBorrow nets a borrow against the account's own deposit.
func (s *ledgerService) SettleBorrow(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, caller string, asset int, amount uint64) error {
	if asset < 0 || asset >= core.NumAssets {
		return core.ErrAssetNotFound
	}

	if err := s.prepare(ctx, group, account, caller, true); err != nil {
		return err
	}

	return core.SettleBorrow(group, account, asset, amount)
}

// checkPlaceOrders validates every supplied open-orders record and pins
// the market's record to the account on first use.
func (s *ledgerService) checkPlaceOrders(group *core.AssetGroup, account *core.MarginAccount, market int, orders [core.NumMarkets]*core.OpenOrders) error {
	for i := 0; i < core.NumMarkets; i++ {
		if i != market {
			if account.OpenOrders[i] == "" {
				if orders[i] != nil {
					return core.ErrOpenOrdersMismatch
				}
				continue
			}
			if orders[i] == nil || orders[i].ID != account.OpenOrders[i] {
				return core.ErrOpenOrdersMismatch
			}
			continue
		}

		if orders[i] == nil {
			return core.ErrOpenOrdersMismatch
		}

		if account.OpenOrders[i] == "" {
			// a fresh record; pinned to this market for the lifetime
			// of the account
			if orders[i].Owner != "" {
				return core.ErrOpenOrdersMismatch
			}
			orders[i].Owner = group.Signer
			orders[i].Market = group.SpotMarkets[i]
			account.OpenOrders[i] = orders[i].ID
			continue
		}

		if orders[i].ID != account.OpenOrders[i] {
			return core.ErrOpenOrdersMismatch
		}
	}

	return nil
}

// applySpend books a native outflow: existing deposit first, remainder
// as new debt unless the account is reduce-only.
func (s *ledgerService) applySpend(group *core.AssetGroup, account *core.MarginAccount, asset int, spent uint64, reduceOnly bool) error {
	slot := &group.Assets[asset]

	nativeDeposit, err := account.NativeDeposit(&slot.Index, asset)
	if err != nil {
		return err
	}

	if nativeDeposit >= spent {
		shares, err := fixnum.FromUint(spent).Div(slot.Index.Deposit)
		if err != nil {
			return core.ErrMathFault
		}

		return core.SubDeposit(group, account, asset, shares)
	}

	if reduceOnly {
		return core.ErrReduceOnlyViolated
	}

	if err := core.SubDeposit(group, account, asset, account.DepositShares[asset]); err != nil {
		return err
	}

	borrowShares, err := fixnum.FromUint(spent - nativeDeposit).Div(slot.Index.Borrow)
	if err != nil {
		return core.ErrMathFault
	}

	if err := core.AddBorrow(group, account, asset, borrowShares); err != nil {
		return err
	}

	borrowed, err := account.NativeBorrow(&slot.Index, asset)
	if err != nil {
		return err
	}
	if borrowed > group.BorrowCeilings[asset] {
		return core.ErrBorrowCeilingExceeded
	}

	return nil
}

// PlaceOrder forwards a new order to the venue and books whatever the
// vault paid out. Deposits are spent before any borrow is opened; an
// account already below the initial ratio is reduce-only and may not
// open new debt.
func (s *ledgerService) PlaceOrder(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, caller string, order core.OrderInstruction, feeds [core.NumMarkets]core.PriceFeed, orders [core.NumMarkets]*core.OpenOrders) error {
	log := logger.FromContext(ctx).WithField("service", "ledger")

	if err := s.prepare(ctx, group, account, caller, true); err != nil {
		return err
	}

	market, ok := group.MarketIndex(order.Market)
	if !ok {
		return core.ErrMarketNotFound
	}

	prices, err := s.valuations.Prices(ctx, group, feeds)
	if err != nil {
		return err
	}

	if err := s.checkPlaceOrders(group, account, market, orders); err != nil {
		return err
	}

	ratio, err := s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	reduceOnly := ratio.LessThan(group.InitRatio)

	asset := market
	if order.Side == core.SideBid {
		asset = core.QuoteIndex
	}
	vault := group.Assets[asset].Vault

	pre, err := s.venue.VaultBalance(ctx, vault)
	if err != nil {
		return err
	}

	if err := s.venue.PlaceOrder(ctx, group, orders[market], order); err != nil {
		return err
	}

	post, err := s.venue.VaultBalance(ctx, vault)
	if err != nil {
		return err
	}
	if post > pre {
		return core.ErrInvariantViolated
	}

	if err := s.applySpend(group, account, asset, pre-post, reduceOnly); err != nil {
		return err
	}

	ratio, err = s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if !reduceOnly && ratio.LessThan(group.InitRatio) {
		return core.ErrInsufficientCollateral
	}

	if !group.HasValidDepositsBorrows(asset) {
		return core.ErrInsufficientLiquidity
	}

	log.Debugf("order placed on %s, spent %d", order.Market, pre-post)
	return nil
}

// SettleFunds moves the record's free balances back into the vault and
// credits them as deposits.
func (s *ledgerService) SettleFunds(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, caller string, market int, orders [core.NumMarkets]*core.OpenOrders) error {
	if market < 0 || market >= core.NumMarkets {
		return core.ErrMarketNotFound
	}

	if err := s.prepare(ctx, group, account, caller, true); err != nil {
		return err
	}

	if account.OpenOrders[market] == "" {
		return nil
	}

	oo := orders[market]
	if oo == nil || oo.ID != account.OpenOrders[market] {
		return core.ErrOpenOrdersMismatch
	}

	preBase, preQuote := oo.BaseFree, oo.QuoteFree
	if preBase == 0 && preQuote == 0 {
		return nil
	}

	if err := s.venue.SettleFunds(ctx, group, oo); err != nil {
		return err
	}

	if oo.BaseFree > preBase || oo.QuoteFree > preQuote {
		return core.ErrInvariantViolated
	}

	baseShares, err := fixnum.FromUint(preBase - oo.BaseFree).Div(group.Assets[market].Index.Deposit)
	if err != nil {
		return core.ErrMathFault
	}

	quoteShares, err := fixnum.FromUint(preQuote - oo.QuoteFree).Div(group.Assets[core.QuoteIndex].Index.Deposit)
	if err != nil {
		return core.ErrMathFault
	}

	if err := core.AddDeposit(group, account, market, baseShares); err != nil {
		return err
	}

	return core.AddDeposit(group, account, core.QuoteIndex, quoteShares)
}

// PlaceAndSettle places an order and immediately settles the market,
// booking the net flows of both legs and netting borrows out of any
// inflow.
func (s *ledgerService) PlaceAndSettle(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, caller string, order core.OrderInstruction, feeds [core.NumMarkets]core.PriceFeed, orders [core.NumMarkets]*core.OpenOrders) error {
	if err := s.prepare(ctx, group, account, caller, true); err != nil {
		return err
	}

	market, ok := group.MarketIndex(order.Market)
	if !ok {
		return core.ErrMarketNotFound
	}

	prices, err := s.valuations.Prices(ctx, group, feeds)
	if err != nil {
		return err
	}

	if err := s.checkPlaceOrders(group, account, market, orders); err != nil {
		return err
	}

	ratio, err := s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	reduceOnly := ratio.LessThan(group.InitRatio)

	baseVault := group.Assets[market].Vault
	quoteVault := group.Assets[core.QuoteIndex].Vault

	preBase, err := s.venue.VaultBalance(ctx, baseVault)
	if err != nil {
		return err
	}
	preQuote, err := s.venue.VaultBalance(ctx, quoteVault)
	if err != nil {
		return err
	}

	if err := s.venue.PlaceOrder(ctx, group, orders[market], order); err != nil {
		return err
	}
	if err := s.venue.SettleFunds(ctx, group, orders[market]); err != nil {
		return err
	}

	postBase, err := s.venue.VaultBalance(ctx, baseVault)
	if err != nil {
		return err
	}
	postQuote, err := s.venue.VaultBalance(ctx, quoteVault)
	if err != nil {
		return err
	}

	inAsset, outAsset := market, core.QuoteIndex
	preIn, preOut, postIn, postOut := preBase, preQuote, postBase, postQuote
	if order.Side == core.SideAsk {
		inAsset, outAsset = core.QuoteIndex, market
		preIn, preOut, postIn, postOut = preQuote, preBase, postQuote, postBase
	}

	// the out leg may net negative and require a borrow; the in leg
	// can only grow
	if postOut < preOut {
		if err := s.applySpend(group, account, outAsset, preOut-postOut, reduceOnly); err != nil {
			return err
		}
	} else {
		shares, err := fixnum.FromUint(postOut - preOut).Div(group.Assets[outAsset].Index.Deposit)
		if err != nil {
			return core.ErrMathFault
		}
		if err := core.AddDeposit(group, account, outAsset, shares); err != nil {
			return err
		}
	}

	if postIn < preIn {
		return core.ErrInvariantViolated
	}

	inShares, err := fixnum.FromUint(postIn - preIn).Div(group.Assets[inAsset].Index.Deposit)
	if err != nil {
		return core.ErrMathFault
	}
	if err := core.AddDeposit(group, account, inAsset, inShares); err != nil {
		return err
	}

	if err := core.SettleBorrowFull(group, account, outAsset); err != nil {
		return err
	}
	if err := core.SettleBorrowFull(group, account, inAsset); err != nil {
		return err
	}

	ratio, err = s.valuations.CollateralRatio(ctx, group, account, prices, orders)
	if err != nil {
		return err
	}
	if !reduceOnly && ratio.LessThan(group.InitRatio) {
		return core.ErrInsufficientCollateral
	}

	if !group.HasValidDepositsBorrows(outAsset) {
		return core.ErrInsufficientLiquidity
	}

	return nil
}

// CancelOrder forwards a cancel to the venue; freed balances stay on
// the open-orders record until settled.
func (s *ledgerService) CancelOrder(ctx context.Context, group *core.AssetGroup, account *core.MarginAccount, caller string, market int, orderID uint64, orders [core.NumMarkets]*core.OpenOrders) error {
	if market < 0 || market >= core.NumMarkets {
		return core.ErrMarketNotFound
	}

	if err := s.prepare(ctx, group, account, caller, true); err != nil {
		return err
	}

	oo := orders[market]
	if account.OpenOrders[market] == "" || oo == nil || oo.ID != account.OpenOrders[market] {
		return core.ErrOpenOrdersMismatch
	}

	return s.venue.CancelOrder(ctx, group, oo, orderID)
}
