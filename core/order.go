package core

import "context"

// Side order side
type Side int

const (
	// SideBid buy base with quote
	SideBid Side = iota
	// SideAsk sell base for quote
	SideAsk
)

// OpenOrders the venue's record of one account's resting orders and
// balances on one market. The matching logic behind it is opaque; the
// core only reads balances and order ids.
type OpenOrders struct {
	ID         string   `json:"id"`
	Market     string   `json:"market"`
	Owner      string   `json:"owner"`
	BaseTotal  uint64   `json:"base_total"`
	QuoteTotal uint64   `json:"quote_total"`
	BaseFree   uint64   `json:"base_free"`
	QuoteFree  uint64   `json:"quote_free"`
	Orders     []uint64 `json:"orders"`
}

// OrderInstruction a new order for the external venue.
type OrderInstruction struct {
	Market      string `json:"market"`
	Side        Side   `json:"side"`
	LimitPrice  uint64 `json:"limit_price"`
	MaxBaseQty  uint64 `json:"max_base_qty"`
	MaxQuoteQty uint64 `json:"max_quote_qty"`
	ClientID    uint64 `json:"client_id"`
}

// IOrderVenue the external matching venue. Placing moves funds out of
// the group vault into the open-orders record; settling moves free
// balances back. The venue mutates the supplied record in place.
type IOrderVenue interface {
	PlaceOrder(ctx context.Context, group *AssetGroup, orders *OpenOrders, order OrderInstruction) error
	CancelOrder(ctx context.Context, group *AssetGroup, orders *OpenOrders, orderID uint64) error
	SettleFunds(ctx context.Context, group *AssetGroup, orders *OpenOrders) error
	VaultBalance(ctx context.Context, vault string) (uint64, error)
}
