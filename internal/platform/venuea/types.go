// Package venuea talks to an integer-cent CLOB exchange (Kalshi-shaped):
// RSA-PSS-signed REST orders, cursor-paginated market discovery, and an
// orderbook fallback for markets whose summary endpoint omits a price.
package venuea

import (
	"encoding/json"
)

// Market is a market record as returned by the exchange's market-list and
// single-market endpoints.
type Market struct {
	Ticker                 string `json:"ticker"`
	EventTicker            string `json:"event_ticker"`
	SeriesTicker           string `json:"series_ticker"`
	Title                  string `json:"title"`
	Subtitle               string `json:"subtitle"`
	YesSubTitle            string `json:"yes_sub_title"`
	Status                 string `json:"status"` // "open", "closed", "settled"
	YesBid                 *int64 `json:"yes_bid"`
	YesAsk                 *int64 `json:"yes_ask"`
	NoBid                  *int64 `json:"no_bid"`
	NoAsk                  *int64 `json:"no_ask"`
	Liquidity              int64  `json:"liquidity"`
	Volume24H              int64  `json:"volume_24h"`
	ExpectedExpirationTime string `json:"expected_expiration_time"`
}

// Orderbook is the full two-sided book for one market. Both sides are
// sorted ascending by price; the best bid/ask is the last entry.
type Orderbook struct {
	Ticker string       `json:"-"`
	Yes    []PriceLevel `json:"yes"`
	No     []PriceLevel `json:"no"`
}

// PriceLevel is a single price/quantity entry in the orderbook.
type PriceLevel struct {
	Price    int64 `json:"price"`    // cents, 1-99
	Quantity int64 `json:"quantity"` // contracts
}

// BestAsk returns the side's best level, the last entry of the
// ascending-sorted array.
func (ob Orderbook) BestAsk(side string) (PriceLevel, bool) {
	levels := ob.Yes
	if side == "no" {
		levels = ob.No
	}
	if len(levels) == 0 {
		return PriceLevel{}, false
	}
	return levels[len(levels)-1], true
}

// Order is the request body for order placement.
type Order struct {
	Ticker            string `json:"ticker"`
	Action            string `json:"action"` // "buy" or "sell"
	Side              string `json:"side"`   // "yes" or "no"
	Type              string `json:"type"`   // "market" or "limit"
	Count             int64  `json:"count"`
	YesPrice          *int64 `json:"yes_price,omitempty"`
	NoPrice           *int64 `json:"no_price,omitempty"`
	TimeInForce       string `json:"time_in_force,omitempty"` // "ioc"
	SellPositionFloor *int64 `json:"sell_position_floor,omitempty"`
}

// OrderResponse is the API response after placing or querying an order.
type OrderResponse struct {
	Order struct {
		OrderID        string `json:"order_id"`
		Ticker         string `json:"ticker"`
		Status         string `json:"status"` // "resting", "canceled", "executed", "pending"
		RemainingCount int64  `json:"remaining_count"`
		TakerFillCount int64  `json:"taker_fill_count"`
	} `json:"order"`
}

// ErrorResponse is the API's error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BalanceResponse is the API response for the portfolio balance endpoint.
type BalanceResponse struct {
	BalanceCents int64 `json:"balance"`
}

// WSMessage is the envelope for WebSocket messages, unused on the taker-only
// path but retained for a future resting-order/live-book mode.
type WSMessage struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
	SID  int64           `json:"sid"`
}
