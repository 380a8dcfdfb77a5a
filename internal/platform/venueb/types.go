// Package venueb talks to a token-based CLOB exchange (Polymarket-shaped):
// Gamma-style market discovery, EIP-712 wallet-signed proxy orders, and an
// HMAC-authenticated CLOB REST surface.
package venueb

import (
	"encoding/json"
	"strings"
)

// flexBool unmarshals from a JSON bool or a "true"/"false" string, since the
// discovery API is inconsistent about which it sends.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// GammaMarket is a market record as returned by the discovery API.
type GammaMarket struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	ConditionID      string   `json:"condition_id"`
	Slug             string   `json:"slug"`
	Active           flexBool `json:"active"`
	Closed           bool     `json:"closed"`
	Outcomes         string   `json:"outcomes"`      // JSON-encoded, e.g. ["Team A","Team B"]
	ClobTokenIDs     string   `json:"clob_token_ids"` // JSON-encoded, e.g. ["123","456"]
	EndDateISO       string   `json:"end_date_iso"`
	SportsMarketType string   `json:"sports_market_type"` // "moneyline", "child_moneyline"
	Category         string   `json:"category"`
	SeriesSlug       string   `json:"series_slug"`
	Volume           string   `json:"volume"`
	Liquidity        string   `json:"liquidity"`
	Events           []struct {
		Slug string `json:"slug"`
	} `json:"events"`
}

func (g GammaMarket) OutcomesList() []string {
	var out []string
	_ = json.Unmarshal([]byte(g.Outcomes), &out)
	return out
}

func (g GammaMarket) TokenIDs() []string {
	var out []string
	_ = json.Unmarshal([]byte(g.ClobTokenIDs), &out)
	return out
}

// BookLevel is a single price/size entry in a CLOB order book.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Book is the CLOB order book for one token. Asks are sorted descending by
// price — the best ask is the LAST element.
type Book struct {
	AssetID string      `json:"asset_id"`
	Bids    []BookLevel `json:"bids"`
	Asks    []BookLevel `json:"asks"`
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg,omitempty"`
	OrderID  string `json:"orderID,omitempty"`
	Status   string `json:"status,omitempty"`
}

// APIOrderStatus is the response from a single-order lookup.
type APIOrderStatus struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	OriginalSize   string `json:"original_size"`
	SizeMatched    string `json:"size_matched"`
}
