package venuea

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

const defaultPageLimit = 1000

// Client is the signed REST client for the venue-A exchange. ListMarkets
// returns raw, unnormalized records; internal/platform/adapter wraps a
// Client with normalization to satisfy domain.VenueAdapter.
type Client struct {
	baseURL    string
	apiKeyID   string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a venue-A REST client. baseURL is the API root, e.g.
// "https://api.elections.kalshi.com/trade-api/v2".
func NewClient(baseURL, apiKeyID string, log *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKeyID: apiKeyID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// SetRSAPrivateKey loads an RSA private key from PEM-encoded bytes.
func (c *Client) SetRSAPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("venuea: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("venuea: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("venuea: expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

func (c *Client) Name() string { return string(domain.VenueA) }

// ListMarkets paginates the open market list at a page size of 1000 and
// returns the raw, unnormalized records.
func (c *Client) ListMarkets(ctx context.Context) ([]Market, error) {
	var all []Market
	cursor := ""

	for {
		params := url.Values{}
		params.Set("status", "open")
		params.Set("limit", strconv.Itoa(defaultPageLimit))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := c.doSignedRequest(ctx, http.MethodGet, "/markets?"+params.Encode(), nil, 10*time.Second)
		if err != nil {
			return nil, fmt.Errorf("venuea: list markets: %w", err)
		}

		var resp struct {
			Markets []Market `json:"markets"`
			Cursor  string   `json:"cursor"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: decode markets: %v", domain.ErrVenueProtocol, err)
		}

		all = append(all, resp.Markets...)
		cursor = resp.Cursor
		if cursor == "" || len(resp.Markets) < defaultPageLimit {
			break
		}
	}

	return all, nil
}

// GetQuote returns the current quote for a normalized market, falling back
// to the orderbook endpoint when the summary price is null (per design note
// 9c — never infer zero from a missing summary price).
func (c *Client) GetQuote(ctx context.Context, m domain.NormalizedMarket) (domain.Quote, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(m.PlatformID))
	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil, 2*time.Second)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("venuea: get quote %s: %w", m.PlatformID, err)
	}

	var resp struct {
		Market Market `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("%w: decode market: %v", domain.ErrVenueProtocol, err)
	}

	q := domain.Quote{}
	if resp.Market.YesAsk != nil {
		v := float64(*resp.Market.YesAsk)
		q.YesAskCents = &v
	}
	if resp.Market.NoAsk != nil {
		v := float64(*resp.Market.NoAsk)
		q.NoAskCents = &v
	}

	if q.YesAskCents == nil || q.NoAskCents == nil {
		ob, err := c.getOrderbook(ctx, m.PlatformID)
		if err != nil {
			c.log.Debug("venuea: orderbook fallback failed", "ticker", m.PlatformID, "error", err)
			return q, nil
		}
		if q.YesAskCents == nil {
			if lvl, ok := ob.BestAsk("yes"); ok {
				v := float64(lvl.Price)
				q.YesAskCents = &v
				q.YesDepth = float64(lvl.Quantity)
			}
		}
		if q.NoAskCents == nil {
			if lvl, ok := ob.BestAsk("no"); ok {
				v := float64(lvl.Price)
				q.NoAskCents = &v
				q.NoDepth = float64(lvl.Quantity)
			}
		}
	}

	if q.YesDepth == 0 || q.NoDepth == 0 {
		if ob, err := c.getOrderbook(ctx, m.PlatformID); err == nil {
			if lvl, ok := ob.BestAsk("yes"); ok && q.YesDepth == 0 {
				q.YesDepth = float64(lvl.Quantity)
			}
			if lvl, ok := ob.BestAsk("no"); ok && q.NoDepth == 0 {
				q.NoDepth = float64(lvl.Quantity)
			}
		}
	}

	return q, nil
}

func (c *Client) getOrderbook(ctx context.Context, ticker string) (Orderbook, error) {
	path := fmt.Sprintf("/markets/%s/orderbook", url.PathEscape(ticker))
	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil, 2*time.Second)
	if err != nil {
		return Orderbook{}, err
	}

	var resp struct {
		Orderbook Orderbook `json:"orderbook"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Orderbook{}, fmt.Errorf("%w: decode orderbook: %v", domain.ErrVenueProtocol, err)
	}
	resp.Orderbook.Ticker = ticker
	return resp.Orderbook, nil
}

// PlaceTaker submits an immediate-or-cancel taker order.
func (c *Client) PlaceTaker(ctx context.Context, m domain.NormalizedMarket, side string, units int, limitCents float64) (string, error) {
	priceCents := int64(limitCents)
	order := Order{
		Ticker:      m.PlatformID,
		Action:      "buy",
		Side:        side,
		Type:        "limit",
		Count:       int64(units),
		TimeInForce: "ioc",
	}
	if side == "yes" {
		order.YesPrice = &priceCents
	} else {
		order.NoPrice = &priceCents
	}

	body, err := c.doSignedRequest(ctx, http.MethodPost, "/portfolio/orders", order, 10*time.Second)
	if err != nil {
		return "", fmt.Errorf("venuea: place taker: %w", err)
	}

	var resp OrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode order response: %v", domain.ErrVenueProtocol, err)
	}

	return resp.Order.OrderID, nil
}

// Cancel cancels a resting order (used to clear a partial IOC remainder).
func (c *Client) Cancel(ctx context.Context, orderID string) error {
	path := fmt.Sprintf("/portfolio/orders/%s", url.PathEscape(orderID))
	_, err := c.doSignedRequest(ctx, http.MethodDelete, path, nil, 10*time.Second)
	if err != nil {
		return fmt.Errorf("venuea: cancel order %s: %w", orderID, err)
	}
	return nil
}

// GetFill reports the fill state of a previously placed order.
func (c *Client) GetFill(ctx context.Context, orderID string) (domain.Fill, error) {
	path := fmt.Sprintf("/portfolio/orders/%s", url.PathEscape(orderID))
	body, err := c.doSignedRequest(ctx, http.MethodGet, path, nil, 10*time.Second)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("venuea: get fill %s: %w", orderID, err)
	}

	var resp OrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Fill{}, fmt.Errorf("%w: decode order response: %v", domain.ErrVenueProtocol, err)
	}

	return domain.Fill{
		OrderID:   resp.Order.OrderID,
		Status:    resp.Order.Status,
		Filled:    int(resp.Order.TakerFillCount),
		Remaining: int(resp.Order.RemainingCount),
	}, nil
}

// GetBalance returns the account's available cash balance in USD.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/portfolio/balance", nil, 5*time.Second)
	if err != nil {
		return 0, fmt.Errorf("venuea: get balance: %w", err)
	}

	var resp BalanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: decode balance: %v", domain.ErrVenueProtocol, err)
	}

	return float64(resp.BalanceCents) / 100, nil
}

// SellAtBid places a sell order against the current best bid, used by the
// unwind path after a venue-B leg fails.
func (c *Client) SellAtBid(ctx context.Context, m domain.NormalizedMarket, side string, units int) (string, float64, error) {
	ob, err := c.getOrderbook(ctx, m.PlatformID)
	if err != nil {
		return "", 0, fmt.Errorf("venuea: unwind orderbook: %w", err)
	}

	bidLevels := ob.Yes
	if side == "no" {
		bidLevels = ob.No
	}
	if len(bidLevels) == 0 {
		return "", 0, fmt.Errorf("%w: no bid available to unwind", domain.ErrInsufficientLiquidity)
	}
	bestBid := bidLevels[len(bidLevels)-1].Price

	order := Order{
		Ticker: m.PlatformID,
		Action: "sell",
		Side:   side,
		Type:   "limit",
		Count:  int64(units),
	}
	if side == "yes" {
		order.YesPrice = &bestBid
	} else {
		order.NoPrice = &bestBid
	}

	body, err := c.doSignedRequest(ctx, http.MethodPost, "/portfolio/orders", order, 10*time.Second)
	if err != nil {
		return "", 0, fmt.Errorf("venuea: sell at bid: %w", err)
	}

	var resp OrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", 0, fmt.Errorf("%w: decode order response: %v", domain.ErrVenueProtocol, err)
	}

	recovered := float64(resp.Order.TakerFillCount) * float64(bestBid) / 100
	return resp.Order.OrderID, recovered, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func (c *Client) doSignedRequest(ctx context.Context, method, path string, reqBody any, timeout time.Duration) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if err := c.signRequest(req, method, path); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigningFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// signRequest signs the request with RSASSA-PSS-SHA256 over
// timestamp_ms + METHOD + path. The request body never enters the signed
// message, even for POST.
func (c *Client) signRequest(req *http.Request, method, path string) error {
	if c.privateKey == nil {
		return fmt.Errorf("venuea: RSA private key not configured")
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	pathOnly := path
	if i := indexByte(path, '?'); i >= 0 {
		pathOnly = path[:i]
	}
	message := ts + method + pathOnly

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr ErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, apiErr.Message, apiErr.Code)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s (%s)", domain.ErrAuth, apiErr.Message, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s (%s)", domain.ErrRateLimited, apiErr.Message, apiErr.Code)
	case http.StatusConflict:
		return fmt.Errorf("%w: order conflict: %s (%s)", domain.ErrOrderRejected, apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("%w: HTTP %d: %s (%s)", domain.ErrVenueProtocol, statusCode, apiErr.Message, apiErr.Code)
	}
}
