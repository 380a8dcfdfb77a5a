package venueb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/crypto"
	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// ClobClient is the REST client for the venue-B CLOB. ListGammaMarkets
// returns raw, unnormalized records; internal/platform/adapter wraps a
// ClobClient with normalization to satisfy domain.VenueAdapter.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	signer     *crypto.Signer
	hmacAuth   *crypto.HMACAuth
	funder     string
	gamma      *GammaClient
}

// NewClobClient creates a CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// signer is the EIP-712 signer used for order and auth-derivation
// signatures. funder is the proxy wallet address holding collateral.
func NewClobClient(baseURL string, signer *crypto.Signer, hmac *crypto.HMACAuth, funder string, gamma *GammaClient) *ClobClient {
	return &ClobClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		signer:     signer,
		hmacAuth:   hmac,
		funder:     funder,
		gamma:      gamma,
	}
}

func (c *ClobClient) Name() string { return string(domain.VenueB) }

// ListGammaMarkets discovers markets via the Gamma client and returns the
// raw records; it fetches no order books. Callers normalize the result.
func (c *ClobClient) ListGammaMarkets(ctx context.Context) ([]GammaMarket, error) {
	return c.gamma.ListMarkets(ctx)
}

// GetBook returns the order book for a single token. Asks are sorted
// descending by price; the best ask is the last element.
func (c *ClobClient) GetBook(ctx context.Context, tokenID string) (Book, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/book?token_id="+tokenID, nil)
	if err != nil {
		return Book{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Book{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Book{}, fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}
	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return Book{}, err
	}

	var book Book
	if err := json.Unmarshal(body, &book); err != nil {
		return Book{}, fmt.Errorf("%w: decode book: %v", domain.ErrVenueProtocol, err)
	}
	book.AssetID = tokenID
	return book, nil
}

// GetQuote returns the best ask/depth for each side of a normalized market.
func (c *ClobClient) GetQuote(ctx context.Context, m domain.NormalizedMarket) (domain.Quote, error) {
	q := domain.Quote{}

	if m.YesToken != "" {
		book, err := c.GetBook(ctx, m.YesToken)
		if err == nil {
			askCents, depth, ladder := bestAskFromBook(book)
			if askCents != nil {
				q.YesAskCents = askCents
				q.YesDepth = depth
				q.YesLadder = ladder
			}
		}
	}
	if m.NoToken != "" {
		book, err := c.GetBook(ctx, m.NoToken)
		if err == nil {
			askCents, depth, ladder := bestAskFromBook(book)
			if askCents != nil {
				q.NoAskCents = askCents
				q.NoDepth = depth
				q.NoLadder = ladder
			}
		}
	}
	return q, nil
}

// bestAskFromBook reduces a descending-by-price ask array to the canonical
// best-first ladder: best ask is the LAST entry in the raw array, so the
// canonical ladder is built by walking it back to front.
func bestAskFromBook(book Book) (*float64, float64, []domain.LadderLevel) {
	if len(book.Asks) == 0 {
		return nil, 0, nil
	}
	ladder := make([]domain.LadderLevel, 0, len(book.Asks))
	for i := len(book.Asks) - 1; i >= 0; i-- {
		price, err1 := strconv.ParseFloat(book.Asks[i].Price, 64)
		size, err2 := strconv.ParseFloat(book.Asks[i].Size, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		ladder = append(ladder, domain.LadderLevel{PriceCents: price * 100, Size: size})
	}
	if len(ladder) == 0 {
		return nil, 0, nil
	}
	best := ladder[0].PriceCents
	return &best, ladder[0].Size, ladder
}

// PlaceTaker signs and submits a fill-or-kill buy order. units is a share
// count; limitCents is the limit price in cents (0-100), converted to the
// 0.0-1.0 fraction the exchange's fixed-point amounts expect.
func (c *ClobClient) PlaceTaker(ctx context.Context, m domain.NormalizedMarket, side string, units int, limitCents float64) (string, error) {
	tokenID := m.YesToken
	if side == "no" {
		tokenID = m.NoToken
	}
	return c.placeOrder(ctx, tokenID, side, units, limitCents, false)
}

func (c *ClobClient) placeOrder(ctx context.Context, tokenID, side string, units int, limitCents float64, sell bool) (string, error) {
	priceFraction := limitCents / 100
	takerAmount := big.NewInt(int64(float64(units) * 1e6))
	makerAmount := big.NewInt(int64(float64(units) * priceFraction * 1e6))
	orderSide := 0 // BUY
	apiSide := "BUY"
	if sell {
		orderSide = 1
		apiSide = "SELL"
		makerAmount, takerAmount = takerAmount, makerAmount
	}

	payload := crypto.OrderPayload{
		Salt:          strconv.FormatInt(time.Now().UnixNano(), 10),
		Maker:         c.funder,
		Signer:        c.signer.Address().Hex(),
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       tokenID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          orderSide,
		SignatureType: 1, // POLY_PROXY
	}

	sig, err := c.signer.SignOrder(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSigningFailed, err)
	}

	body := map[string]any{
		"order": map[string]any{
			"tokenID":       payload.TokenID,
			"makerAmount":   payload.MakerAmount,
			"takerAmount":   payload.TakerAmount,
			"side":          apiSide,
			"signature":     sig,
			"maker":         c.funder,
			"signer":        c.signer.Address().Hex(),
			"signatureType": payload.SignatureType,
		},
		"owner":     c.funder,
		"orderType": "FOK",
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", body, 10*time.Second)
	if err != nil {
		return "", fmt.Errorf("venueb: place order: %w", err)
	}

	var result APIOrderResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: decode order result: %v", domain.ErrVenueProtocol, err)
	}
	if !result.Success {
		return "", fmt.Errorf("%w: %s", domain.ErrOrderRejected, result.ErrorMsg)
	}
	return result.OrderID, nil
}

// Cancel cancels a single open order.
func (c *ClobClient) Cancel(ctx context.Context, orderID string) error {
	body := map[string]any{"orderID": orderID}
	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodDelete, "/order", body, 10*time.Second)
	if err != nil {
		return fmt.Errorf("venueb: cancel order %s: %w", orderID, err)
	}
	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("%w: decode cancel response: %v", domain.ErrVenueProtocol, err)
	}
	return nil
}

// GetFill reports the current match state of an order. venue-B FOK orders
// settle at submission; this is mostly used to confirm the actual matched
// size for book-walked partial fills.
func (c *ClobClient) GetFill(ctx context.Context, orderID string) (domain.Fill, error) {
	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodGet, "/order/"+orderID, nil, 10*time.Second)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("venueb: get fill %s: %w", orderID, err)
	}

	var status APIOrderStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return domain.Fill{}, fmt.Errorf("%w: decode order: %v", domain.ErrVenueProtocol, err)
	}

	orig, _ := strconv.ParseFloat(status.OriginalSize, 64)
	matched, _ := strconv.ParseFloat(status.SizeMatched, 64)

	return domain.Fill{
		OrderID:   status.ID,
		Status:    status.Status,
		Filled:    int(matched),
		Remaining: int(orig - matched),
	}, nil
}

// GetBalance returns the funder's available USDC collateral balance.
func (c *ClobClient) GetBalance(ctx context.Context) (float64, error) {
	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodGet, "/balance-allowance?asset_type=COLLATERAL", nil, 5*time.Second)
	if err != nil {
		return 0, fmt.Errorf("venueb: get balance: %w", err)
	}

	var result struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("%w: decode balance: %v", domain.ErrVenueProtocol, err)
	}

	raw, err := strconv.ParseFloat(result.Balance, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse balance: %v", domain.ErrVenueProtocol, err)
	}
	return raw / 1_000_000, nil
}

// SellAtBid closes a filled position at the current best bid — used by the
// unwind path, though in this system venue-B is always leg 2, so the
// unwind path sells on venue A instead. Retained to satisfy the shared
// VenueAdapter capability set and for completeness if roles ever reverse.
func (c *ClobClient) SellAtBid(ctx context.Context, m domain.NormalizedMarket, side string, units int) (string, float64, error) {
	tokenID := m.YesToken
	if side == "no" {
		tokenID = m.NoToken
	}
	book, err := c.GetBook(ctx, tokenID)
	if err != nil {
		return "", 0, fmt.Errorf("venueb: unwind book: %w", err)
	}
	if len(book.Bids) == 0 {
		return "", 0, fmt.Errorf("%w: no bid available to unwind", domain.ErrInsufficientLiquidity)
	}
	bestBidStr := book.Bids[0].Price
	bestBid, _ := strconv.ParseFloat(bestBidStr, 64)

	orderID, err := c.placeOrder(ctx, tokenID, side, units, bestBid*100, true)
	if err != nil {
		return "", 0, err
	}
	return orderID, bestBid * float64(units), nil
}

// DeriveAPIKey performs the CLOB L1 auth flow to obtain an HMAC API key from
// the wallet signature at a fixed nonce, used when explicit API credentials
// are absent from configuration.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) error {
	address := c.signer.Address().Hex()
	timestamp := time.Now().Unix()
	const nonce = int64(0)

	sig, err := c.signer.SignAuthMessage(address, timestamp, nonce)
	if err != nil {
		return fmt.Errorf("venueb: sign auth message: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", address)
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", strconv.FormatInt(timestamp, 10))
	req.Header.Set("POLY_NONCE", "0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}
	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return err
	}

	var authResp struct {
		APIKey     string `json:"apiKey"`
		Secret     string `json:"secret"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.Unmarshal(body, &authResp); err != nil {
		return fmt.Errorf("%w: decode auth response: %v", domain.ErrVenueProtocol, err)
	}

	c.hmacAuth = &crypto.HMACAuth{Key: authResp.APIKey, Secret: authResp.Secret, Passphrase: authResp.Passphrase}
	return nil
}

func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any, timeout time.Duration) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.hmacAuth != nil {
		address := c.signer.Address().Hex()
		headers := c.hmacAuth.L2Headers(address, method, path, bodyStr)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
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
	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}
