package venueb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

const gammaPageLimit = 500

// GammaClient discovers markets from the Gamma-style discovery API.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a discovery client. baseURL is the Gamma API root,
// e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ListMarkets paginates active, non-closed markets at a page size of 500.
func (g *GammaClient) ListMarkets(ctx context.Context) ([]GammaMarket, error) {
	var all []GammaMarket
	offset := 0

	for {
		params := url.Values{}
		params.Set("active", "true")
		params.Set("closed", "false")
		params.Set("limit", strconv.Itoa(gammaPageLimit))
		params.Set("offset", strconv.Itoa(offset))

		body, err := g.doGet(ctx, "/markets?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("venueb/gamma: list markets: %w", err)
		}

		var page []GammaMarket
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: decode markets: %v", domain.ErrVenueProtocol, err)
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		if len(page) < gammaPageLimit {
			break
		}
		offset += gammaPageLimit
	}

	return all, nil
}

func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrAuth, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrVenueProtocol, statusCode, bodyStr)
	}
}
