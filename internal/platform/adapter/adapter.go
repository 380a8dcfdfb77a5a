// Package adapter wraps the raw venue-A and venue-B clients with market
// normalization so each satisfies domain.VenueAdapter. Neither raw client
// package imports normalize directly (normalize imports them, to convert
// their native market shapes), so the wiring lives here instead of on the
// clients themselves.
package adapter

import (
	"context"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/alanyoungcy/polymarketbot/internal/normalize"
	"github.com/alanyoungcy/polymarketbot/internal/platform/venuea"
	"github.com/alanyoungcy/polymarketbot/internal/platform/venueb"
)

// VenueA wraps a venuea.Client, normalizing ListMarkets' output and
// otherwise delegating straight through.
type VenueA struct {
	client      *venuea.Client
	windowHours int
}

// NewVenueA creates a VenueA adapter. windowHours bounds ListMarkets to
// markets resolving within that many hours.
func NewVenueA(client *venuea.Client, windowHours int) *VenueA {
	return &VenueA{client: client, windowHours: windowHours}
}

func (a *VenueA) Name() string { return a.client.Name() }

func (a *VenueA) ListMarkets(ctx context.Context) ([]domain.NormalizedMarket, error) {
	raw, err := a.client.ListMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.VenueAMarkets(raw, time.Now().UTC(), a.windowHours), nil
}

func (a *VenueA) GetQuote(ctx context.Context, m domain.NormalizedMarket) (domain.Quote, error) {
	return a.client.GetQuote(ctx, m)
}

func (a *VenueA) PlaceTaker(ctx context.Context, m domain.NormalizedMarket, side string, units int, limitCents float64) (string, error) {
	return a.client.PlaceTaker(ctx, m, side, units, limitCents)
}

func (a *VenueA) Cancel(ctx context.Context, orderID string) error {
	return a.client.Cancel(ctx, orderID)
}

func (a *VenueA) GetFill(ctx context.Context, orderID string) (domain.Fill, error) {
	return a.client.GetFill(ctx, orderID)
}

func (a *VenueA) GetBalance(ctx context.Context) (float64, error) {
	return a.client.GetBalance(ctx)
}

func (a *VenueA) SellAtBid(ctx context.Context, m domain.NormalizedMarket, side string, units int) (string, float64, error) {
	return a.client.SellAtBid(ctx, m, side, units)
}

var _ domain.VenueAdapter = (*VenueA)(nil)

// VenueB wraps a venueb.ClobClient, normalizing ListMarkets' output and
// otherwise delegating straight through.
type VenueB struct {
	client      *venueb.ClobClient
	windowHours int
}

// NewVenueB creates a VenueB adapter. windowHours bounds ListMarkets to
// markets resolving within that many hours.
func NewVenueB(client *venueb.ClobClient, windowHours int) *VenueB {
	return &VenueB{client: client, windowHours: windowHours}
}

func (b *VenueB) Name() string { return b.client.Name() }

func (b *VenueB) ListMarkets(ctx context.Context) ([]domain.NormalizedMarket, error) {
	raw, err := b.client.ListGammaMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.VenueBMarkets(raw, time.Now().UTC(), b.windowHours), nil
}

func (b *VenueB) GetQuote(ctx context.Context, m domain.NormalizedMarket) (domain.Quote, error) {
	return b.client.GetQuote(ctx, m)
}

func (b *VenueB) PlaceTaker(ctx context.Context, m domain.NormalizedMarket, side string, units int, limitCents float64) (string, error) {
	return b.client.PlaceTaker(ctx, m, side, units, limitCents)
}

func (b *VenueB) Cancel(ctx context.Context, orderID string) error {
	return b.client.Cancel(ctx, orderID)
}

func (b *VenueB) GetFill(ctx context.Context, orderID string) (domain.Fill, error) {
	return b.client.GetFill(ctx, orderID)
}

func (b *VenueB) GetBalance(ctx context.Context) (float64, error) {
	return b.client.GetBalance(ctx)
}

func (b *VenueB) SellAtBid(ctx context.Context, m domain.NormalizedMarket, side string, units int) (string, float64, error) {
	return b.client.SellAtBid(ctx, m, side, units)
}

var _ domain.VenueAdapter = (*VenueB)(nil)
