package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

type fakeAdapter struct {
	name  string
	delay time.Duration
	err   error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) GetQuote(ctx context.Context, m domain.NormalizedMarket) (domain.Quote, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.Quote{}, ctx.Err()
		}
	}
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	ask := 50.0
	return domain.Quote{YesAskCents: &ask}, nil
}

func (f *fakeAdapter) ListMarkets(ctx context.Context) ([]domain.NormalizedMarket, error) {
	return nil, nil
}
func (f *fakeAdapter) PlaceTaker(ctx context.Context, m domain.NormalizedMarket, side string, units int, limitCents float64) (string, error) {
	return "", nil
}
func (f *fakeAdapter) Cancel(ctx context.Context, orderID string) error { return nil }
func (f *fakeAdapter) GetFill(ctx context.Context, orderID string) (domain.Fill, error) {
	return domain.Fill{}, nil
}
func (f *fakeAdapter) GetBalance(ctx context.Context) (float64, error) { return 0, nil }
func (f *fakeAdapter) SellAtBid(ctx context.Context, m domain.NormalizedMarket, side string, units int) (string, float64, error) {
	return "", 0, nil
}

func TestFetchBothSidesSucceed(t *testing.T) {
	a := &fakeAdapter{name: "venue_a"}
	b := &fakeAdapter{name: "venue_b"}
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1"},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1"},
	}

	got := Fetch(context.Background(), nil, DefaultConfig(), a, b, []domain.MatchedPair{pair})
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].A == nil || got[0].B == nil {
		t.Fatalf("expected both sides populated, got %+v", got[0])
	}
}

func TestFetchVenueErrorYieldsNilSide(t *testing.T) {
	a := &fakeAdapter{name: "venue_a", err: errors.New("boom")}
	b := &fakeAdapter{name: "venue_b"}
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1"},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1"},
	}

	got := Fetch(context.Background(), nil, DefaultConfig(), a, b, []domain.MatchedPair{pair})
	if got[0].A != nil {
		t.Errorf("expected nil A quote on error, got %+v", got[0].A)
	}
	if got[0].B == nil {
		t.Errorf("expected B quote to still succeed")
	}
}

func TestFetchTimeoutYieldsNilSide(t *testing.T) {
	a := &fakeAdapter{name: "venue_a", delay: 50 * time.Millisecond}
	b := &fakeAdapter{name: "venue_b"}
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1"},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1"},
	}

	cfg := Config{Workers: 4, CallDeadline: 5 * time.Millisecond}
	got := Fetch(context.Background(), nil, cfg, a, b, []domain.MatchedPair{pair})
	if got[0].A != nil {
		t.Errorf("expected nil A quote on timeout, got %+v", got[0].A)
	}
}

func TestFetchQuotesAllPairsWithFewerWorkers(t *testing.T) {
	a := &fakeAdapter{name: "venue_a"}
	b := &fakeAdapter{name: "venue_b"}
	var pairs []domain.MatchedPair
	for i := 0; i < 50; i++ {
		pairs = append(pairs, domain.MatchedPair{
			A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a"},
			B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b"},
		})
	}

	cfg := Config{Workers: 3, CallDeadline: time.Second}
	got := Fetch(context.Background(), nil, cfg, a, b, pairs)
	if len(got) != 50 {
		t.Fatalf("got %d results, want 50", len(got))
	}
	for _, r := range got {
		if r.A == nil || r.B == nil {
			t.Fatalf("expected all pairs quoted, got %+v", r)
		}
	}
}
