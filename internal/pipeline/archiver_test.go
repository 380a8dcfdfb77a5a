package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeBlobArchiver struct {
	archived   int64
	err        error
	calls      int
	lastBefore time.Time
}

func (f *fakeBlobArchiver) ArchiveOpportunityStream(ctx context.Context, date time.Time, ndjson io.Reader) error {
	return nil
}

func (f *fakeBlobArchiver) ArchiveTradeSnapshot(ctx context.Context, before time.Time) (int64, error) {
	f.calls++
	f.lastBefore = before
	if f.err != nil {
		return 0, f.err
	}
	return f.archived, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiverRunSuccess(t *testing.T) {
	fake := &fakeBlobArchiver{archived: 7}
	a := NewArchiver(fake, 30, discardLogger())

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("expected 1 call, got %d", fake.calls)
	}

	wantCutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if diff := fake.lastBefore.Sub(wantCutoff); diff > time.Minute || diff < -time.Minute {
		t.Fatalf("cutoff off by %v", diff)
	}
}

func TestArchiverRunPropagatesError(t *testing.T) {
	fake := &fakeBlobArchiver{err: errors.New("s3 unreachable")}
	a := NewArchiver(fake, 30, discardLogger())

	err := a.Run(context.Background())
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestParseCronFieldWildcard(t *testing.T) {
	f, err := parseCronField("*")
	if err != nil {
		t.Fatalf("parseCronField: %v", err)
	}
	if !f.matches(0) || !f.matches(59) {
		t.Fatal("wildcard field should match any value")
	}
}

func TestParseCronFieldList(t *testing.T) {
	f, err := parseCronField("1,15,30")
	if err != nil {
		t.Fatalf("parseCronField: %v", err)
	}
	if !f.matches(15) {
		t.Fatal("expected 15 to match")
	}
	if f.matches(16) {
		t.Fatal("expected 16 not to match")
	}
}

func TestParseCronFieldInvalid(t *testing.T) {
	if _, err := parseCronField("abc"); err == nil {
		t.Fatal("expected error for non-numeric field")
	}
}

func TestParseCronRequiresFiveFields(t *testing.T) {
	if _, err := parseCron("0 3 * *"); err == nil {
		t.Fatal("expected error for cron expression with 4 fields")
	}
}

func TestParseCronMatchesTime(t *testing.T) {
	c, err := parseCron("0 3 * * *")
	if err != nil {
		t.Fatalf("parseCron: %v", err)
	}

	match := time.Date(2026, time.March, 5, 3, 0, 0, 0, time.UTC)
	if !c.matchesTime(match) {
		t.Fatal("expected 03:00 on any day to match \"0 3 * * *\"")
	}

	noMatch := time.Date(2026, time.March, 5, 3, 1, 0, 0, time.UTC)
	if c.matchesTime(noMatch) {
		t.Fatal("expected 03:01 not to match")
	}
}

func TestNextCronTimeAdvancesToNextDay(t *testing.T) {
	after := time.Date(2026, time.March, 5, 3, 0, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 * * *", after)
	if err != nil {
		t.Fatalf("nextCronTime: %v", err)
	}

	want := time.Date(2026, time.March, 6, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("got %v want %v", next, want)
	}
}

func TestNextCronTimeInvalidExpression(t *testing.T) {
	if _, err := nextCronTime("not a cron", time.Now()); err == nil {
		t.Fatal("expected error for malformed cron expression")
	}
}

func TestArchiverRunCronStopsOnCancel(t *testing.T) {
	fake := &fakeBlobArchiver{archived: 1}
	a := NewArchiver(fake, 30, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.RunCron(ctx, "0 3 * * *")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
