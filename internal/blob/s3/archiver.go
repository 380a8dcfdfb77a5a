package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// TradeArchiveStore is the narrow read interface the archiver needs from
// the trades table: every trade strictly before a cutoff time.
type TradeArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Trade, error)
}

// ArchiveImpl implements domain.Archiver. It uploads the NDJSON opportunity
// stream straight through to S3 (the orchestrator already has it as
// newline-delimited JSON, one line per tick) and snapshots the trades
// table to a JSONL file partitioned by cutoff month.
//
// Deletion of archived trade rows from Postgres is intentionally not
// performed here; that is left to an operator-triggered step once an
// archive has been verified.
type ArchiveImpl struct {
	writer domain.BlobWriter
	trades TradeArchiveStore
	audit  domain.AuditStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, trades TradeArchiveStore, audit domain.AuditStore) *ArchiveImpl {
	return &ArchiveImpl{writer: writer, trades: trades, audit: audit}
}

// ArchiveOpportunityStream uploads one day's NDJSON opportunity stream to
// S3 at opportunities/archive/YYYY-MM-DD.ndjson. The orchestrator already
// writes per-tick NDJSON lines under opportunities/{date}/{time}.ndjson as
// they're produced; this path is for callers (e.g. a batch job) that want
// to hand the archiver a pre-assembled day's worth of lines in one upload.
func (a *ArchiveImpl) ArchiveOpportunityStream(ctx context.Context, date time.Time, ndjson io.Reader) error {
	path := fmt.Sprintf("opportunities/archive/%s.ndjson", date.Format("2006-01-02"))
	if err := a.writer.Put(ctx, path, ndjson, "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: archive opportunity stream %s: %w", path, err)
	}
	if err := a.audit.Log(ctx, "archive.opportunity_stream", map[string]any{
		"path": path,
		"date": date.Format("2006-01-02"),
	}); err != nil {
		return fmt.Errorf("s3blob: archive opportunity stream audit log: %w", err)
	}
	return nil
}

// ArchiveTradeSnapshot queries every trade before the cutoff, serializes
// them to JSONL, and uploads the file to
// archive/trades/YYYY-MM.jsonl. Returns the number of trades archived.
func (a *ArchiveImpl) ArchiveTradeSnapshot(ctx context.Context, before time.Time) (int64, error) {
	trades, err := a.trades.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trade snapshot query: %w", err)
	}
	if len(trades) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trade snapshot marshal: %w", err)
	}

	path := fmt.Sprintf("archive/trades/%s.jsonl", before.Format("2006-01"))
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive trade snapshot upload: %w", err)
	}

	count := int64(len(trades))
	if err := a.audit.Log(ctx, "archive.trade_snapshot", map[string]any{
		"path":   path,
		"count":  count,
		"before": before.Format(time.RFC3339),
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive trade snapshot audit log: %w", err)
	}
	return count, nil
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
