package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// Archiver implements domain.SettlementArchiver by serializing terminal
// market snapshots to JSON and uploading them to S3. A snapshot is written
// once per market; re-archiving a market that already has an object at its
// key is a no-op, so settlement retries are safe after a partial failure.
type Archiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	audit  domain.AuditStore
	now    func() time.Time
}

var _ domain.SettlementArchiver = (*Archiver)(nil)

// NewArchiver creates a new Archiver. The audit store may be nil, in which
// case archival events are not recorded.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader, audit domain.AuditStore) *Archiver {
	return &Archiver{
		writer: writer,
		reader: reader,
		audit:  audit,
		now:    time.Now,
	}
}

// Archive uploads the snapshot to S3 and returns the object key. The key is
// partitioned by the year-month of the archival time:
//
//	archive/settlements/2026-09/market-42.json
func (a *Archiver) Archive(ctx context.Context, snap domain.SettlementSnapshot) (string, error) {
	path := archivePath(snap.Market.ID, a.now().UTC())

	exists, err := a.reader.Exists(ctx, path)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive settlement check: %w", err)
	}
	if exists {
		return path, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return "", fmt.Errorf("s3blob: archive settlement marshal: %w", err)
	}

	if int64(buf.Len()) >= minPartSize {
		err = a.writer.PutMultipart(ctx, path, &buf, minPartSize)
	} else {
		err = a.writer.Put(ctx, path, &buf, "application/json")
	}
	if err != nil {
		return "", fmt.Errorf("s3blob: archive settlement upload: %w", err)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.settlement", map[string]any{
			"path":      path,
			"market_id": snap.Market.ID,
			"positions": len(snap.Positions),
			"records":   len(snap.Records),
		}); err != nil {
			return path, fmt.Errorf("s3blob: archive settlement audit log: %w", err)
		}
	}

	return path, nil
}

// Load retrieves and decodes an archived snapshot by its object key.
func (a *Archiver) Load(ctx context.Context, path string) (domain.SettlementSnapshot, error) {
	body, err := a.reader.Get(ctx, path)
	if err != nil {
		return domain.SettlementSnapshot{}, err
	}
	defer body.Close()

	var snap domain.SettlementSnapshot
	if err := json.NewDecoder(body).Decode(&snap); err != nil {
		return domain.SettlementSnapshot{}, fmt.Errorf("s3blob: decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

// ListMonth returns metadata for every snapshot archived in the given
// year-month.
func (a *Archiver) ListMonth(ctx context.Context, month time.Time) ([]domain.BlobInfo, error) {
	prefix := fmt.Sprintf("archive/settlements/%s/", month.Format("2006-01"))
	return a.reader.List(ctx, prefix)
}

// archivePath builds the S3 key for a settlement snapshot, partitioned by
// the year-month of the archival time.
func archivePath(marketID uint64, at time.Time) string {
	return fmt.Sprintf("archive/settlements/%s/market-%d.json", at.Format("2006-01"), marketID)
}
