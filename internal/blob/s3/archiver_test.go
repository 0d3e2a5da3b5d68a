package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

type fakeBlobStore struct {
	objects map[string][]byte
	puts    int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, path string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[path] = buf
	f.puts++
	return nil
}

func (f *fakeBlobStore) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return f.Put(ctx, path, data, "")
}

func (f *fakeBlobStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	buf, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("s3blob: get %s: %w", path, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (f *fakeBlobStore) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path, buf := range f.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, domain.BlobInfo{Path: path, Size: int64(len(buf))})
		}
	}
	return infos, nil
}

func (f *fakeBlobStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f.objects[path]
	return ok, nil
}

type fakeAudit struct {
	events []string
}

func (f *fakeAudit) Log(_ context.Context, event string, _ map[string]any) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAudit) List(_ context.Context, _ domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func testSnapshot() domain.SettlementSnapshot {
	return domain.SettlementSnapshot{
		Market: domain.Market{
			ID:        42,
			City:      "Mumbai",
			Condition: domain.ConditionRainfall,
			Status:    domain.MarketResolved,
		},
	}
}

func newTestArchiver(store *fakeBlobStore, audit domain.AuditStore) *Archiver {
	a := NewArchiver(store, store, audit)
	a.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestArchiveWritesSnapshot(t *testing.T) {
	store := newFakeBlobStore()
	audit := &fakeAudit{}
	a := newTestArchiver(store, audit)

	key, err := a.Archive(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if want := "archive/settlements/2026-09/market-42.json"; key != want {
		t.Fatalf("key = %q, want %q", key, want)
	}
	if _, ok := store.objects[key]; !ok {
		t.Fatalf("no object stored at %s", key)
	}
	if len(audit.events) != 1 || audit.events[0] != "archive.settlement" {
		t.Fatalf("audit events = %v", audit.events)
	}
}

func TestArchiveIsIdempotent(t *testing.T) {
	store := newFakeBlobStore()
	a := newTestArchiver(store, nil)

	if _, err := a.Archive(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("first Archive: %v", err)
	}
	if _, err := a.Archive(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("second Archive: %v", err)
	}
	if store.puts != 1 {
		t.Fatalf("puts = %d, want 1", store.puts)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	store := newFakeBlobStore()
	a := newTestArchiver(store, nil)

	snap := testSnapshot()
	key, err := a.Archive(context.Background(), snap)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	got, err := a.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Market.ID != snap.Market.ID || got.Market.City != snap.Market.City {
		t.Fatalf("loaded market = %+v, want %+v", got.Market, snap.Market)
	}
}

func TestListMonth(t *testing.T) {
	store := newFakeBlobStore()
	a := newTestArchiver(store, nil)

	if _, err := a.Archive(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	infos, err := a.ListMonth(context.Background(), time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListMonth: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("infos = %d, want 1", len(infos))
	}
}
