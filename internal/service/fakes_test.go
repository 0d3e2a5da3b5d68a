package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// ---------------------------------------------------------------------------
// In-memory store fakes.
// ---------------------------------------------------------------------------

type memMarketStore struct {
	mu   sync.Mutex
	recs map[uint64]domain.MarketRecord
}

func newMemMarketStore() *memMarketStore {
	return &memMarketStore{recs: make(map[uint64]domain.MarketRecord)}
}

func (s *memMarketStore) Upsert(_ context.Context, rec domain.MarketRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec
	return nil
}

func (s *memMarketStore) GetByID(_ context.Context, id uint64) (domain.MarketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return domain.MarketRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (s *memMarketStore) ListAll(_ context.Context) ([]domain.MarketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MarketRecord, 0, len(s.recs))
	for id := uint64(1); id <= uint64(len(s.recs)); id++ {
		out = append(out, s.recs[id])
	}
	return out, nil
}

func (s *memMarketStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.recs)), nil
}

type posKey struct {
	marketID uint64
	wallet   common.Address
}

type memPositionStore struct {
	mu  sync.Mutex
	pos map[posKey]domain.Position
}

func newMemPositionStore() *memPositionStore {
	return &memPositionStore{pos: make(map[posKey]domain.Position)}
}

func (s *memPositionStore) Upsert(_ context.Context, p domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos[posKey{p.MarketID, p.Wallet}] = p
	return nil
}

func (s *memPositionStore) Get(_ context.Context, marketID uint64, wallet common.Address) (domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pos[posKey{marketID, wallet}]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *memPositionStore) ListByMarket(_ context.Context, marketID uint64) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Position
	for k, p := range s.pos {
		if k.marketID == marketID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memPositionStore) ListByWallet(_ context.Context, wallet common.Address, _ domain.ListOpts) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Position
	for k, p := range s.pos {
		if k.wallet == wallet {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memPositionStore) ListAll(_ context.Context) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Position, 0, len(s.pos))
	for _, p := range s.pos {
		out = append(out, p)
	}
	return out, nil
}

type memSettlementStore struct {
	mu   sync.Mutex
	recs []domain.SettlementRecord
}

func (s *memSettlementStore) Insert(_ context.Context, rec domain.SettlementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *memSettlementStore) ListByMarket(_ context.Context, marketID uint64) ([]domain.SettlementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SettlementRecord
	for _, rec := range s.recs {
		if rec.MarketID == marketID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memSettlementStore) SumPayouts(_ context.Context, marketID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, rec := range s.recs {
		if rec.MarketID == marketID {
			total += rec.Payout
		}
	}
	return total, nil
}

type memAuditStore struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (s *memAuditStore) Log(_ context.Context, event string, detail map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, domain.AuditEntry{
		ID:        int64(len(s.entries) + 1),
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *memAuditStore) List(_ context.Context, _ domain.ListOpts) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

type memBus struct {
	mu        sync.Mutex
	published map[string][][]byte
	streamed  map[string][][]byte
}

func newMemBus() *memBus {
	return &memBus{
		published: make(map[string][][]byte),
		streamed:  make(map[string][][]byte),
	}
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *memBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (b *memBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streamed[stream] = append(b.streamed[stream], payload)
	return nil
}

func (b *memBus) StreamRead(_ context.Context, stream string, _ string, _ int) ([]domain.StreamMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.StreamMessage
	for _, p := range b.streamed[stream] {
		out = append(out, domain.StreamMessage{ID: uuid.NewString(), Payload: p})
	}
	return out, nil
}

func (b *memBus) publishedOn(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published[channel])
}

type stubAuthorizer struct {
	mu       sync.Mutex
	vouchers []domain.PayoutVoucher
}

func (a *stubAuthorizer) Authorize(_ context.Context, marketID uint64, to common.Address, amount int64, reason string) (domain.PayoutVoucher, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := domain.PayoutVoucher{
		ID:       uuid.New().String(),
		MarketID: marketID,
		To:       to,
		Amount:   amount,
		Reason:   reason,
		IssuedAt: time.Now().Unix(),
	}
	a.vouchers = append(a.vouchers, v)
	return v, nil
}

type memArchiver struct {
	mu    sync.Mutex
	snaps []domain.SettlementSnapshot
}

func (a *memArchiver) Archive(_ context.Context, snap domain.SettlementSnapshot) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snaps = append(a.snaps, snap)
	return "settlements/test", nil
}
