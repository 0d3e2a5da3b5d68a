package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/engine"
)

// The engine is the source of truth for balances. Projection writes, event
// publishes, and audit rows must not reverse an engine mutation that has
// already been applied, so helpers below log failures instead of returning
// them; the projection is rebuilt from the engine on the next full write.

// persistMarket writes the engine's current record for one market through to
// the store.
func persistMarket(ctx context.Context, logger *slog.Logger, store domain.MarketStore, eng *engine.Engine, id uint64) {
	rec, err := eng.SnapshotMarket(id)
	if err != nil {
		logger.ErrorContext(ctx, "service: snapshot market failed",
			slog.Uint64("market_id", id),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := store.Upsert(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "service: persist market failed",
			slog.Uint64("market_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// persistPosition writes one position row through to the store.
func persistPosition(ctx context.Context, logger *slog.Logger, store domain.PositionStore, pos domain.Position) {
	if err := store.Upsert(ctx, pos); err != nil {
		logger.ErrorContext(ctx, "service: persist position failed",
			slog.Uint64("market_id", pos.MarketID),
			slog.String("wallet", pos.Wallet.Hex()),
			slog.String("error", err.Error()),
		)
	}
}

// publish JSON-encodes an event and sends it on the pub/sub channel plus the
// durable stream of the same name.
func publish(ctx context.Context, logger *slog.Logger, bus domain.SignalBus, channel string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.ErrorContext(ctx, "service: marshal event failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := bus.Publish(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "service: publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
	if err := bus.StreamAppend(ctx, channel, payload); err != nil {
		logger.WarnContext(ctx, "service: stream append failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

// auditLog appends an audit row, logging on failure.
func auditLog(ctx context.Context, logger *slog.Logger, audit domain.AuditStore, event string, detail map[string]any) {
	if err := audit.Log(ctx, event, detail); err != nil {
		logger.WarnContext(ctx, "service: audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
