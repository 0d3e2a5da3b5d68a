package domain

import (
	"context"
	"time"
)

// Observation is a raw weather reading for a city, at provider scale
// (before fixed-point conversion).
type Observation struct {
	City       string  `json:"city"`
	TempC      float64 `json:"temp_c"`
	RainMM     float64 `json:"rain_mm"`   // rainfall over the last hour
	WindMS     float64 `json:"wind_ms"`   // metres per second
	ObservedAt int64   `json:"observed_at"`
}

// WeatherCache caches provider observations so the resolver does not burn
// API quota on repeated reads for the same city.
type WeatherCache interface {
	SetObservation(ctx context.Context, obs Observation) error
	GetObservation(ctx context.Context, city string) (Observation, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking, used to serialize resolver runs
// across instances.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage represents a single entry from a durable event stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub for lifecycle events and durable streams for
// off-engine indexing.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
