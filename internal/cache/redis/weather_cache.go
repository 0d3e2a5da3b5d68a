package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// WeatherCache implements domain.WeatherCache using Redis string values.
// Each observation is stored JSON-encoded at key "weather:{city}" with a TTL
// so stale readings expire on their own.
type WeatherCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewWeatherCache creates a WeatherCache backed by the given Client. A zero
// or negative ttl falls back to ten minutes.
func NewWeatherCache(c *Client, ttl time.Duration) *WeatherCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &WeatherCache{rdb: c.Underlying(), ttl: ttl}
}

func weatherKey(city string) string {
	return "weather:" + strings.ToLower(strings.TrimSpace(city))
}

// SetObservation stores an observation for its city, replacing any previous
// reading.
func (wc *WeatherCache) SetObservation(ctx context.Context, obs domain.Observation) error {
	payload, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("redis: marshal observation %s: %w", obs.City, err)
	}
	if err := wc.rdb.Set(ctx, weatherKey(obs.City), payload, wc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set observation %s: %w", obs.City, err)
	}
	return nil
}

// GetObservation retrieves the cached observation for a city. It returns
// domain.ErrNotFound when no fresh reading exists.
func (wc *WeatherCache) GetObservation(ctx context.Context, city string) (domain.Observation, error) {
	payload, err := wc.rdb.Get(ctx, weatherKey(city)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Observation{}, domain.ErrNotFound
		}
		return domain.Observation{}, fmt.Errorf("redis: get observation %s: %w", city, err)
	}

	var obs domain.Observation
	if err := json.Unmarshal(payload, &obs); err != nil {
		return domain.Observation{}, fmt.Errorf("redis: unmarshal observation %s: %w", city, err)
	}
	return obs, nil
}

// Compile-time interface check.
var _ domain.WeatherCache = (*WeatherCache)(nil)
