// Package metrics defines the Prometheus collectors exported by the
// settlement service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector so components can share one registry.
type Metrics struct {
	MarketsCreated   prometheus.Counter
	MarketsResolved  prometheus.Counter
	MarketsCancelled prometheus.Counter

	BetsPlaced prometheus.Counter
	BetVolume  prometheus.Counter

	ExitsProcessed  prometheus.Counter
	ClaimsProcessed prometheus.Counter
	RefundsIssued   prometheus.Counter
	PayoutTotal     prometheus.Counter
	ExitFeeTotal    prometheus.Counter

	ActiveMarkets prometheus.Gauge

	WeatherRequestDuration prometheus.Histogram
	WeatherRequestErrors   prometheus.Counter

	HTTPRequests *prometheus.CounterVec
}

// New registers all collectors on the given registerer and returns them.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MarketsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_markets_created_total",
			Help: "Markets created since process start.",
		}),
		MarketsResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_markets_resolved_total",
			Help: "Markets resolved to a final outcome.",
		}),
		MarketsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_markets_cancelled_total",
			Help: "Markets cancelled before resolution.",
		}),
		BetsPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_bets_placed_total",
			Help: "Bets accepted into pools.",
		}),
		BetVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_bet_volume_total",
			Help: "Total staked value in smallest units.",
		}),
		ExitsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_exits_processed_total",
			Help: "Early position exits processed.",
		}),
		ClaimsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_claims_processed_total",
			Help: "Winning claims processed.",
		}),
		RefundsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_refunds_issued_total",
			Help: "Refunds issued for cancelled markets.",
		}),
		PayoutTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_payout_total",
			Help: "Total value paid out in smallest units.",
		}),
		ExitFeeTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_exit_fee_total",
			Help: "Total exit fees retained in smallest units.",
		}),
		ActiveMarkets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "skyfall_active_markets",
			Help: "Markets currently open for betting.",
		}),
		WeatherRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "skyfall_weather_request_duration_seconds",
			Help:    "Latency of weather provider requests.",
			Buckets: prometheus.DefBuckets,
		}),
		WeatherRequestErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "skyfall_weather_request_errors_total",
			Help: "Failed weather provider requests.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skyfall_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}
}
