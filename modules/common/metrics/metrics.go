package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Turn metrics
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wearly_turns_total",
			Help: "Total dispatched chat actions",
		},
		[]string{"action", "outcome"}, // outcome: ok | settings_required | error
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wearly_turn_duration_seconds",
			Help:    "Chat action duration including external calls",
			Buckets: []float64{.05, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"action"},
	)

	// External calls
	GeminiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wearly_gemini_requests_total",
			Help: "Gemini requests by operation and result",
		},
		[]string{"operation", "result"},
	)

	WeatherCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wearly_weather_cache_lookups_total",
			Help: "Weather forecast lookups by cache tier",
		},
		[]string{"tier"}, // request | redis | provider (memory hit = request - redis - provider)
	)

	// Sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wearly_active_sessions",
			Help: "Sessions currently held in memory",
		},
	)

	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wearly_websocket_connections",
			Help: "Open WebSocket connections",
		},
	)
)
