package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tranquil_client",
			Name:      "requests_total",
			Help:      "API requests issued, by route and response code.",
		},
		[]string{"method", "route", "code"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tranquil_client",
			Name:      "request_duration_seconds",
			Help:      "API round-trip latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	unauthorizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tranquil_client",
			Name:      "session_expired_total",
			Help:      "Sessions cleared after a 401/403 response.",
		},
	)
)

type routeKey struct{}

// withRoute tags ctx with a low-cardinality route template for metrics.
func withRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	route, _ := ctx.Value(routeKey{}).(string)
	return route
}
