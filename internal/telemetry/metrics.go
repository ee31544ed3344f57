// Package telemetry provides application-level observability for the checklist service.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http://<host>:<RVE_TELEMETRY_METRICS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format and is intended to be scraped every 15–60 seconds.  It is NOT served by
// the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Checklist submission counters by source and type
//   - Link lifecycle counters (issued, consumed, rejected, swept)
//   - Redis connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/links/:token)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as link tokens or checklist ids.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template, NOT the raw URL.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Checklist submission metrics.
//
// ChecklistSubmissionsTotal is a CounterVec with labels {source, type} incremented
// once per stored submission.  "source" is "direct" or "link"; "type" is the
// checklist type id (bounded by the catalog, so cardinality stays low).
//
// Example PromQL queries:
//   - Submissions per day by type:  sum by (type) (increase(checklist_submissions_total[24h]))
//   - Share arriving via links:     sum(rate(checklist_submissions_total{source="link"}[1h])) / sum(rate(checklist_submissions_total[1h]))
var ChecklistSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checklist_submissions_total",
		Help: "Total number of checklist submissions stored, by source and checklist type.",
	},
	[]string{"source", "type"},
)

// Link lifecycle metrics.
//
// LinksIssuedTotal and LinksConsumedTotal are plain counters; the difference
// between their rates approximates how many issued links go unused.
//
// LinkRejectionsTotal is a CounterVec with label {reason} ("used", "expired",
// "unknown") incremented whenever validate or resolve turns a client away.
// A spike in reason="used" can indicate a shared or replayed link.
//
// LinksSweptTotal counts index entries pruned by the expired-link sweeper job.
var (
	LinksIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_issued_total",
			Help: "Total number of single-use checklist links issued.",
		},
	)

	LinksConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_consumed_total",
			Help: "Total number of single-use links successfully consumed.",
		},
	)

	LinkRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_rejections_total",
			Help: "Total number of link validations or resolutions rejected, by reason.",
		},
		[]string{"reason"},
	)

	LinksSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_swept_total",
			Help: "Total number of stale tokens pruned from the active-links index.",
		},
	)
)

// RedisPoolConnections is a Gauge that tracks the total number of connections
// currently held by the go-redis pool.  It is sampled every 30 seconds by
// StartKVStatsCollector rather than per-request.
//
// Example PromQL queries:
//   - Pool utilisation (%): redis_pool_connections / <RVE_REDIS_POOL_SIZE> * 100
var RedisPoolConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "redis_pool_connections",
		Help: "Current number of connections held by the Redis client pool.",
	},
)

// StartKVStatsCollector launches a background goroutine that samples go-redis
// pool statistics every 30 seconds and updates the RedisPoolConnections gauge.
// The goroutine exits cleanly when Redis becomes unreachable (Ping fails),
// which happens automatically when the application shuts down and closes the client.
//
// Call this once, immediately after the Redis store connects in main.go.
func StartKVStatsCollector(client *redis.Client) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		ctx := context.Background()
		for range ticker.C {
			if err := client.Ping(ctx).Err(); err != nil {
				slog.Warn("kv stats collector: redis unreachable, stopping collector", "error", err)
				return
			}
			RedisPoolConnections.Set(float64(client.PoolStats().TotalConns))
		}
	}()
}
