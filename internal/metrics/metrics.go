// Package metrics exposes Prometheus metrics for the HTTP server and for
// post activity.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application metrics. It implements services.Recorder.
type Collector struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	likeToggles  *prometheus.CounterVec
	postsCreated prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mernlog_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mernlog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		likeToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mernlog_like_toggles_total",
			Help: "Like toggles by resulting action.",
		}, []string{"action"}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mernlog_posts_created_total",
			Help: "Posts created.",
		}),
	}

	reg.MustRegister(c.requests, c.latency, c.likeToggles, c.postsCreated)
	return c
}

// PostCreated counts a new post.
func (c *Collector) PostCreated() {
	c.postsCreated.Inc()
}

// LikeToggled counts a like or unlike.
func (c *Collector) LikeToggled(liked bool) {
	action := "unlike"
	if liked {
		action = "like"
	}
	c.likeToggles.WithLabelValues(action).Inc()
}

// Middleware records the count and latency of every request. The route label
// is the matched route pattern so ids do not blow up cardinality.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := ctx.Route().Path
		method := ctx.Method()

		c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		c.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
