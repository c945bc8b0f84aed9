package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal     metric.Int64Counter
	HTTPRequestDuration   metric.Float64Histogram
	MoodLogsTotal         metric.Int64Counter
	MoodLogsRejectedTotal metric.Int64Counter
	InsightRequestsTotal  metric.Int64Counter
	LiveFeedSubscribers   metric.Int64UpDownCounter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("mood-atlas")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.MoodLogsTotal, err = meter.Int64Counter(
			"mood_logs_total",
			metric.WithDescription("Total number of mood entries accepted"),
			metric.WithUnit("{entry}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create mood_logs_total: %v", err)
		}

		m.MoodLogsRejectedTotal, err = meter.Int64Counter(
			"mood_logs_rejected_total",
			metric.WithDescription("Total number of mood entries rejected by scheduling or limits"),
			metric.WithUnit("{entry}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create mood_logs_rejected_total: %v", err)
		}

		m.InsightRequestsTotal, err = meter.Int64Counter(
			"insight_requests_total",
			metric.WithDescription("Total number of AI insight generations attempted"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create insight_requests_total: %v", err)
		}

		m.LiveFeedSubscribers, err = meter.Int64UpDownCounter(
			"live_feed_subscribers_current",
			metric.WithDescription("Current number of city live feed subscribers"),
			metric.WithUnit("{subscriber}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create live_feed_subscribers_current: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
