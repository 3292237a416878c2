package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	GenerateRequestsTotal     metric.Int64Counter
	EnrichmentDurationSeconds metric.Float64Histogram
	ResolverLookupsTotal      metric.Int64Counter
	ResolverCacheHitsTotal    metric.Int64Counter
	MutationRequestsTotal     metric.Int64Counter
	DbQueryDurationSeconds    metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments exactly once,
// pulling the meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("routecraft")
		var err error
		m := &AppMetrics{}

		m.GenerateRequestsTotal, err = meter.Int64Counter(
			"itinerary_generate_requests_total",
			metric.WithDescription("Total number of itinerary generation requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_generate_requests_total: %v", err)
		}

		m.EnrichmentDurationSeconds, err = meter.Float64Histogram(
			"enrichment_duration_seconds",
			metric.WithDescription("Duration of full itinerary enrichment runs in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create enrichment_duration_seconds: %v", err)
		}

		m.ResolverLookupsTotal, err = meter.Int64Counter(
			"place_resolver_lookups_total",
			metric.WithDescription("Total number of place resolver lookups issued"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_resolver_lookups_total: %v", err)
		}

		m.ResolverCacheHitsTotal, err = meter.Int64Counter(
			"place_resolver_cache_hits_total",
			metric.WithDescription("Place resolver lookups served from the in-process cache"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_resolver_cache_hits_total: %v", err)
		}

		m.MutationRequestsTotal, err = meter.Int64Counter(
			"itinerary_mutation_requests_total",
			metric.WithDescription("Total number of structural itinerary mutations applied"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_mutation_requests_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance. InitAppMetrics
// must run at startup before any caller reaches this.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics.InitAppMetrics must be called before metrics.Get")
	}
	return appMetrics
}
