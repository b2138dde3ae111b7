package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/MolFrag/internal/domain/fragmentation"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Fragmentation Layer
	FragmentationRequestsTotal CounterVec
	FragmentationDuration      HistogramVec
	FragmentSetsTotal          CounterVec
	FragmentSetsPerMolecule    HistogramVec
	EngineWorkTotal            CounterVec
	BatchSize                  HistogramVec
	ActiveFactories            GaugeVec

	// Infrastructure Layer
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	MessageProcessDuration HistogramVec
	MessagesTotal          CounterVec

	// System Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets          = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultFragmentationDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60}
	DefaultCountBuckets                 = []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000, 10000}
)

// NewAppMetrics registers all metrics and returns the AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	// Fragmentation
	m.FragmentationRequestsTotal = collector.RegisterCounter("fragmentation_requests_total", "Fragmentation requests", "operation", "status")
	m.FragmentationDuration = collector.RegisterHistogram("fragmentation_duration_seconds", "Fragmentation duration", DefaultFragmentationDurationBuckets, "operation")
	m.FragmentSetsTotal = collector.RegisterCounter("fragment_sets_total", "Fragment sets produced", "cuts")
	m.FragmentSetsPerMolecule = collector.RegisterHistogram("fragment_sets_per_molecule", "Fragment sets per molecule", DefaultCountBuckets)
	m.EngineWorkTotal = collector.RegisterCounter("engine_work_total", "Engine work counters", "counter")
	m.BatchSize = collector.RegisterHistogram("batch_size", "Molecules per batch request", DefaultCountBuckets)
	m.ActiveFactories = collector.RegisterGauge("active_factories", "Open fragmentation factories")

	// Infrastructure
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultFragmentationDurationBuckets, "topic")
	m.MessagesTotal = collector.RegisterCounter("mq_messages_total", "Messages handled", "topic", "status")

	// System Health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordFragmentation records one engine call.  operation is one of
// "fragment", "max_cuts", "combinations" or "batch".
func RecordFragmentation(metrics *AppMetrics, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.FragmentationRequestsTotal.WithLabelValues(operation, status).Inc()
	metrics.FragmentationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFragmentSets counts the produced sets by number of cuts.
func RecordFragmentSets(metrics *AppMetrics, cutsHistogram map[int]int) {
	total := 0
	for cuts, n := range cutsHistogram {
		metrics.FragmentSetsTotal.WithLabelValues(strconv.Itoa(cuts)).Add(float64(n))
		total += n
	}
	metrics.FragmentSetsPerMolecule.WithLabelValues().Observe(float64(total))
}

// RecordEngineStats exports the counters of one finished factory.
func RecordEngineStats(metrics *AppMetrics, s fragmentation.Stats) {
	for _, c := range []struct {
		name  string
		value int64
	}{
		{"leaves_generated", s.LeavesGenerated},
		{"leaf_cache_hits", s.LeafCacheHits},
		{"leaf_cache_misses", s.LeafCacheMisses},
		{"leaf_cache_evictions", s.LeafCacheEvictions},
		{"partitions_computed", s.PartitionsComputed},
		{"partition_cache_hits", s.PartitionCacheHits},
		{"combinations_tested", s.CombinationsTested},
		{"triplets_pruned", s.TripletsPruned},
		{"invalid_combinations", s.InvalidCombinations},
		{"filtered_out", s.FilteredOut},
		{"fragment_sets_built", s.FragmentSetsBuilt},
		{"stereo_failures", s.StereoFailures},
	} {
		if c.value > 0 {
			metrics.EngineWorkTotal.WithLabelValues(c.name).Add(float64(c.value))
		}
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordMessage(metrics *AppMetrics, topic, status string, duration time.Duration) {
	metrics.MessagesTotal.WithLabelValues(topic, status).Inc()
	metrics.MessageProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func RecordError(metrics *AppMetrics, component, errorCode string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorCode).Inc()
}

//Personal.AI order the ending
