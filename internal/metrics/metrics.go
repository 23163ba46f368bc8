package metrics

import (
	"strconv"
	"sync"
	"time"
)

// MetricsCollector provides a centralized way to collect and retrieve metrics
type MetricsCollector struct {
	mutex               sync.RWMutex
	counters            map[string]int64
	gauges              map[string]float64
	requestLatencies    map[string][]time.Duration
	requestCounts       map[string]int64
	reportCounts        map[string]int64
	reportLatencies     map[string][]time.Duration
	importCounts        map[string]int64
	databaseQueryCounts map[string]int64
	databaseLatencies   map[string][]time.Duration
	errorCounts         map[string]int64
	startTime           time.Time
	maxHistogramSamples int
}

// Counter metrics
const (
	CounterHTTPRequests        = "http_requests_total"
	CounterHTTPRequestsSuccess = "http_requests_success_total"
	CounterHTTPRequestsError   = "http_requests_error_total"
	CounterReportsRun          = "reports_run_total"
	CounterReportCacheHits     = "report_cache_hits_total"
	CounterImportFilesLoaded   = "import_files_loaded_total"
	CounterImportFilesRejected = "import_files_rejected_total"
	CounterImportRowsLoaded    = "import_rows_loaded_total"
	CounterRecordsWritten      = "records_written_total"
	CounterEventsPublished     = "events_published_total"
	CounterEventsError         = "events_error_total"
	CounterDBQueriesTotal      = "db_queries_total"
	CounterDBQueriesError      = "db_queries_error_total"
	CounterErrorsTotal         = "errors_total"
)

// Database query types
const (
	DBQueryTypeSelect = "select"
	DBQueryTypeInsert = "insert"
	DBQueryTypeUpdate = "update"
	DBQueryTypeDelete = "delete"
	DBQueryTypeRaw    = "raw"
)

// Error types
const (
	ErrorTypeHTTP       = "http"
	ErrorTypeValidation = "validation"
	ErrorTypeDatabase   = "database"
	ErrorTypeImport     = "import"
	ErrorTypeEvents     = "events"
	ErrorTypeInternal   = "internal"
)

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:            make(map[string]int64),
		gauges:              make(map[string]float64),
		requestLatencies:    make(map[string][]time.Duration),
		requestCounts:       make(map[string]int64),
		reportCounts:        make(map[string]int64),
		reportLatencies:     make(map[string][]time.Duration),
		importCounts:        make(map[string]int64),
		databaseQueryCounts: make(map[string]int64),
		databaseLatencies:   make(map[string][]time.Duration),
		errorCounts:         make(map[string]int64),
		startTime:           time.Now(),
		maxHistogramSamples: 1000,
	}
}

// IncrementCounter increments a counter by the given value
func (m *MetricsCollector) IncrementCounter(name string, value int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.counters[name] += value
}

// SetGauge sets a gauge to the given value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.gauges[name] = value
}

// Counter returns the current value of a counter
func (m *MetricsCollector) Counter(name string) int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.counters[name]
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *MetricsCollector) RecordHTTPRequest(path string, statusCode int, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[CounterHTTPRequests]++
	m.requestCounts[path]++
	m.requestLatencies[path] = m.appendSample(m.requestLatencies[path], latency)

	if statusCode >= 200 && statusCode < 400 {
		m.counters[CounterHTTPRequestsSuccess]++
	} else {
		m.counters[CounterHTTPRequestsError]++
		m.errorCounts[ErrorTypeHTTP]++
	}
}

// RecordReport records a report execution
func (m *MetricsCollector) RecordReport(id int, cached bool, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := strconv.Itoa(id)
	m.counters[CounterReportsRun]++
	m.reportCounts[key]++
	if cached {
		m.counters[CounterReportCacheHits]++
	}
	m.reportLatencies[key] = m.appendSample(m.reportLatencies[key], latency)
}

// RecordImport records the outcome of loading one file into a table
func (m *MetricsCollector) RecordImport(table string, rows int, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !success {
		m.counters[CounterImportFilesRejected]++
		m.errorCounts[ErrorTypeImport]++
		return
	}
	m.counters[CounterImportFilesLoaded]++
	m.counters[CounterImportRowsLoaded] += int64(rows)
	m.importCounts[table]++
}

// RecordEvent records a published domain event
func (m *MetricsCollector) RecordEvent(success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if success {
		m.counters[CounterEventsPublished]++
		return
	}
	m.counters[CounterEventsError]++
	m.errorCounts[ErrorTypeEvents]++
}

// RecordDatabaseQuery records metrics for a database query
func (m *MetricsCollector) RecordDatabaseQuery(queryType string, success bool, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.databaseQueryCounts[queryType]++
	m.counters[CounterDBQueriesTotal]++

	if !success {
		m.counters[CounterDBQueriesError]++
		m.errorCounts[ErrorTypeDatabase]++
	}

	m.databaseLatencies[queryType] = m.appendSample(m.databaseLatencies[queryType], latency)
}

// RecordError records an error of the given type
func (m *MetricsCollector) RecordError(errorType string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.errorCounts[errorType]++
	m.counters[CounterErrorsTotal]++
}

// appendSample keeps at most maxHistogramSamples entries. Callers hold the lock.
func (m *MetricsCollector) appendSample(samples []time.Duration, latency time.Duration) []time.Duration {
	if samples == nil {
		samples = make([]time.Duration, 0, m.maxHistogramSamples)
	}
	if len(samples) >= m.maxHistogramSamples {
		samples = samples[1:]
	}
	return append(samples, latency)
}

func averageMillis(series map[string][]time.Duration) map[string]float64 {
	out := make(map[string]float64, len(series))
	for key, latencies := range series {
		if len(latencies) == 0 {
			continue
		}
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		out[key] = float64(sum.Milliseconds()) / float64(len(latencies))
	}
	return out
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// GetMetrics returns all collected metrics in a structured format
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	gauges := make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}

	return map[string]interface{}{
		"uptime_seconds":        time.Since(m.startTime).Seconds(),
		"counters":              copyCounts(m.counters),
		"gauges":                gauges,
		"request_counts":        copyCounts(m.requestCounts),
		"request_latencies_ms":  averageMillis(m.requestLatencies),
		"report_counts":         copyCounts(m.reportCounts),
		"report_latencies_ms":   averageMillis(m.reportLatencies),
		"import_counts":         copyCounts(m.importCounts),
		"database_query_counts": copyCounts(m.databaseQueryCounts),
		"database_latencies_ms": averageMillis(m.databaseLatencies),
		"error_counts":          copyCounts(m.errorCounts),
	}
}

// GetHealthStatus returns a simple health status based on metrics
func (m *MetricsCollector) GetHealthStatus() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	errorRate := 0.0
	totalRequests := m.counters[CounterHTTPRequests]
	if totalRequests > 0 {
		errorRate = float64(m.counters[CounterHTTPRequestsError]) / float64(totalRequests)
	}

	const errorRateThreshold = 0.05

	return map[string]interface{}{
		"status": map[string]interface{}{
			"healthy":        errorRate <= errorRateThreshold,
			"uptime_seconds": time.Since(m.startTime).Seconds(),
		},
		"metrics": map[string]interface{}{
			"total_requests":      totalRequests,
			"error_rate":          errorRate,
			"reports_run":         m.counters[CounterReportsRun],
			"import_files_loaded": m.counters[CounterImportFilesLoaded],
			"db_queries_error":    m.counters[CounterDBQueriesError],
		},
	}
}
