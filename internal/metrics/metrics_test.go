package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordHTTPRequest("/api/v1/listings", 200, 10*time.Millisecond)
	m.RecordHTTPRequest("/api/v1/listings", 500, 30*time.Millisecond)

	require.Equal(t, int64(2), m.Counter(CounterHTTPRequests))
	require.Equal(t, int64(1), m.Counter(CounterHTTPRequestsSuccess))
	require.Equal(t, int64(1), m.Counter(CounterHTTPRequestsError))

	snapshot := m.GetMetrics()
	latencies := snapshot["request_latencies_ms"].(map[string]float64)
	require.InDelta(t, 20.0, latencies["/api/v1/listings"], 0.001)
}

func TestRecordImportAndReports(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordImport("providers", 12, true)
	m.RecordImport("claims", 0, false)
	m.RecordReport(6, false, time.Millisecond)
	m.RecordReport(6, true, time.Millisecond)

	require.Equal(t, int64(1), m.Counter(CounterImportFilesLoaded))
	require.Equal(t, int64(1), m.Counter(CounterImportFilesRejected))
	require.Equal(t, int64(12), m.Counter(CounterImportRowsLoaded))
	require.Equal(t, int64(2), m.Counter(CounterReportsRun))
	require.Equal(t, int64(1), m.Counter(CounterReportCacheHits))

	counts := m.GetMetrics()["report_counts"].(map[string]int64)
	require.Equal(t, int64(2), counts["6"])
}

func TestHealthStatusErrorRate(t *testing.T) {
	m := NewMetricsCollector()
	for i := 0; i < 9; i++ {
		m.RecordHTTPRequest("/health", 200, time.Millisecond)
	}
	m.RecordHTTPRequest("/health", 503, time.Millisecond)

	status := m.GetHealthStatus()["status"].(map[string]interface{})
	require.False(t, status["healthy"].(bool))
}

func TestSampleWindowIsBounded(t *testing.T) {
	m := NewMetricsCollector()
	m.maxHistogramSamples = 3
	for i := 0; i < 10; i++ {
		m.RecordDatabaseQuery(DBQueryTypeSelect, true, time.Duration(i)*time.Millisecond)
	}
	require.Len(t, m.databaseLatencies[DBQueryTypeSelect], 3)
	require.Equal(t, int64(10), m.Counter(CounterDBQueriesTotal))
}
