package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLedgerEntry(t *testing.T) {
	m := New()
	m.ObserveLedgerEntry("OUT", 3)
	m.ObserveLedgerEntry("OUT", 2)
	m.ObserveLedgerEntry("IN", 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerEntries.WithLabelValues("OUT")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ledgerQuantity.WithLabelValues("OUT")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.ledgerQuantity.WithLabelValues("IN")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLedgerEntry("IN", 1)
		m.ObserveTransition("ISSUE")
		m.ObserveHTTP("GET", "/x", 200, time.Millisecond)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveTransition("APPROVE")
	m.ObserveHTTP("PATCH", "/api/v1/spare-parts-requests/:id/approve", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `maintenance_parts_request_transitions_total{action="APPROVE"} 1`))
	assert.True(t, strings.Contains(text, "maintenance_http_requests_total"))
}
