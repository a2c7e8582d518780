package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "maintenance"

// Metrics process collectors. Every method is safe on a nil receiver so
// services can run without a registry in tests.
type Metrics struct {
	registry *prometheus.Registry

	ledgerEntries     *prometheus.CounterVec
	ledgerQuantity    *prometheus.CounterVec
	partsRequestMoves *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ledgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entries_total",
			Help:      "Inventory ledger entries applied, by transaction type.",
		}, []string{"type"}),
		ledgerQuantity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_quantity_total",
			Help:      "Units moved through the inventory ledger, by transaction type.",
		}, []string{"type"}),
		partsRequestMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parts_request_transitions_total",
			Help:      "Spare parts request workflow actions committed.",
		}, []string{"action"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ledgerEntries,
		m.ledgerQuantity,
		m.partsRequestMoves,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveLedgerEntry(transactionType string, quantity int) {
	if m == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(transactionType).Inc()
	m.ledgerQuantity.WithLabelValues(transactionType).Add(float64(quantity))
}

func (m *Metrics) ObserveTransition(action string) {
	if m == nil {
		return
	}
	m.partsRequestMoves.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
