package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	StockTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_stock_transactions_total",
			Help: "Ledger entries appended, by action",
		},
		[]string{"action"},
	)

	LowStockProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_low_stock_products",
			Help: "Products below the low-stock threshold at the last scan",
		},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HttpRequestsTotal, HttpRequestDuration, StockTransactionsTotal, LowStockProducts)
	})
}
