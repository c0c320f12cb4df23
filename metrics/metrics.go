package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minpdf"

var (
	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total document operations by operation and result",
		},
		[]string{"op", "result"},
	)

	operationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of document operations by operation",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	pagesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_written_total",
			Help:      "Pages written to output documents by operation",
		},
		[]string{"op"},
	)

	bytesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes of output documents by operation",
		},
		[]string{"op"},
	)

	once sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(operations, operationLatency, pagesWritten, bytesWritten)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

// Observe records the outcome and duration of one operation.
func Observe(op string, err error, dur time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	operations.WithLabelValues(op, result).Inc()
	operationLatency.WithLabelValues(op).Observe(dur.Seconds())
}

// AddOutput records a written document.
func AddOutput(op string, pages, size int) {
	pagesWritten.WithLabelValues(op).Add(float64(pages))
	bytesWritten.WithLabelValues(op).Add(float64(size))
}
