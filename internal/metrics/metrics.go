// Package metrics records generation timings and world sizes for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so several sessions (and tests) can
// coexist in one process. A nil *Recorder discards everything.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	regenerations prometheus.Counter
	cells         prometheus.Gauge
	kingdoms      prometheus.Gauge
	requests      *prometheus.HistogramVec
}

// NewRecorder creates and registers the realmgen collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "realmgen",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each generation stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"stage"}),
		regenerations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realmgen",
			Name:      "regenerations_total",
			Help:      "Published world states.",
		}),
		cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "realmgen",
			Name:      "world_cells",
			Help:      "Cell count of the published world.",
		}),
		kingdoms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "realmgen",
			Name:      "kingdoms",
			Help:      "Kingdom count of the published world.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "realmgen",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of API requests.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"path", "status"}),
	}
	r.registry.MustRegister(r.stageDuration, r.regenerations, r.cells, r.kingdoms, r.requests)
	return r
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Published counts a swapped-in world and updates the size gauges.
func (r *Recorder) Published(cells, kingdoms int) {
	if r == nil {
		return
	}
	r.regenerations.Inc()
	r.cells.Set(float64(cells))
	r.kingdoms.Set(float64(kingdoms))
}

// ObserveRequest records one API request.
func (r *Recorder) ObserveRequest(path string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(path, statusClass(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
