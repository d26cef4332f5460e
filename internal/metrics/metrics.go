package metrics

import (
	"time"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aipro"

// Metrics is safe to use as a nil pointer, in which case nothing is recorded.
type Metrics struct {
	tasks        *prometheus.CounterVec
	modelLatency *prometheus.HistogramVec
	rejections   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_results_total",
			Help:      "Task results by mode, status and error kind.",
		}, []string{"mode", "status", "error_kind"}),
		modelLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Time spent waiting on the model service.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"mode"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_rejections_total",
			Help:      "Requests rejected by validation before any model call.",
		}, []string{"mode"}),
	}
}

func (m *Metrics) ObserveResult(r models.TaskResult) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(string(r.Mode), string(r.Status), string(r.ErrorKind)).Inc()
	if r.ErrorKind == models.ErrorValidation {
		m.rejections.WithLabelValues(string(r.Mode)).Inc()
	}
}

func (m *Metrics) ObserveModelCall(mode models.TaskMode, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.modelLatency.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}
