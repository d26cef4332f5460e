package metrics

import (
	"testing"
	"time"

	"github.com/RichardoC/aipro/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveResult(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveResult(models.TaskResult{Mode: models.ModeChat, Status: models.StatusSuccess})
	m.ObserveResult(models.TaskResult{Mode: models.ModeChat, Status: models.StatusFailure, ErrorKind: models.ErrorValidation})
	m.ObserveModelCall(models.ModeChat, 300*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("chat", "success", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("chat")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.modelLatency))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveResult(models.TaskResult{Mode: models.ModeContent})
	m.ObserveModelCall(models.ModeContent, time.Second)
}
