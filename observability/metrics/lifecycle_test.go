package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeanMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewBeanMetrics(reg)
	require.NoError(t, err)

	m.BeanCreated()
	m.BeanCreated()
	m.BeanFailed("name_conflict")
	m.ErrorDispatched("resolver", "default")
	m.ObserveCreateAll(5 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BeansCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BeanFailures.WithLabelValues("name_conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatched.WithLabelValues("resolver", "default")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CreateAllSeconds))
}

func TestBeanMetrics_ReuseRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewBeanMetrics(reg)
	require.NoError(t, err)
	second, err := NewBeanMetrics(reg)
	require.NoError(t, err)

	second.BeanCreated()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.BeansCreated))
}

func TestBeanMetrics_Nil(t *testing.T) {
	var m *BeanMetrics
	assert.NotPanics(t, func() {
		m.BeanCreated()
		m.BeanFailed("x")
		m.ErrorDispatched("x", "y")
		m.ObserveCreateAll(time.Second)
	})
}

func TestHandler(t *testing.T) {
	m, err := NewBeanMetrics(Registry())
	require.NoError(t, err)
	m.BeanCreated()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "cute_beans_created_total"))
}

func TestRegisterCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "plugin_jobs_total", Help: "jobs"})

	require.NoError(t, RegisterCollector(reg, c))
	require.NoError(t, RegisterCollector(reg, c))
	assert.NoError(t, RegisterCollector(reg, nil))

	c.Inc()
	n, err := testutil.GatherAndCount(reg, "plugin_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	clash := prometheus.NewCounter(prometheus.CounterOpts{Name: "plugin_jobs_total", Help: "other jobs"})
	assert.Error(t, RegisterCollector(reg, clash))
}
