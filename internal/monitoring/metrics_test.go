package monitoring_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/monitoring"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := monitoring.NewMetrics()

	m.ObserveRequest(http.MethodGet, "/api/v1/clients", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/v1/clients", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/v1/clients", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestMetrics_Jobs(t *testing.T) {
	m := monitoring.NewMetrics()

	m.ObserveJob("generate", nil, time.Second)
	m.ObserveJob("generate", errors.New("boom"), time.Second)
	m.SetPending(7)
	m.AddCreated(3)
	m.AddCreated(0)
	m.AddSent(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("generate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("generate", "failure")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.PendingNotifications))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NotificationsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RemindersSent))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *monitoring.Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, 0)
		m.ObserveJob("x", nil, 0)
		m.SetPending(1)
		m.AddSent(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := monitoring.NewMetrics()
	m.SetPending(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "crm_notifications_pending 4")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestCaptureError_WithoutClient(t *testing.T) {
	assert.NotPanics(t, func() {
		monitoring.CaptureError(errors.New("nothing configured"), map[string]string{"job": "test"})
		monitoring.CaptureError(nil, nil)
	})
}
