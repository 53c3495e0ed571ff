package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMetrics_Counters(t *testing.T) {
	m := New()

	m.GateOutcome("refreshed")
	m.GateOutcome("refreshed")
	m.Rotation(RotationSuperseded)
	m.Tampered()
	m.Login(LoginRejected)
	m.SecurityEvent("session.revoked")
	m.SecurityEventDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateOutcomes.WithLabelValues("refreshed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rotations.WithLabelValues(RotationSuperseded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tamperEvents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(LoginRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("session.revoked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped))
}

func TestAuthMetrics_NilIsNoop(t *testing.T) {
	var m *AuthMetrics

	assert.NotPanics(t, func() {
		m.GateOutcome("valid")
		m.Rotation(RotationRotated)
		m.Tampered()
		m.Login(LoginSucceeded)
		m.SecurityEvent("login.failed")
		m.SecurityEventDropped()
		m.ObserveRequest(http.MethodGet, "/health", "200", 0.01)
	})
}

func TestAuthMetrics_Handler(t *testing.T) {
	m := New()
	m.Tampered()
	m.ObserveRequest(http.MethodGet, "/api/sessions", "200", 0.02)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "erp_auth_tamper_events_total 1")
	assert.Contains(t, string(body), `erp_http_requests_total{method="GET",route="/api/sessions",status="200"} 1`)
}
