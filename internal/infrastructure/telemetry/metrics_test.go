package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerMetrics(t *testing.T) {
	m := NewLedgerMetrics()

	m.RecordsCommitted("RECEIVABLE", 120)
	m.RecordsCommitted("RECEIVABLE", 0)
	m.CommitFailed("PAYABLE")
	m.Settlement(OutcomeCreated)
	m.Settlement(OutcomeCreated)
	m.InstallmentLiquidated()
	m.ObserveReport(true, 5*time.Millisecond)

	assert.Equal(t, 120.0, testutil.ToFloat64(m.recordsCommitted.WithLabelValues("RECEIVABLE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commitFailures.WithLabelValues("PAYABLE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.settlements.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.installmentsLiquidated))
	assert.Equal(t, 1, testutil.CollectAndCount(m.reportDuration))
}

func TestLedgerMetrics_NilIsNoop(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.RecordsCommitted("RECEIVABLE", 1)
		m.CommitFailed("RECEIVABLE")
		m.Settlement(OutcomeCanceled)
		m.InstallmentLiquidated()
		m.ObserveReport(false, time.Second)
	})
}

func TestLedgerMetrics_GinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewLedgerMetrics()

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/v1/settlements/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/settlements/abc", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/settlements/:id", "404")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ledger_http_requests_total")
}
