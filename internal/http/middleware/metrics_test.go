package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/payment_webhook", func(c *gin.Context) { c.Status(http.StatusForbidden) })

	before := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/healthz", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payment_webhook", nil))

	after := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/healthz", "200"))
	if after != before+1 {
		t.Fatalf("healthz counter = %v, want %v", after, before+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodPost, "/payment_webhook", "403")); got < 1 {
		t.Fatalf("webhook 403 counter = %v", got)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight gauge = %v after completion", got)
	}
}

func TestMetrics_UnmatchedRouteUsesRawPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/nope", "404")); got < 1 {
		t.Fatalf("404 counter = %v", got)
	}
}
