package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vkoritsas/go-paygate-bot/internal/config"
	"github.com/vkoritsas/go-paygate-bot/internal/services"
	"github.com/vkoritsas/go-paygate-bot/internal/state"
)

type nullMessenger struct{}

func (nullMessenger) CreateInviteLink(context.Context, int64, int, bool, string) (string, error) {
	return "https://t.me/+x", nil
}
func (nullMessenger) SendMessage(context.Context, int64, string) error         { return nil }
func (nullMessenger) SendPhoto(context.Context, int64, string, string) error   { return nil }
func (nullMessenger) ForwardMessage(context.Context, int64, int64, int) error  { return nil }
func (nullMessenger) ApproveJoinRequest(context.Context, int64, int64) error   { return nil }
func (nullMessenger) DeclineJoinRequest(context.Context, int64, int64) error   { return nil }

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		WebhookSecret: "s",
		RateRPS:       1000,
		RateBurst:     1000,
	}
	mgr := state.Open(filepath.Join(t.TempDir(), "snapshot.json"))
	payments := services.NewPaymentService(mgr, nullMessenger{}, cfg)

	r := gin.New()
	RegisterRoutes(r, payments, nil, cfg)
	return r
}

func TestRouter_Healthz(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("healthz = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}

func TestRouter_WebhookRequiresSignature(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payment_webhook", strings.NewReader("{}")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRouter_Fallbacks(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "not_found") {
		t.Fatalf("no route = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payment_webhook", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("no method = %d", w.Code)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	r := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "payguard_http_requests_total") {
		t.Fatal("metrics output missing collector")
	}
}
