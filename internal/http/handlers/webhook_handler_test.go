package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vkoritsas/go-paygate-bot/internal/config"
	"github.com/vkoritsas/go-paygate-bot/internal/domain"
	"github.com/vkoritsas/go-paygate-bot/internal/services"
	"github.com/vkoritsas/go-paygate-bot/internal/signature"
	"github.com/vkoritsas/go-paygate-bot/internal/state"
)

const testSecret = "whsec_test"

type stubMessenger struct {
	mu       sync.Mutex
	links    int
	messages []string
}

func (s *stubMessenger) CreateInviteLink(context.Context, int64, int, bool, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links++
	return fmt.Sprintf("https://t.me/+l%d", s.links), nil
}

func (s *stubMessenger) SendMessage(_ context.Context, _ int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
	return nil
}

func (s *stubMessenger) SendPhoto(context.Context, int64, string, string) error { return nil }
func (s *stubMessenger) ForwardMessage(context.Context, int64, int64, int) error { return nil }
func (s *stubMessenger) ApproveJoinRequest(context.Context, int64, int64) error { return nil }
func (s *stubMessenger) DeclineJoinRequest(context.Context, int64, int64) error { return nil }

func newWebhookRouter(t *testing.T) (*gin.Engine, *state.Manager, *stubMessenger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var cfg config.Config
	cfg.Telegram.VIPChannelID = -100
	cfg.Telegram.DarkChannelID = -200

	mgr := state.Open(filepath.Join(t.TempDir(), "snapshot.json"))
	msgr := &stubMessenger{}
	h := &WebhookHandler{
		Payments: services.NewPaymentService(mgr, msgr, cfg),
		Secret:   testSecret,
	}

	r := gin.New()
	r.POST("/payment_webhook", h.Handle)
	return r, mgr, msgr
}

func post(r *gin.Engine, body, sig string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payment_webhook", bytes.NewBufferString(body))
	if sig != "" {
		req.Header.Set("X-Signature", sig)
	}
	r.ServeHTTP(w, req)
	return w
}

func ledgerLen(mgr *state.Manager) int {
	var n int
	mgr.View(func(snap *domain.Snapshot) { n = len(snap.PurchaseLog) })
	return n
}

func TestWebhook_MissingSignature(t *testing.T) {
	r, mgr, _ := newWebhookRouter(t)

	w := post(r, `{"event":"payment.captured"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if ledgerLen(mgr) != 0 {
		t.Fatal("unauthenticated delivery reached the ledger")
	}
}

func TestWebhook_InvalidSignature(t *testing.T) {
	r, mgr, _ := newWebhookRouter(t)
	body := `{"event":"payment.captured"}`

	w := post(r, body, signature.Sign([]byte(body), "wrong-secret"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	// A signature over different bytes must also fail.
	w = post(r, body, signature.Sign([]byte(body+" "), testSecret))
	if w.Code != http.StatusForbidden {
		t.Fatalf("tampered body: status = %d, want 403", w.Code)
	}
	if ledgerLen(mgr) != 0 {
		t.Fatal("rejected delivery reached the ledger")
	}
}

func TestWebhook_CapturedWithIdentity(t *testing.T) {
	r, mgr, msgr := newWebhookRouter(t)
	body := `{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {"notes": {"telegram_user_id": "42", "plan": "both"}}}}
	}`

	w := post(r, body, signature.Sign([]byte(body), testSecret))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("response = %d %q", w.Code, w.Body.String())
	}
	if ledgerLen(mgr) != 1 {
		t.Fatalf("ledger = %d records", ledgerLen(mgr))
	}
	if msgr.links != 2 {
		t.Fatalf("created %d links, want 2", msgr.links)
	}
	if len(msgr.messages) != 1 || !strings.Contains(msgr.messages[0], "https://t.me/") {
		t.Fatalf("delivery messages = %v", msgr.messages)
	}
}

func TestWebhook_NumericNoteValues(t *testing.T) {
	r, mgr, msgr := newWebhookRouter(t)
	// telegram_id as a bare number, under the payment_link entity.
	body := `{
		"event": "payment.link.paid",
		"payload": {"payment_link": {"entity": {"notes": {"telegram_id": 42, "plan": "vip"}}}}
	}`

	w := post(r, body, signature.Sign([]byte(body), testSecret))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("response = %d %q", w.Code, w.Body.String())
	}
	if ledgerLen(mgr) != 1 || msgr.links != 1 {
		t.Fatalf("ledger=%d links=%d", ledgerLen(mgr), msgr.links)
	}
}

func TestWebhook_IgnoredEvent(t *testing.T) {
	r, mgr, _ := newWebhookRouter(t)
	body := `{"event":"payment.failed"}`

	w := post(r, body, signature.Sign([]byte(body), testSecret))
	if w.Code != http.StatusOK || w.Body.String() != "ignored" {
		t.Fatalf("response = %d %q", w.Code, w.Body.String())
	}
	if ledgerLen(mgr) != 0 {
		t.Fatal("ignored event reached the ledger")
	}
}

func TestWebhook_CapturedWithoutIdentityStillRecorded(t *testing.T) {
	r, mgr, msgr := newWebhookRouter(t)
	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"notes":{"order":"x1"}}}}}`

	w := post(r, body, signature.Sign([]byte(body), testSecret))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("response = %d %q", w.Code, w.Body.String())
	}
	if ledgerLen(mgr) != 1 {
		t.Fatalf("ledger = %d records, want 1", ledgerLen(mgr))
	}
	if msgr.links != 0 || len(msgr.messages) != 0 {
		t.Fatal("delivery attempted without identity")
	}
}

func TestWebhook_MalformedBodyWithValidSignature(t *testing.T) {
	r, mgr, _ := newWebhookRouter(t)
	body := `not json at all`

	w := post(r, body, signature.Sign([]byte(body), testSecret))
	if w.Code != http.StatusOK || w.Body.String() != "ignored" {
		t.Fatalf("response = %d %q", w.Code, w.Body.String())
	}
	if ledgerLen(mgr) != 0 {
		t.Fatal("malformed delivery reached the ledger")
	}
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", Healthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}
