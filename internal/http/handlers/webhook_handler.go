// Package handlers provides HTTP handler implementations for the webhook
// listener. This file implements the payment gateway endpoint.
//
// Trust model: the HMAC signature over the raw body is the only
// authentication the gateway path has. Verification runs on the exact bytes
// received, before any parsing, and fails closed when the shared secret is
// not configured. Only after the signature checks out is the payload parsed
// and acted on.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vkoritsas/go-paygate-bot/internal/domain"
	"github.com/vkoritsas/go-paygate-bot/internal/http/middleware"
	"github.com/vkoritsas/go-paygate-bot/internal/repo"
	"github.com/vkoritsas/go-paygate-bot/internal/services"
	"github.com/vkoritsas/go-paygate-bot/internal/signature"
)

// signatureHeader carries base64(hmac_sha256(body, secret)) computed by the
// gateway.
const signatureHeader = "X-Signature"

// gatewayEnvelope is the subset of the gateway payload this service reads.
// Note values arrive as strings or numbers depending on how the payment link
// was created, so they are kept raw and normalized afterwards.
type gatewayEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				Notes map[string]json.RawMessage `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
		PaymentLink struct {
			Entity struct {
				Notes map[string]json.RawMessage `json:"notes"`
			} `json:"entity"`
		} `json:"payment_link"`
	} `json:"payload"`
}

// WebhookHandler terminates the gateway's signed webhook deliveries.
type WebhookHandler struct {
	Payments *services.PaymentService
	Secret   string

	// AuditDB receives one row per authenticated delivery; nil disables the
	// audit trail. Writes are best effort.
	AuditDB *gorm.DB
}

// Handle implements POST /payment_webhook.
//
// Responses: 400 when the signature header is missing, 403 when it does not
// verify, 200 "ok" for a captured/paid event, 200 "ignored" otherwise. A
// payload that parses badly after authentication is logged and treated as
// not actionable; the gateway must not be driven into a retry loop by a
// permanent parse failure.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}

	sig := c.GetHeader(signatureHeader)
	if sig == "" {
		fail(c, http.StatusBadRequest, ErrCodeMissingSignature, "missing signature")
		return
	}
	if !signature.Verify(body, sig, h.Secret) {
		middleware.LoggerFrom(c).Warn().Msg("webhook signature rejected")
		fail(c, http.StatusForbidden, ErrCodeInvalidSignature, "invalid signature")
		return
	}

	var env gatewayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("webhook payload unparseable")
	}
	notes := extractNotes(env)

	h.audit(c, body, env.Event, notes)

	if h.Payments.ProcessGatewayEvent(c.Request.Context(), env.Event, notes) {
		c.String(http.StatusOK, "ok")
		return
	}
	c.String(http.StatusOK, "ignored")
}

// audit records the authenticated delivery. Failures are logged and ignored;
// processing never depends on the audit store.
func (h *WebhookHandler) audit(c *gin.Context, body []byte, event string, notes domain.GatewayNotes) {
	if h.AuditDB == nil {
		return
	}
	ev := &domain.WebhookEvent{
		Event:          event,
		SignatureValid: true,
		PayloadJSON:    string(body),
		UserID:         notes.TelegramUserID,
		Plan:           string(notes.Plan),
		Captured:       services.CapturedEvent(event),
	}
	if err := repo.RecordWebhookEvent(c.Request.Context(), h.AuditDB, ev); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("webhook audit write failed")
	}
}

// extractNotes pulls the notes map from whichever entity the event carries
// (payment first, payment_link as fallback) and normalizes the identity
// fields. telegram_user_id is preferred, telegram_id accepted as an alias.
func extractNotes(env gatewayEnvelope) domain.GatewayNotes {
	raw := env.Payload.Payment.Entity.Notes
	if len(raw) == 0 {
		raw = env.Payload.PaymentLink.Entity.Notes
	}

	notes := domain.GatewayNotes{Raw: map[string]string{}}
	for k, v := range raw {
		notes.Raw[k] = noteString(v)
	}

	id := notes.Raw["telegram_user_id"]
	if id == "" {
		id = notes.Raw["telegram_id"]
	}
	if id != "" {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			notes.TelegramUserID = n
		}
	}
	notes.Plan = domain.Plan(strings.ToLower(notes.Raw["plan"]))
	return notes
}

// noteString normalizes a raw JSON note value: quoted strings lose their
// quotes, numbers keep their literal text, anything else is raw JSON.
func noteString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}

// Healthz implements GET /healthz.
func Healthz(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
