package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vkoritsas/go-paygate-bot/internal/config"
	"github.com/vkoritsas/go-paygate-bot/internal/domain"
	"github.com/vkoritsas/go-paygate-bot/internal/state"
	"github.com/vkoritsas/go-paygate-bot/internal/telegram"
)

// capturedEvents are the gateway event names treated as a completed payment.
var capturedEvents = map[string]bool{
	"payment.captured":   true,
	"payment.authorized": true,
	"payment.link.paid":  true,
	"payment.captured.*": true,
	"payment.paid":       true,
}

// CapturedEvent reports whether a gateway event name represents a completed
// payment that should be recorded and acted on.
func CapturedEvent(event string) bool { return capturedEvents[event] }

// PaymentService owns the lifecycle of a payment request: proof submission,
// admin approval or decline, invite delivery, and the trusted gateway path
// that collapses those steps when the signed notes identify the payer.
//
// The service's mutex serializes every multi-step flow across the two
// concurrent entry points (webhook handler and bot update loop), so
// approving a payment cannot interleave with a concurrent decline of the
// same id, and the memoization inside invite issuance stays race-free.
type PaymentService struct {
	mu sync.Mutex

	State     *state.Manager
	Messenger telegram.Messenger
	Invites   *InviteService
	Cfg       config.Config

	// Now is a test seam; nil means time.Now in IST.
	Now func() time.Time
}

// NewPaymentService wires a PaymentService and its invite issuer.
func NewPaymentService(st *state.Manager, m telegram.Messenger, cfg config.Config) *PaymentService {
	return &PaymentService{
		State:     st,
		Messenger: m,
		Invites:   &InviteService{State: st, Messenger: m, Cfg: cfg},
		Cfg:       cfg,
	}
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().In(IST)
}

// RememberUser records a user id in the known-user set used for broadcast
// fan-out. Not security-relevant.
func (s *PaymentService) RememberUser(userID int64) {
	_ = s.State.Update(func(snap *domain.Snapshot) error {
		snap.KnownUsers[userID] = true
		return nil
	})
}

// SubmitProof creates a PendingPayment for a user who has sent a photo or
// document as payment proof. Amount and currency are snapshotted from the
// effective price table at submission time, so later price changes do not
// retroactively alter what this claim owes.
//
// The caller (bot layer) is responsible for forwarding the proof to the
// admin; text-only submissions must be rejected there without calling this.
func (s *PaymentService) SubmitProof(ctx context.Context, userID int64, username string, plan domain.Plan, method domain.Method) (*domain.PendingPayment, error) {
	if !plan.Valid() {
		return nil, ErrInvalidPlan
	}
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending := &domain.PendingPayment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		Plan:      plan,
		Method:    method,
		CreatedAt: s.now(),
	}
	_ = s.State.Update(func(snap *domain.Snapshot) error {
		pending.Amount, pending.Currency = PriceFor(snap.Config, plan, method)
		snap.PendingPayments[pending.ID] = pending
		return nil
	})

	log.Info().Str("payment_id", pending.ID).Int64("user_id", userID).
		Str("plan", string(plan)).Str("method", string(method)).
		Msg("payment proof submitted")

	out := *pending
	return &out, nil
}

// Approve transitions a pending payment to approved: it appends a
// PurchaseRecord to the ledger, issues invite links in moderated mode
// (join requests required), and records the created links on the pending
// payment so a second admin action can deliver them.
//
// Only the configured admin identity may approve; anyone else gets
// ErrNotAdmin with no state change. An unknown or already-processed id
// yields ErrPaymentNotFound and is safe to retry.
func (s *PaymentService) Approve(ctx context.Context, actorID int64, paymentID string) (*domain.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Cfg.IsAdmin(actorID) {
		log.Warn().Int64("actor_id", actorID).Str("payment_id", paymentID).
			Msg("unauthorized approve attempt")
		return nil, ErrNotAdmin
	}

	pending, err := s.lookup(paymentID)
	if err != nil {
		return nil, err
	}

	_ = s.State.Update(func(snap *domain.Snapshot) error {
		snap.PurchaseLog = append(snap.PurchaseLog, domain.PurchaseRecord{
			Time:        s.now(),
			UserID:      pending.UserID,
			Username:    pending.Username,
			Plan:        pending.Plan,
			Method:      pending.Method,
			Amount:      pending.Amount,
			Currency:    pending.Currency,
			SourceEvent: domain.SourceManualApproval,
		})
		return nil
	})
	purchasesRecorded.WithLabelValues(domain.SourceManualApproval).Inc()

	links := s.Invites.Issue(ctx, pending.UserID, pending.Plan, true)

	_ = s.State.Update(func(snap *domain.Snapshot) error {
		if p, ok := snap.PendingPayments[paymentID]; ok {
			p.InviteCreated = true
			p.InviteLinks = links
		}
		return nil
	})

	log.Info().Str("payment_id", paymentID).Int64("user_id", pending.UserID).
		Int("links", len(links)).Msg("payment approved")

	out := *pending
	out.InviteCreated = true
	out.InviteLinks = links
	return &out, nil
}

// SendInvites delivers the previously created link(s) to the user and
// removes the pending payment from the active set. If no links exist at
// send time (issuance failed earlier), it returns ErrNoInviteLinks so the
// admin is told to retry creation rather than silently no-opping.
func (s *PaymentService) SendInvites(ctx context.Context, actorID int64, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Cfg.IsAdmin(actorID) {
		log.Warn().Int64("actor_id", actorID).Str("payment_id", paymentID).
			Msg("unauthorized send attempt")
		return ErrNotAdmin
	}

	pending, err := s.lookup(paymentID)
	if err != nil {
		return err
	}

	links := s.Invites.LinksFor(pending.UserID, pending.Plan)
	if len(links) == 0 {
		return ErrNoInviteLinks
	}

	if err := s.Messenger.SendMessage(ctx, pending.UserID, accessText(links)); err != nil {
		log.Error().Err(err).Int64("user_id", pending.UserID).
			Msg("invite delivery failed")
		return fmt.Errorf("send invites: %w", err)
	}

	_ = s.State.Update(func(snap *domain.Snapshot) error {
		if p, ok := snap.PendingPayments[paymentID]; ok {
			p.InviteSent = true
		}
		delete(snap.PendingPayments, paymentID)
		return nil
	})

	log.Info().Str("payment_id", paymentID).Int64("user_id", pending.UserID).
		Msg("invites sent, payment closed")
	return nil
}

// Decline rejects a pending payment: the user is notified with a support
// contact and the claim is removed from the active set. Notification
// failures are logged but do not keep the claim alive.
func (s *PaymentService) Decline(ctx context.Context, actorID int64, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Cfg.IsAdmin(actorID) {
		log.Warn().Int64("actor_id", actorID).Str("payment_id", paymentID).
			Msg("unauthorized decline attempt")
		return ErrNotAdmin
	}

	pending, err := s.lookup(paymentID)
	if err != nil {
		return err
	}

	notice := fmt.Sprintf(
		"❌ Your payment could not be verified.\nIf this is a mistake, please send a clearer screenshot or contact support: %s",
		s.Cfg.Telegram.HelpContact,
	)
	if err := s.Messenger.SendMessage(ctx, pending.UserID, notice); err != nil {
		log.Error().Err(err).Int64("user_id", pending.UserID).
			Msg("decline notice delivery failed")
	}

	_ = s.State.Update(func(snap *domain.Snapshot) error {
		delete(snap.PendingPayments, paymentID)
		return nil
	})
	paymentsDeclined.Inc()

	log.Info().Str("payment_id", paymentID).Int64("user_id", pending.UserID).
		Msg("payment declined")
	return nil
}

// ProcessGatewayEvent handles an authenticated, parsed gateway event. For a
// captured/paid event it appends a PurchaseRecord (identity-less records are
// still kept for audit) and, when the signed notes identify the payer and
// plan, issues invites and delivers them directly: the trusted path creates
// no PendingPayment.
//
// It returns true when the event was captured and recorded, false when the
// event type is not actionable. Identical deliveries are re-processed as new
// purchases: at-least-once, by design.
func (s *PaymentService) ProcessGatewayEvent(ctx context.Context, event string, notes domain.GatewayNotes) bool {
	if !CapturedEvent(event) {
		log.Info().Str("event", event).Msg("ignoring gateway event")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := domain.PurchaseRecord{
		Time:        s.now(),
		SourceEvent: event,
		Notes:       notes.Raw,
	}
	if notes.TelegramUserID != 0 {
		rec.UserID = notes.TelegramUserID
		if notes.Plan.Valid() {
			rec.Plan = notes.Plan
		}
	}
	// The purchase is recorded durably before any delivery is attempted;
	// delivery failure must not lose the purchase.
	_ = s.State.Update(func(snap *domain.Snapshot) error {
		snap.PurchaseLog = append(snap.PurchaseLog, rec)
		return nil
	})
	purchasesRecorded.WithLabelValues(event).Inc()

	if notes.HasIdentity() {
		links := s.Invites.Issue(ctx, notes.TelegramUserID, notes.Plan, false)
		if len(links) > 0 {
			if err := s.Messenger.SendMessage(ctx, notes.TelegramUserID, accessText(links)); err != nil {
				log.Error().Err(err).Int64("user_id", notes.TelegramUserID).
					Msg("gateway invite delivery failed")
			}
		}
	} else {
		log.Warn().Str("event", event).Msg("captured event without payer identity, recorded for audit only")
	}
	return true
}

// lookup fetches a copy of a pending payment or ErrPaymentNotFound.
func (s *PaymentService) lookup(paymentID string) (*domain.PendingPayment, error) {
	var out *domain.PendingPayment
	s.State.View(func(snap *domain.Snapshot) {
		if p, ok := snap.PendingPayments[paymentID]; ok {
			cp := *p
			out = &cp
		}
	})
	if out == nil {
		return nil, ErrPaymentNotFound
	}
	return out, nil
}

// accessText renders the access-granted message with one line per link, vip
// before dark.
func accessText(links map[domain.ChannelTag]string) string {
	tags := make([]string, 0, len(links))
	for tag := range links {
		tags = append(tags, string(tag))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(tags))) // "vip" before "dark"

	lines := make([]string, 0, len(tags))
	for _, tag := range tags {
		switch domain.ChannelTag(tag) {
		case domain.TagVIP:
			lines = append(lines, "🔑 VIP Channel:\n"+links[domain.TagVIP])
		case domain.TagDark:
			lines = append(lines, "🕶 Dark Channel:\n"+links[domain.TagDark])
		}
	}
	return "✅ Payment confirmed — here are your access links:\n\n" + strings.Join(lines, "\n\n")
}
