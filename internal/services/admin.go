package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vkoritsas/go-paygate-bot/internal/config"
	"github.com/vkoritsas/go-paygate-bot/internal/domain"
	"github.com/vkoritsas/go-paygate-bot/internal/repo"
	"github.com/vkoritsas/go-paygate-bot/internal/state"
	"github.com/vkoritsas/go-paygate-bot/internal/telegram"
)

// AdminService implements the runtime configuration and reporting commands.
// Every method authenticates the actor against the configured admin id and
// returns ErrNotAdmin otherwise; the overlay mutations win over the static
// environment configuration and survive restarts via the snapshot.
type AdminService struct {
	State     *state.Manager
	Messenger telegram.Messenger
	Cfg       config.Config

	// AuditDB backs the webhook audit report; nil means the process runs
	// without the audit database and the report is unavailable.
	AuditDB *gorm.DB

	// Now is a test seam; nil means time.Now in IST.
	Now func() time.Time
}

func (a *AdminService) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().In(IST)
}

func (a *AdminService) authorize(actorID int64, action string) error {
	if !a.Cfg.IsAdmin(actorID) {
		log.Warn().Int64("actor_id", actorID).Str("action", action).
			Msg("unauthorized admin command")
		return ErrNotAdmin
	}
	return nil
}

// SetChannel overrides the channel id for a tag. The raw argument must parse
// as a signed integer (supergroup ids are negative).
func (a *AdminService) SetChannel(actorID int64, tag domain.ChannelTag, raw string) error {
	if err := a.authorize(actorID, "set_channel"); err != nil {
		return err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return ErrInvalidChannelID
	}
	return a.State.Update(func(snap *domain.Snapshot) error {
		if snap.Config.Channels == nil {
			snap.Config.Channels = make(map[domain.ChannelTag]int64)
		}
		snap.Config.Channels[tag] = id
		return nil
	})
}

// SetPrice overrides a single plan/method price. The amount must be a
// positive number; it is interpreted in the method's currency.
func (a *AdminService) SetPrice(actorID int64, plan domain.Plan, method domain.Method, raw string) error {
	if err := a.authorize(actorID, "set_price"); err != nil {
		return err
	}
	if !plan.Valid() {
		return ErrInvalidPlan
	}
	if !method.Valid() {
		return ErrInvalidMethod
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || amount <= 0 {
		return ErrInvalidAmount
	}
	return a.State.Update(func(snap *domain.Snapshot) error {
		if snap.Config.Prices == nil {
			snap.Config.Prices = make(map[domain.Plan]domain.PlanPrices)
		}
		p := pricesFor(snap.Config, plan)
		switch method {
		case domain.MethodUPI:
			p.UPIINR = amount
		case domain.MethodCrypto:
			p.CryptoUSD = amount
		case domain.MethodRemitly:
			p.RemitINR = amount
		}
		snap.Config.Prices[plan] = p
		return nil
	})
}

// SetUPI overrides the UPI id shown in payment instructions.
func (a *AdminService) SetUPI(actorID int64, upiID string) error {
	if err := a.authorize(actorID, "set_upi"); err != nil {
		return err
	}
	return a.State.Update(func(snap *domain.Snapshot) error {
		snap.Config.Payment.UPIID = strings.TrimSpace(upiID)
		return nil
	})
}

// SetCrypto overrides the crypto deposit address, optionally with a network
// label as a second whitespace-separated token.
func (a *AdminService) SetCrypto(actorID int64, args string) error {
	if err := a.authorize(actorID, "set_crypto"); err != nil {
		return err
	}
	fields := strings.Fields(args)
	return a.State.Update(func(snap *domain.Snapshot) error {
		if len(fields) > 0 {
			snap.Config.Payment.CryptoAddress = fields[0]
		}
		if len(fields) > 1 {
			snap.Config.Payment.CryptoNetwork = fields[1]
		}
		return nil
	})
}

// SetRemitly overrides the Remitly recipient details shown in instructions.
func (a *AdminService) SetRemitly(actorID int64, info string) error {
	if err := a.authorize(actorID, "set_remitly"); err != nil {
		return err
	}
	return a.State.Update(func(snap *domain.Snapshot) error {
		snap.Config.Payment.RemitlyInfo = strings.TrimSpace(info)
		return nil
	})
}

// Broadcast sends text to every known user, best effort. It returns how many
// sends succeeded and how many failed; individual failures (blocked bot,
// deleted account) are logged and skipped.
func (a *AdminService) Broadcast(ctx context.Context, actorID int64, text string) (sent, failed int, err error) {
	if err := a.authorize(actorID, "broadcast"); err != nil {
		return 0, 0, err
	}
	var users []int64
	a.State.View(func(snap *domain.Snapshot) {
		for id := range snap.KnownUsers {
			users = append(users, id)
		}
	})
	for _, id := range users {
		if err := a.Messenger.SendMessage(ctx, id, text); err != nil {
			log.Warn().Err(err).Int64("user_id", id).Msg("broadcast send failed")
			failed++
			continue
		}
		sent++
	}
	log.Info().Int("sent", sent).Int("failed", failed).Msg("broadcast finished")
	return sent, failed, nil
}

// IncomeReport summarizes purchases inside a reporting window. Totals are
// kept per currency; INR and USD are never summed together.
type IncomeReport struct {
	Label    string
	Orders   int
	TotalINR float64
	TotalUSD float64
}

// Income aggregates the purchase ledger over a named window: "today",
// "yesterday", or "7d". Window boundaries are midnights in IST, matching the
// timezone purchases are recorded in.
func (a *AdminService) Income(actorID int64, window string) (IncomeReport, error) {
	if err := a.authorize(actorID, "income"); err != nil {
		return IncomeReport{}, err
	}

	now := a.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, IST)

	var from, to time.Time
	report := IncomeReport{}
	switch window {
	case "yesterday":
		from, to = midnight.AddDate(0, 0, -1), midnight
		report.Label = "Yesterday"
	case "7d":
		from, to = midnight.AddDate(0, 0, -6), now
		report.Label = "Last 7 days"
	default:
		from, to = midnight, now
		report.Label = "Today"
	}

	a.State.View(func(snap *domain.Snapshot) {
		for _, rec := range snap.PurchaseLog {
			t := rec.Time.In(IST)
			if t.Before(from) || !t.Before(to) {
				continue
			}
			report.Orders++
			switch rec.Currency {
			case "USD":
				report.TotalUSD += rec.Amount
			default:
				report.TotalINR += rec.Amount
			}
		}
	})
	return report, nil
}

// Pending returns a copy of the currently pending payments, oldest first.
// Used by the admin overview command.
func (a *AdminService) Pending(actorID int64) ([]domain.PendingPayment, error) {
	if err := a.authorize(actorID, "pending"); err != nil {
		return nil, err
	}
	var out []domain.PendingPayment
	a.State.View(func(snap *domain.Snapshot) {
		for _, p := range snap.PendingPayments {
			out = append(out, *p)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// WebhookStats summarizes the webhook audit trail for the admin report.
type WebhookStats struct {
	Total    int64
	Captured int64
	Recent   []domain.WebhookEvent
}

// WebhookAudit returns delivery totals and the most recent authenticated
// webhook deliveries, newest first. The audit database is read-only here;
// processing decisions never consult it.
func (a *AdminService) WebhookAudit(ctx context.Context, actorID int64, limit int) (WebhookStats, error) {
	if err := a.authorize(actorID, "webhook_audit"); err != nil {
		return WebhookStats{}, err
	}
	if a.AuditDB == nil {
		return WebhookStats{}, ErrAuditUnavailable
	}

	total, err := repo.CountWebhookEvents(ctx, a.AuditDB, false)
	if err != nil {
		return WebhookStats{}, fmt.Errorf("count webhook events: %w", err)
	}
	captured, err := repo.CountWebhookEvents(ctx, a.AuditDB, true)
	if err != nil {
		return WebhookStats{}, fmt.Errorf("count captured webhook events: %w", err)
	}
	recent, err := repo.ListRecentWebhookEvents(ctx, a.AuditDB, limit)
	if err != nil {
		return WebhookStats{}, fmt.Errorf("list webhook events: %w", err)
	}
	return WebhookStats{Total: total, Captured: captured, Recent: recent}, nil
}
