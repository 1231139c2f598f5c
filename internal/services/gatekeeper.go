package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/vkoritsas/go-paygate-bot/internal/config"
	"github.com/vkoritsas/go-paygate-bot/internal/domain"
	"github.com/vkoritsas/go-paygate-bot/internal/state"
	"github.com/vkoritsas/go-paygate-bot/internal/telegram"
)

// Decision is the outcome of a join-request evaluation.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// Gatekeeper evaluates channel join requests against the purchase ledger.
// Possession of an invite link is never sufficient on its own: the moderated
// links created by manual approval require a join request, and the request
// is only approved when the ledger actually contains a purchase granting
// that user access to that channel.
type Gatekeeper struct {
	State     *state.Manager
	Messenger telegram.Messenger
	Cfg       config.Config
}

// Decide reports whether userID has a recorded purchase covering the channel
// identified by chatID. A channel id that matches no configured channel
// denies: an unconfigured channel cannot be vouched for.
//
// The scan is linear over the ledger. The ledger is small (one entry per
// sale) and append-only, so no index is kept.
func (g *Gatekeeper) Decide(userID, chatID int64) Decision {
	var tag domain.ChannelTag
	var found bool
	g.State.View(func(snap *domain.Snapshot) {
		for _, t := range []domain.ChannelTag{domain.TagVIP, domain.TagDark} {
			if id := ChannelID(g.Cfg, snap.Config, t); id != 0 && id == chatID {
				tag, found = t, true
				break
			}
		}
		if !found {
			return
		}
		for _, rec := range snap.PurchaseLog {
			if rec.UserID == userID && rec.Plan.Valid() && rec.Plan.Includes(tag) {
				found = true
				return
			}
		}
		found = false
	})
	if found {
		return Allow
	}
	return Deny
}

// HandleJoinRequest applies Decide to an incoming join request, calls the
// corresponding chat-API action, and notifies the user of the outcome.
// Notification failures are logged and otherwise ignored; the approve or
// decline itself is the action of record.
func (g *Gatekeeper) HandleJoinRequest(ctx context.Context, userID, chatID int64) Decision {
	decision := g.Decide(userID, chatID)
	joinDecisions.WithLabelValues(string(decision)).Inc()

	switch decision {
	case Allow:
		if err := g.Messenger.ApproveJoinRequest(ctx, chatID, userID); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Int64("chat_id", chatID).
				Msg("approve join request failed")
			return decision
		}
		if err := g.Messenger.SendMessage(ctx, userID, "✅ Your join request has been approved. Welcome!"); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("join approval notice failed")
		}
	case Deny:
		if err := g.Messenger.DeclineJoinRequest(ctx, chatID, userID); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Int64("chat_id", chatID).
				Msg("decline join request failed")
			return decision
		}
		notice := "❌ We couldn't verify a purchase for this channel.\nIf you have paid, contact support: " + g.Cfg.Telegram.HelpContact
		if err := g.Messenger.SendMessage(ctx, userID, notice); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("join denial notice failed")
		}
	}

	log.Info().Int64("user_id", userID).Int64("chat_id", chatID).
		Str("decision", string(decision)).Msg("join request handled")
	return decision
}
