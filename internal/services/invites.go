package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vkoritsas/go-paygate-bot/internal/config"
	"github.com/vkoritsas/go-paygate-bot/internal/domain"
	"github.com/vkoritsas/go-paygate-bot/internal/state"
	"github.com/vkoritsas/go-paygate-bot/internal/telegram"
)

// InviteService creates and memoizes single-use access links per user per
// channel tag. At most one link is ever created per (user, tag) pair: a
// repeated request returns the previously created link instead of minting a
// second one.
//
// Issue must be called from within a flow serialized by PaymentService's
// operation lock; the memoization check and the creation are not atomic on
// their own.
type InviteService struct {
	State     *state.Manager
	Messenger telegram.Messenger
	Cfg       config.Config
}

// Issue creates (or reuses) an invite link for every channel tag the plan
// implies whose backing channel is configured. Links are capped at one
// redemption; when joinRequest is true they create a join request that the
// gatekeeper later approves instead of granting entry immediately.
//
// Failure to create a link for one tag does not abort issuance for the
// others: partial success is valid and reported by omission from the
// returned map, never by an error. Every successful creation is persisted
// before the next tag is attempted.
func (s *InviteService) Issue(ctx context.Context, userID int64, plan domain.Plan, joinRequest bool) map[domain.ChannelTag]string {
	created := map[domain.ChannelTag]string{}

	for _, tag := range plan.ChannelTags() {
		var chatID int64
		var existing string
		s.State.View(func(snap *domain.Snapshot) {
			chatID = ChannelID(s.Cfg, snap.Config, tag)
			existing = snap.Invites[userID][tag]
		})

		if chatID == 0 {
			log.Warn().Str("tag", string(tag)).Int64("user_id", userID).
				Msg("channel not configured, skipping invite")
			continue
		}
		if existing != "" {
			created[tag] = existing
			continue
		}

		name := fmt.Sprintf("user_%d_%s", userID, tag)
		link, err := s.Messenger.CreateInviteLink(ctx, chatID, 1, joinRequest, name)
		if err != nil {
			log.Error().Err(err).Str("tag", string(tag)).Int64("user_id", userID).
				Msg("invite link creation failed")
			continue
		}

		_ = s.State.Update(func(snap *domain.Snapshot) error {
			snap.UserInvites(userID)[tag] = link
			return nil
		})
		invitesIssued.WithLabelValues(string(tag)).Inc()
		created[tag] = link
	}
	return created
}

// LinksFor returns the stored links for the channel tags a plan implies.
func (s *InviteService) LinksFor(userID int64, plan domain.Plan) map[domain.ChannelTag]string {
	links := map[domain.ChannelTag]string{}
	s.State.View(func(snap *domain.Snapshot) {
		for _, tag := range plan.ChannelTags() {
			if l := snap.Invites[userID][tag]; l != "" {
				links[tag] = l
			}
		}
	})
	return links
}
