package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/vkoritsas/go-paygate-bot/internal/domain"
	"github.com/vkoritsas/go-paygate-bot/internal/services"
)

// handleCommand dispatches slash commands. Admin commands sent by anyone
// else are silently dropped; answering would advertise that the command
// exists.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.sendStartMenu(chatID, userID)

	case "broadcast":
		if args == "" {
			b.replyIfAdmin(userID, chatID, "Usage: /broadcast your message text")
			return
		}
		sent, failed, err := b.admin.Broadcast(ctx, userID, args)
		if b.dropIfUnauthorized(err, userID, "broadcast") {
			return
		}
		b.reply(chatID, fmt.Sprintf("Broadcast done.\n✅ Sent: %d\n❌ Failed: %d", sent, failed), "")

	case "pending":
		list, err := b.admin.Pending(userID)
		if b.dropIfUnauthorized(err, userID, "pending") {
			return
		}
		b.reply(chatID, pendingText(list), "Markdown")

	case "webhooks":
		stats, err := b.admin.WebhookAudit(ctx, userID, 10)
		switch {
		case b.dropIfUnauthorized(err, userID, "webhooks"):
		case errors.Is(err, services.ErrAuditUnavailable):
			b.reply(chatID, "Webhook audit log is not available.", "")
		case err != nil:
			log.Error().Err(err).Msg("webhook audit failed")
			b.reply(chatID, "⚠️ Could not read the webhook audit log.", "")
		default:
			b.reply(chatID, webhookAuditText(stats), "Markdown")
		}

	case "income":
		window := "today"
		if args != "" {
			window = normalizeWindow(args)
		}
		rep, err := b.admin.Income(userID, window)
		if b.dropIfUnauthorized(err, userID, "income") {
			return
		}
		b.reply(chatID, incomeText(rep), "Markdown")

	case "set_price":
		fields := strings.Fields(args)
		if len(fields) != 3 {
			b.replyIfAdmin(userID, chatID, "Usage: /set_price <vip|dark|both> <upi|crypto|remitly> <amount>")
			return
		}
		plan := domain.Plan(strings.ToLower(fields[0]))
		method := domain.Method(strings.ToLower(fields[1]))
		err := b.admin.SetPrice(userID, plan, method, fields[2])
		switch {
		case b.dropIfUnauthorized(err, userID, "set_price"):
		case errors.Is(err, services.ErrInvalidPlan), errors.Is(err, services.ErrInvalidMethod):
			b.reply(chatID, "Invalid plan or method.", "")
		case errors.Is(err, services.ErrInvalidAmount):
			b.reply(chatID, "Amount must be a positive number.", "")
		case err != nil:
			log.Error().Err(err).Msg("set_price failed")
		default:
			b.reply(chatID, fmt.Sprintf("Updated price for %s [%s] to %s.", services.PlanLabel(plan), method, fields[2]), "")
		}

	case "set_upi":
		if args == "" {
			b.replyIfAdmin(userID, chatID, "Usage: /set_upi <upi_id>")
			return
		}
		if b.dropIfUnauthorized(b.admin.SetUPI(userID, args), userID, "set_upi") {
			return
		}
		b.reply(chatID, "UPI ID updated to: "+strings.TrimSpace(args), "")

	case "set_crypto":
		if args == "" {
			b.replyIfAdmin(userID, chatID, "Usage: /set_crypto <address> [network]")
			return
		}
		if b.dropIfUnauthorized(b.admin.SetCrypto(userID, args), userID, "set_crypto") {
			return
		}
		b.reply(chatID, "Crypto address updated to: "+strings.Fields(args)[0], "")

	case "set_remitly":
		if args == "" {
			b.replyIfAdmin(userID, chatID, "Usage: /set_remitly <text>")
			return
		}
		if b.dropIfUnauthorized(b.admin.SetRemitly(userID, args), userID, "set_remitly") {
			return
		}
		b.reply(chatID, "Remitly info updated.", "")

	case "set_vip":
		b.setChannelCommand(userID, chatID, domain.TagVIP, args, "/set_vip")

	case "set_dark":
		b.setChannelCommand(userID, chatID, domain.TagDark, args, "/set_dark")
	}
}

func (b *Bot) setChannelCommand(userID, chatID int64, tag domain.ChannelTag, args, usage string) {
	if args == "" {
		b.replyIfAdmin(userID, chatID, "Usage: "+usage+" <channel_id>")
		return
	}
	err := b.admin.SetChannel(userID, tag, args)
	switch {
	case b.dropIfUnauthorized(err, userID, "set_channel"):
	case errors.Is(err, services.ErrInvalidChannelID):
		b.reply(chatID, "channel_id must be an integer (e.g. -1001234567890)", "")
	case err != nil:
		log.Error().Err(err).Msg("set_channel failed")
	default:
		b.reply(chatID, fmt.Sprintf("%s channel updated to %s", strings.ToUpper(string(tag)), strings.TrimSpace(args)), "")
	}
}

// replyIfAdmin sends usage help only to the admin; everyone else gets
// silence.
func (b *Bot) replyIfAdmin(userID, chatID int64, text string) {
	if b.cfg.IsAdmin(userID) {
		b.reply(chatID, text, "")
	}
}

// dropIfUnauthorized swallows ErrNotAdmin (already logged by the service)
// and reports whether the command should stop.
func (b *Bot) dropIfUnauthorized(err error, userID int64, action string) bool {
	if errors.Is(err, services.ErrNotAdmin) {
		log.Debug().Int64("user_id", userID).Str("action", action).Msg("command ignored")
		return true
	}
	return false
}

// normalizeWindow maps the aliases users type to the canonical window names.
func normalizeWindow(arg string) string {
	switch strings.ToLower(arg) {
	case "yesterday":
		return "yesterday"
	case "7d", "7days", "last7":
		return "7d"
	default:
		return "today"
	}
}
