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

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.Message == nil {
		return
	}
	data := q.Data
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID

	switch {
	case strings.HasPrefix(data, "plan_") && data != "plan_help":
		b.answerCallback(q.ID, "", false)
		b.handlePlanChoice(q.From.ID, chatID, messageID, data)

	case data == "plan_help":
		b.answerCallback(q.ID, "", false)
		b.reply(chatID, helpText(b.cfg.Telegram.HelpContact), "Markdown")

	case data == "back_start":
		b.answerCallback(q.ID, "", false)
		b.sendStartMenu(chatID, q.From.ID)

	case strings.HasPrefix(data, "pay_"):
		b.answerCallback(q.ID, "", false)
		b.handleMethodChoice(q.From.ID, chatID, data)

	case strings.HasPrefix(data, "approve:"),
		strings.HasPrefix(data, "decline:"),
		strings.HasPrefix(data, "sendlink:"):
		b.handleReviewAction(ctx, q, data)

	default:
		b.answerCallback(q.ID, "", false)
		log.Debug().Str("data", data).Msg("unknown callback ignored")
	}
}

func (b *Bot) handlePlanChoice(userID, chatID int64, messageID int, data string) {
	plan, valid := planFromCallback(data)
	if !valid {
		return
	}
	b.sessions.setPlan(userID, plan)

	text := fmt.Sprintf("You selected: *%s*\n\nChoose your payment method below:", services.PlanLabel(plan))
	b.editOrSend(chatID, messageID, text, methodKeyboard(b.overlay(), plan), "Markdown")
}

func (b *Bot) handleMethodChoice(userID, chatID int64, data string) {
	method, valid := methodFromCallback(data)
	if !valid {
		return
	}
	sess := b.sessions.get(userID)
	if sess.Plan == "" {
		b.reply(chatID, choosePlanFirstText, "")
		return
	}

	deadline := b.clock().Add(proofWindow)
	b.sessions.setMethod(userID, method, deadline)

	overlay := b.overlay()
	amount, _ := services.PriceFor(overlay, sess.Plan, method)
	disp := services.Display(b.cfg, overlay)

	b.reply(chatID, paymentInstructions(sess.Plan, method, amount, disp, deadline), "Markdown")

	if method == domain.MethodUPI && disp.UPIQRURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(disp.UPIQRURL))
		photo.Caption = fmt.Sprintf("📷 Scan this QR to pay.\nUPI ID: `%s`", disp.UPIID)
		photo.ParseMode = "Markdown"
		if _, err := b.api.Send(photo); err != nil {
			log.Warn().Err(err).Int64("chat_id", chatID).Msg("qr photo send failed")
		}
	}
}

// handleReviewAction runs the admin's approve/decline/sendlink buttons.
// Authorization lives in the services; the bot only translates the errors.
func (b *Bot) handleReviewAction(ctx context.Context, q *tgbotapi.CallbackQuery, data string) {
	action, paymentID, _ := strings.Cut(data, ":")
	chatID := q.Message.Chat.ID
	actorID := q.From.ID

	if !b.cfg.IsAdmin(actorID) {
		b.answerCallback(q.ID, "Only admin can use this.", true)
		return
	}
	b.answerCallback(q.ID, "", false)

	switch action {
	case "approve":
		p, err := b.payments.Approve(ctx, actorID, paymentID)
		if b.reportReviewError(chatID, err) {
			return
		}
		card := tgbotapi.NewMessage(b.cfg.Telegram.AdminChatID,
			fmt.Sprintf("✅ Payment approved for user %d.\n\nClick to send single-use access link to the user (one-time).", p.UserID))
		card.ReplyMarkup = deliveryKeyboard(paymentID)
		if _, err := b.api.Send(card); err != nil {
			log.Error().Err(err).Str("payment_id", paymentID).Msg("delivery card send failed")
		}
		b.reply(chatID, fmt.Sprintf("✅ Approved payment (ID: %s). Admin must click send to deliver link.", paymentID), "")

	case "sendlink":
		err := b.payments.SendInvites(ctx, actorID, paymentID)
		switch {
		case errors.Is(err, services.ErrNoInviteLinks):
			b.reply(chatID, "⚠️ No invite links available for this user; try re-creating them.", "")
		case b.reportReviewError(chatID, err):
		default:
			b.reply(chatID, "✅ Invite sent to user.", "")
		}

	case "decline":
		err := b.payments.Decline(ctx, actorID, paymentID)
		if b.reportReviewError(chatID, err) {
			return
		}
		b.reply(chatID, fmt.Sprintf("❌ Declined payment (ID: %s)", paymentID), "")
	}
}

// reportReviewError translates a review-flow error into an admin-facing
// message. Returns true when err was terminal for the action.
func (b *Bot) reportReviewError(chatID int64, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrPaymentNotFound):
		b.reply(chatID, "⚠️ This payment request was not found or already processed.", "")
	case errors.Is(err, services.ErrNotAdmin):
		// Already gated above; log in case config changed mid-flight.
		log.Warn().Msg("review action lost admin authorization")
	default:
		log.Error().Err(err).Msg("review action failed")
		b.reply(chatID, "⚠️ Action failed, check logs.", "")
	}
	return true
}
