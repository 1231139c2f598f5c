// Package bot implements the Telegram side of the service: the long-polling
// update loop, the purchase conversation (plan and method keyboards, payment
// instructions, proof submission), the admin review callbacks, the admin
// commands, and join-request gatekeeping.
//
// The bot holds no business state of its own. Every decision that matters
// goes through the services layer, which serializes the multi-step flows;
// the bot only translates updates into service calls and service results
// into messages.
package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/vkoritsas/go-paygate-bot/internal/config"
	"github.com/vkoritsas/go-paygate-bot/internal/domain"
	"github.com/vkoritsas/go-paygate-bot/internal/services"
	"github.com/vkoritsas/go-paygate-bot/internal/state"
)

// proofWindow is how long a user has to pay and send proof after picking a
// payment method. Display only; late proofs still reach the admin, who makes
// the call.
const proofWindow = 30 * time.Minute

// API is the raw Bot API surface the update loop needs beyond the Messenger
// interface: prepared messages with inline keyboards and callback answers.
// *telegram.Client satisfies it.
type API interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot routes Telegram updates to the payment services.
type Bot struct {
	api      API
	cfg      config.Config
	state    *state.Manager
	payments *services.PaymentService
	admin    *services.AdminService
	gate     *services.Gatekeeper
	sessions *sessionStore

	// now is a test seam; nil means time.Now in IST.
	now func() time.Time
}

// New wires a Bot. All dependencies are required.
func New(api API, cfg config.Config, st *state.Manager, payments *services.PaymentService, admin *services.AdminService, gate *services.Gatekeeper) *Bot {
	return &Bot{
		api:      api,
		cfg:      cfg,
		state:    st,
		payments: payments,
		admin:    admin,
		gate:     gate,
		sessions: newSessionStore(),
	}
}

func (b *Bot) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now().In(services.IST)
}

// Run consumes updates until the channel closes or ctx is cancelled. Updates
// are handled sequentially; the services layer owns all locking, so a slow
// Telegram call is the only thing a long handler blocks.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, upd)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Int("update_id", upd.UpdateID).
				Msg("update handler panicked")
		}
	}()

	switch {
	case upd.ChatJoinRequest != nil:
		req := upd.ChatJoinRequest
		b.gate.HandleJoinRequest(ctx, req.From.ID, req.Chat.ID)
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if len(msg.Photo) > 0 || msg.Document != nil {
		b.handleProof(ctx, msg)
		return
	}
	if msg.Text != "" {
		// Text while we are waiting for proof gets a nudge; anything else is
		// ignored, exactly like an unsolicited sticker.
		sess := b.sessions.get(msg.From.ID)
		if sess.Plan != "" && sess.Method != "" {
			b.reply(msg.Chat.ID, textProofWarning, "Markdown")
		}
	}
}

// handleProof turns a photo or document into a pending payment, forwards the
// original message to the admin, and posts the review card.
func (b *Bot) handleProof(ctx context.Context, msg *tgbotapi.Message) {
	sess := b.sessions.get(msg.From.ID)
	if sess.Plan == "" || sess.Method == "" {
		return
	}

	pending, err := b.payments.SubmitProof(ctx, msg.From.ID, msg.From.UserName, sess.Plan, sess.Method)
	if err != nil {
		log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("proof submission rejected")
		return
	}

	adminID := b.cfg.Telegram.AdminChatID
	if err := b.forward(adminID, msg.Chat.ID, msg.MessageID); err != nil {
		log.Error().Err(err).Str("payment_id", pending.ID).Msg("proof forward failed")
	}

	card := tgbotapi.NewMessage(adminID, reviewText(pending))
	card.ReplyMarkup = reviewKeyboard(pending.ID)
	if _, err := b.api.Send(card); err != nil {
		log.Error().Err(err).Str("payment_id", pending.ID).Msg("review card send failed")
	}

	b.reply(msg.Chat.ID, proofReceivedText, "")
}

// sendStartMenu shows the plan keyboard and remembers the user for
// broadcasts.
func (b *Bot) sendStartMenu(chatID, userID int64) {
	b.payments.RememberUser(userID)
	b.sessions.reset(userID)

	msg := tgbotapi.NewMessage(chatID, startText)
	msg.ReplyMarkup = startKeyboard(b.overlay())
	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("start menu send failed")
	}
}

func (b *Bot) overlay() domain.ConfigOverlay {
	var overlay domain.ConfigOverlay
	b.state.View(func(snap *domain.Snapshot) { overlay = snap.Config })
	return overlay
}

// reply sends plain text to a chat, logging failures.
func (b *Bot) reply(chatID int64, text, parseMode string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("reply send failed")
	}
}

func (b *Bot) forward(toChatID, fromChatID int64, messageID int) error {
	_, err := b.api.Send(tgbotapi.NewForward(toChatID, fromChatID, messageID))
	return err
}

// answerCallback acknowledges a callback query so the client stops showing
// the spinner; alert pops a modal instead of a toast.
func (b *Bot) answerCallback(id, text string, alert bool) {
	cb := tgbotapi.NewCallback(id, text)
	cb.ShowAlert = alert
	if _, err := b.api.Request(cb); err != nil {
		log.Warn().Err(err).Msg("callback answer failed")
	}
}

// editOrSend tries to edit the message the keyboard lives on and falls back
// to sending a fresh message when the edit is rejected (message too old or
// unchanged).
func (b *Bot) editOrSend(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup, parseMode string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	edit.ParseMode = parseMode
	if _, err := b.api.Send(edit); err == nil {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	msg.ParseMode = parseMode
	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("menu send failed")
	}
}

func planFromCallback(data string) (domain.Plan, bool) {
	plan := domain.Plan(strings.TrimPrefix(data, "plan_"))
	return plan, plan.Valid()
}

func methodFromCallback(data string) (domain.Method, bool) {
	method := domain.Method(strings.TrimPrefix(data, "pay_"))
	return method, method.Valid()
}
