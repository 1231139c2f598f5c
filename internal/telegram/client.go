// Package telegram wraps the messaging-platform client behind the narrow
// Messenger interface the core services depend on. Services never touch the
// Bot API types directly; tests substitute a fake Messenger.
//
// All outbound calls share one HTTP client with a bounded timeout, so a slow
// or unreachable platform surfaces as an error within single-digit seconds
// instead of hanging an operation.
package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger is the outbound surface the core requires from the messaging
// platform. Implementations must be safe for concurrent use.
type Messenger interface {
	// CreateInviteLink creates a channel invite capped at memberLimit
	// redemptions. When joinRequest is true the link creates a join request
	// that a moderator (this service) must approve instead of granting
	// entry immediately.
	CreateInviteLink(ctx context.Context, chatID int64, memberLimit int, joinRequest bool, name string) (string, error)

	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error
	ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error

	ApproveJoinRequest(ctx context.Context, chatID, userID int64) error
	DeclineJoinRequest(ctx context.Context, chatID, userID int64) error
}

// Client implements Messenger on top of the Telegram Bot API.
type Client struct {
	bot *tgbotapi.BotAPI
}

// NewClient authenticates against the Bot API with the given token. timeout
// bounds every outbound HTTP call.
func NewClient(token string, timeout time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	return &Client{bot: bot}, nil
}

// Updates returns the long-polling update channel consumed by the bot loop.
// pollTimeout is the long-poll window in seconds.
func (c *Client) Updates(pollTimeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	return c.bot.GetUpdatesChan(u)
}

// Stop terminates the update channel.
func (c *Client) Stop() { c.bot.StopReceivingUpdates() }

// Send passes a prepared Chattable through to the Bot API. The bot update
// loop uses this for messages with inline keyboards, which the narrow
// Messenger surface does not cover.
func (c *Client) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) { return c.bot.Send(msg) }

// Request passes a raw API request through to the Bot API.
func (c *Client) Request(ch tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.bot.Request(ch)
}

// CreateInviteLink implements Messenger.
func (c *Client) CreateInviteLink(ctx context.Context, chatID int64, memberLimit int, joinRequest bool, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:         tgbotapi.ChatConfig{ChatID: chatID},
		Name:               name,
		MemberLimit:        memberLimit,
		CreatesJoinRequest: joinRequest,
	}
	resp, err := c.bot.Request(cfg)
	if err != nil {
		return "", err
	}
	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", err
	}
	return link.InviteLink, nil
}

// SendMessage implements Messenger.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendPhoto implements Messenger. photoURL must be a publicly fetchable URL;
// Telegram downloads it server-side.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	_, err := c.bot.Send(photo)
	return err
}

// ForwardMessage implements Messenger.
func (c *Client) ForwardMessage(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Send(tgbotapi.NewForward(toChatID, fromChatID, messageID))
	return err
}

// ApproveJoinRequest implements Messenger.
func (c *Client) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Request(tgbotapi.ApproveChatJoinRequestConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		UserID:     userID,
	})
	return err
}

// DeclineJoinRequest implements Messenger.
func (c *Client) DeclineJoinRequest(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Request(tgbotapi.DeclineChatJoinRequest{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		UserID:     userID,
	})
	return err
}
