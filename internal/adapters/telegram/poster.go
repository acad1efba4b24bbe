// Package telegram posts club announcements to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

// Poster publishes plain-text announcements and returns a message reference.
type Poster interface {
	Post(ctx context.Context, text string) (string, error)
}

// BotPoster posts through the Bot API to one chat.
type BotPoster struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewBotPoster authenticates the bot token and binds it to chatID.
// POST: returns an error if the token is rejected by Telegram
func NewBotPoster(token string, chatID int64) (*BotPoster, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	slog.Info("telegram_authorized", "bot", bot.Self.UserName, "chat_id", chatID)
	return &BotPoster{bot: bot, chatID: chatID}, nil
}

// Post sends text to the club chat, truncated to Telegram's limit.
// The Bot API client is not context aware; ctx is checked before sending.
func (p *BotPoster) Post(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg := tgbotapi.NewMessage(p.chatID, Truncate(text, maxMessageLen))
	msg.DisableWebPagePreview = true
	sent, err := p.bot.Send(msg)
	if err != nil {
		slog.Error("telegram_post_failed", "chat_id", p.chatID, "error", err)
		return "", fmt.Errorf("telegram send: %w", err)
	}
	return strconv.Itoa(sent.MessageID), nil
}

// Truncate shortens s to at most limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// NoopPoster logs instead of posting.
type NoopPoster struct{}

// Post logs the announcement.
func (NoopPoster) Post(_ context.Context, text string) (string, error) {
	slog.Info("noop_telegram_post", "length", len(text))
	return "noop-telegram", nil
}
