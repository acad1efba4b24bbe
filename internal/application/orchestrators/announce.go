package orchestrators

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"filmclub/internal/adapters/email"
	"filmclub/internal/domain/account"
	"filmclub/internal/domain/announcement"
	"filmclub/internal/domain/outbox"
)

// mdRenderer escapes raw HTML in announcement markdown (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// AccountLister lists every account that should receive announcements.
type AccountLister interface {
	List(ctx context.Context) ([]account.Account, error)
}

// ChatPoster posts plain text to the club chat.
type ChatPoster interface {
	Post(ctx context.Context, text string) (string, error)
}

// OutboxSaver persists a failed delivery for later retry.
type OutboxSaver interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// AnnounceDeps holds dependencies for Announce. Email and Chat are optional.
type AnnounceDeps struct {
	AccountStore AccountLister
	Email        email.Sender
	Chat         ChatPoster
	OutboxStore  OutboxSaver
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteAnnounce delivers a to every channel. A channel that fails is
// queued in the outbox; the returned error reports failures to queue.
// POST: each configured channel either delivered or has a pending outbox entry
func ExecuteAnnounce(ctx context.Context, a announcement.Announcement, deps AnnounceDeps) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}

	var errs []error
	if deps.Email != nil {
		id, err := deliverEmail(ctx, a, deps)
		errs = append(errs, settle(ctx, deps, outbox.ActionTypeEmail, a, payload, id, err))
	}
	if deps.Chat != nil {
		id, err := deps.Chat.Post(ctx, ChatText(a))
		errs = append(errs, settle(ctx, deps, outbox.ActionTypeChat, a, payload, id, err))
	}
	return errors.Join(errs...)
}

// settle logs a delivery and queues it in the outbox when it failed.
func settle(ctx context.Context, deps AnnounceDeps, actionType string, a announcement.Announcement, payload []byte, id string, cause error) error {
	if cause == nil {
		slog.Info("announcement_delivered", "channel", actionType, "kind", a.Kind, "week", a.WeekDate, "external_id", id)
		return nil
	}
	entry := outbox.NewEntry(deps.GenerateID(), actionType, string(payload), cause, deps.Now())
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		slog.Error("announcement_lost", "channel", actionType, "kind", a.Kind, "week", a.WeekDate, "cause", cause, "error", err)
		return fmt.Errorf("queue %s announcement: %w", actionType, err)
	}
	slog.Warn("announcement_queued", "channel", actionType, "kind", a.Kind, "week", a.WeekDate, "entry_id", entry.ID, "error", cause)
	return nil
}

func deliverEmail(ctx context.Context, a announcement.Announcement, deps AnnounceDeps) (string, error) {
	accounts, err := deps.AccountStore.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list recipients: %w", err)
	}
	to := make([]string, 0, len(accounts))
	for _, acct := range accounts {
		to = append(to, acct.Email)
	}
	if len(to) == 0 {
		return "", email.ErrNoRecipients
	}
	html, err := RenderHTML(a.Markdown)
	if err != nil {
		return "", err
	}
	return deps.Email.Send(ctx, email.Message{
		To:      to,
		Subject: a.Subject,
		HTML:    html,
		Text:    a.Markdown,
	})
}

// RenderHTML converts announcement markdown to HTML.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// ChatText formats a for the chat channel, which takes plain text.
func ChatText(a announcement.Announcement) string {
	return a.Subject + "\n\n" + strings.ReplaceAll(a.Markdown, "**", "")
}

// OutboxAnnouncer publishes announcements through ExecuteAnnounce.
type OutboxAnnouncer struct {
	Deps AnnounceDeps
}

// Announce implements Announcer. Delivery runs on a detached context so a
// cancelled request does not abort it midway.
func (o OutboxAnnouncer) Announce(ctx context.Context, a announcement.Announcement) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := ExecuteAnnounce(ctx, a, o.Deps); err != nil {
		slog.Error("announce_failed", "kind", a.Kind, "week", a.WeekDate, "error", err)
	}
}
