package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// NoopSender logs announcements instead of delivering them. Used when no
// Resend key is configured.
type NoopSender struct {
	sent atomic.Int64
}

// NewNoopSender creates a NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs msg and returns a synthetic id.
func (s *NoopSender) Send(_ context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}
	n := s.sent.Add(1)
	slog.Info("noop_email_send", "subject", msg.Subject, "recipients", len(msg.To))
	return fmt.Sprintf("noop-email-%d", n), nil
}

// Sent reports how many messages were accepted.
func (s *NoopSender) Sent() int64 {
	return s.sent.Load()
}
