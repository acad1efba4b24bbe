package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// maxBatch is the Resend batch API limit.
const maxBatch = 100

// ErrNoRecipients is returned when a message has nobody to go to.
var ErrNoRecipients = errors.New("email has no recipients")

// ResendSender sends announcements through the Resend batch API.
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
}

// NewResendSender creates a sender with the club's from and reply-to addresses.
// PRE: apiKey is a Resend API key; from is a verified sender
func NewResendSender(apiKey, from, replyTo string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from, replyTo: replyTo}
}

// Send fans msg out as one email per recipient, in chunks of maxBatch.
// POST: returns the first provider id; a failed chunk aborts the rest
func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}
	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = s.replyTo
	}

	var firstID string
	for start := 0; start < len(msg.To); start += maxBatch {
		chunk := msg.To[start:min(start+maxBatch, len(msg.To))]
		batch := make([]*resend.SendEmailRequest, 0, len(chunk))
		for _, to := range chunk {
			batch = append(batch, &resend.SendEmailRequest{
				From:    s.from,
				To:      []string{to},
				Subject: msg.Subject,
				Html:    msg.HTML,
				Text:    msg.Text,
				ReplyTo: replyTo,
			})
		}
		resp, err := s.client.Batch.SendWithContext(ctx, batch)
		if err != nil {
			slog.Error("resend_batch_failed", "subject", msg.Subject, "offset", start, "error", err)
			return firstID, fmt.Errorf("resend batch at %d: %w", start, err)
		}
		if firstID == "" && len(resp.Data) > 0 {
			firstID = resp.Data[0].Id
		}
	}
	slog.Info("resend_sent", "subject", msg.Subject, "recipients", len(msg.To), "message_id", firstID)
	return firstID, nil
}
