// Package email delivers club announcements by email.
package email

import "context"

// Message is one announcement addressed to a set of members. Each
// recipient gets an individual copy so addresses are never shared.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

// Sender delivers a Message and returns a provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
