// Package notify delivers plain-text email notifications. Templates live in
// Notifier; transports implement Sender.
package notify

import (
	"context"
	"errors"
)

// ErrNotification wraps every delivery failure.
var ErrNotification = errors.New("notification failed")

type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
