package push

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// Sender delivers one message and returns the provider message id.
// *messaging.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, message *messaging.Message) (string, error)

// Send calls f
func (f SenderFunc) Send(ctx context.Context, message *messaging.Message) (string, error) {
	return f(ctx, message)
}

// TruncateToken shortens a token for logs
func TruncateToken(token string) string {
	const keep = 20
	if len(token) <= keep {
		return token
	}
	return token[:keep] + "..."
}
