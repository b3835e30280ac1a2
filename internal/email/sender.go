package email

import "context"

// Sender delivers a plain-text email to a single recipient.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
