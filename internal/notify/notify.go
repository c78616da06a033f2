package notify

import (
	"context"
)

type Message struct {
	Subject string
	Body    string
	To      []string

	// Extra headers, e.g. Reply-To
	Headers map[string]string
}

// Sender delivers a message or fails with apperrors.ErrTransport
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
