package notify

import (
	"context"

	"github.com/nkiryanov/elbishomes/internal/logger"
)

// LogSender writes messages to the log instead of sending them
// Used when no SMTP server is configured
type LogSender struct {
	Logger logger.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.Info("Email message",
		"subject", msg.Subject,
		"to", msg.To,
		"headers", msg.Headers,
		"body", msg.Body,
	)
	return nil
}
