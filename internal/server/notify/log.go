package notify

import (
	"context"

	"github.com/tradexinvest/tradex/internal/logging"
)

// LogSender writes messages to the log instead of delivering them. It is
// used when no SMTP host is configured.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info(ctx, "mail not delivered, no smtp host configured",
		"to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
