package sender

import (
	"context"
	"log/slog"

	"github.com/dmehra2102/commerce-core/internal/notification/domain"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, m domain.Message) error {
	s.log.Info("email", "to", m.To, "subject", m.Subject, "body", m.Body)
	return nil
}
