package notify

import (
	"context"

	"gigbook/internal/models"

	"github.com/rs/zerolog"
)

// LogMailer writes notifications to the log instead of sending them.
// It is used when no SMTP relay is configured.
type LogMailer struct {
	logger *zerolog.Logger
}

func NewLogMailer(logger *zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, n models.Notification) error {
	m.logger.Info().Str("to", n.To).Str("subject", n.Subject).Msg("Email notification (not sent, smtp disabled)")
	return nil
}
