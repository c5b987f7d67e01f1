package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer writes outgoing mail to the logger instead of delivering it.
// Meant for local development, where the OTP can be read from the logs.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", htmlBody).
		Msg("mail delivered to log")
	return nil
}
