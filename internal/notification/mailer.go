package notification

import (
	"log/slog"

	"github.com/trackly/trackly-home/internal/household"
)

// Config selects and configures the invite mailer.
type Config struct {
	ResendAPIKey string
	ResendFrom   string
	SMTP         SMTPConfig
}

// NewMailer returns the Resend client when it is configured, then the SMTP
// mailer, and nil when neither is. A nil mailer means invites are shared by
// link only.
func NewMailer(cfg Config, logger *slog.Logger) household.Mailer {
	if resend := NewResendClient(cfg.ResendAPIKey, cfg.ResendFrom); resend.Configured() {
		logger.Info("invite email via Resend")
		return resend
	}
	if smtpMailer := NewSMTPMailer(cfg.SMTP); smtpMailer.Configured() {
		logger.Info("invite email via SMTP", "host", cfg.SMTP.Host)
		return smtpMailer
	}
	logger.Warn("no email provider configured; invites will report email_sent=false")
	return nil
}
