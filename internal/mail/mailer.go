package mail

import (
	"gopkg.in/gomail.v2"

	"github.com/soportek/helpdesk-api/internal/config"
)

// Mailer delivers outbound mail. Send may fail; callers decide whether the
// failure is fatal for their flow.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail over SMTP using gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from SMTP settings.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a plain-text message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
