package service

import (
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// Mailer delivers transactional email over SMTP.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) (*Mailer, error) {
	if host == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}
	d := mail.NewDialer(host, port, username, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return &Mailer{dialer: d, from: from}, nil
}

// SendVerificationEmail sends the email-verification link carrying the raw
// token to the given address. Blocks for the SMTP round-trip.
func (m *Mailer) SendVerificationEmail(toEmail, firstname, verifyURL string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Verify your Bookify email address")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nWelcome to Bookify. Please verify your email address by opening the link below:\n\n%s\n\nIf you did not sign up, you can ignore this email.\n",
		firstname, verifyURL,
	))
	return m.dialer.DialAndSend(msg)
}
