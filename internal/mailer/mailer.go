// Package mailer sends transactional mail over SMTP. The only mail this
// application sends today is the welcome message on first profile creation.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends a single email. Implementations must tolerate being called
// from background goroutines; failures are logged by the caller, never fatal.
type Mailer interface {
	Send(recipient, subject, body string) error
}

// SMTPMailer implements Mailer against a plain SMTP endpoint
// (smtp.mailtrap.io in development).
type SMTPMailer struct {
	Host   string
	Port   string
	User   string
	Pass   string
	Sender string
}

// NewSMTPMailer creates an SMTPMailer with the development default host when
// none is given.
func NewSMTPMailer(host, port, user, pass, sender string) (*SMTPMailer, error) {
	if user == "" || pass == "" {
		return nil, fmt.Errorf("SMTP username and password must be provided")
	}
	if sender == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	if host == "" {
		host = "smtp.mailtrap.io"
	}
	if port == "" {
		port = "2525"
	}
	return &SMTPMailer{Host: host, Port: port, User: user, Pass: pass, Sender: sender}, nil
}

// Send delivers one message. The Content-Type is inferred from basic HTML tags
// in the body.
func (m *SMTPMailer) Send(recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}

	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, m.Sender, subject, contentType, body))

	addr := m.Host + ":" + m.Port
	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)

	if err := smtp.SendMail(addr, auth, m.Sender, []string{recipient}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
