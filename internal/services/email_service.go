package services

import (
	"fmt"
	"net/url"

	"gopkg.in/gomail.v2"
)

// EmailSender delivers account emails. The local fallback store and tests
// plug in NopEmailSender; the server wires the SMTP implementation.
type EmailSender interface {
	SendVerificationEmail(email, username, token string) error
}

// EmailService sends mail through an SMTP relay.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	appURL string
}

// NewEmailService creates a new EmailService.
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, appURL string) *EmailService {
	return &EmailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		appURL: appURL,
	}
}

// SendVerificationEmail mails the single-use verification link to a freshly
// registered user.
func (s *EmailService) SendVerificationEmail(email, username, token string) error {
	verifyLink := fmt.Sprintf("%s/verify.html?token=%s", s.appURL, url.QueryEscape(token))

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Verify your Digital Library account")

	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Thanks for registering. Click the link below to verify your email address:</p>
		<p><a href="%s">Verify email</a></p>
		<p>If the link does not work, copy and paste this URL into your browser:<br>%s</p>
		<p>This link will expire in 24 hours.</p>
	`, username, verifyLink, verifyLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// NopEmailSender discards all mail. Used when no SMTP relay is configured
// and by the local fallback store, where there is nothing to deliver through.
type NopEmailSender struct{}

func (NopEmailSender) SendVerificationEmail(email, username, token string) error { return nil }
