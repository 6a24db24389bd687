// Package mail delivers one-time-password emails over SMTP.
package mail

import (
	"fmt"
	"net/smtp"
	"os"

	// Load env
	_ "github.com/joho/godotenv/autoload"
)

// Sender delivers a plain-text mail. Handlers depend on this interface so
// tests can record messages instead of talking to an SMTP server.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through the server configured by SMTP_HOST,
// SMTP_PORT, SMTP_USER and SMTP_PASSWORD.
type SMTPSender struct {
	Host     string
	Port     string
	User     string
	Password string
}

// NewSMTPSender builds an SMTPSender from environment variables.
func NewSMTPSender() *SMTPSender {
	return &SMTPSender{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}
}

// Send delivers the message to a single recipient.
func (s *SMTPSender) Send(to, subject, body string) error {
	if s.Host == "" || s.User == "" {
		return fmt.Errorf("SMTP credentials are not configured")
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", s.User, s.Password, s.Host)

	return smtp.SendMail(
		s.Host+":"+s.Port,
		auth,
		s.User,
		[]string{to},
		message,
	)
}

// Discard drops every message. Useful where mail delivery is irrelevant,
// such as the create-admin command and handler tests.
var Discard Sender = discardSender{}

type discardSender struct{}

func (discardSender) Send(_, _, _ string) error { return nil }

// OTPBody renders the mail body for a verification or reset code.
func OTPBody(purpose, otp string) (subject, body string) {
	switch purpose {
	case "signup":
		subject = "EASY-Apply account verification"
		body = fmt.Sprintf("Your OTP for account verification is: %s. It is valid for 15 minutes.", otp)
	default:
		subject = "Reset Password OTP"
		body = fmt.Sprintf("Your OTP for password reset is: %s. It is valid for 15 minutes.", otp)
	}
	return subject, body
}
