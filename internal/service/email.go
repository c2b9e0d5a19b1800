package service

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"net/url"
)

// EmailService sends the transactional mails the API needs. All sends are
// best-effort from the caller's point of view; a mail failure never rolls
// back the operation that triggered it.
type EmailService interface {
	SendVerification(to, username, token string) error
	SendPasswordReset(to, username, token string) error
	SendWelcome(to, username string) error
	SendOrderConfirmation(to, username string, orderID uint, total float64) error
}

// SMTPConfig is the mail transport configuration. An empty Host disables
// sending entirely; every Send becomes a logged no-op.
type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
	// PublicBaseURL is the externally reachable origin used in mail links.
	PublicBaseURL string
}

type smtpEmail struct {
	cfg SMTPConfig
	log *slog.Logger
}

func NewSMTPEmail(cfg SMTPConfig, log *slog.Logger) EmailService {
	if cfg.Host == "" {
		log.Warn("smtp not configured, email sending disabled")
	}
	return &smtpEmail{cfg: cfg, log: log}
}

func (s *smtpEmail) SendVerification(to, username, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.PublicBaseURL, url.QueryEscape(token))
	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for signing up. Verify your email address by opening the link below:\n\n%s\n\nThe link is valid for 24 hours. If you did not create this account you can ignore this mail.\n",
		username, link)
	return s.send(to, "Verify your email address", body)
}

func (s *smtpEmail) SendPasswordReset(to, username, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicBaseURL, url.QueryEscape(token))
	body := fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your account. Open the link below to choose a new password:\n\n%s\n\nThe link is valid for 1 hour. If you did not request this, ignore this mail.\n",
		username, link)
	return s.send(to, "Password reset request", body)
}

func (s *smtpEmail) SendWelcome(to, username string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour email address is verified. Happy shopping!\n", username)
	return s.send(to, "Welcome aboard", body)
}

func (s *smtpEmail) SendOrderConfirmation(to, username string, orderID uint, total float64) error {
	body := fmt.Sprintf("Hi %s,\n\nThanks! Your order #%d totalling %.2f has been received.\n", username, orderID, total)
	return s.send(to, fmt.Sprintf("Order #%d confirmation", orderID), body)
}

func (s *smtpEmail) send(to, subject, body string) error {
	if s.cfg.Host == "" {
		s.log.Warn("email send skipped, smtp not configured", "to", to, "subject", subject)
		return nil
	}

	msg := "From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		s.log.Error("email send failed", "to", to, "subject", subject, "err", err)
		return err
	}
	return nil
}
