package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/mycourse/elearning-platform/config"

	"github.com/sirupsen/logrus"
)

// Notifier delivers verification and reset messages out-of-band. Implementations
// must honor the context deadline; dispatch must never block a request
// indefinitely.
type Notifier interface {
	SendVerificationCode(ctx context.Context, toEmail, code, firstName string) error
	SendVerificationLink(ctx context.Context, toEmail, token, firstName string) error
	SendPasswordReset(ctx context.Context, toEmail, token, firstName string) error
}

// SMTPNotifier sends plain-text mail over SMTP with a connection deadline
// derived from the configured timeout.
type SMTPNotifier struct {
	cfg         config.SMTPConfig
	frontendURL string
}

func NewSMTPNotifier(cfg config.SMTPConfig, frontendURL string) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, frontendURL: frontendURL}
}

func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, toEmail, code, firstName string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour verification code for E-Learning Platform is: %s\n\n"+
			"This code will expire in 10 minutes.\n\n"+
			"If you did not create an account, please ignore this email.\n\n"+
			"Best regards,\nE-Learning Platform Team",
		firstName, code,
	)
	return n.send(ctx, toEmail, "Your Verification Code - E-Learning Platform", body)
}

func (n *SMTPNotifier) SendVerificationLink(ctx context.Context, toEmail, token, firstName string) error {
	link := n.frontendURL + "/verify-email?token=" + token
	body := fmt.Sprintf(
		"Hello %s,\n\nWelcome to the E-Learning Platform! Please verify your email address to complete your registration.\n\n"+
			"Click the link below to verify your email:\n%s\n\n"+
			"This link will expire in 24 hours.\n\n"+
			"If you did not create an account, please ignore this email.\n\n"+
			"Best regards,\nE-Learning Platform Team",
		firstName, link,
	)
	return n.send(ctx, toEmail, "Verify Your Email - E-Learning Platform", body)
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, toEmail, token, firstName string) error {
	link := n.frontendURL + "/reset-password?token=" + token
	body := fmt.Sprintf(
		"Hello %s,\n\nYou have requested to reset your password for your E-Learning Platform account.\n\n"+
			"Please click the link below to reset your password:\n%s\n\n"+
			"This link will expire in 1 hour for security reasons.\n\n"+
			"If you did not request this password reset, please ignore this email.\n\n"+
			"Best regards,\nE-Learning Platform Team",
		firstName, link,
	)
	return n.send(ctx, toEmail, "Password Reset Request - E-Learning Platform", body)
}

func (n *SMTPNotifier) send(ctx context.Context, toEmail, subject, body string) error {
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)

	dialer := &net.Dialer{Timeout: n.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	// The deadline bounds the whole exchange, not just the dial.
	deadline := time.Now().Add(n.cfg.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if n.cfg.Username != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	msg := strings.Join([]string{
		"From: " + n.cfg.From,
		"To: " + toEmail,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	if err := client.Quit(); err != nil {
		logrus.WithError(err).Debug("SMTP quit failed after successful send")
	}
	return nil
}
