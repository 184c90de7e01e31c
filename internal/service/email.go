package service

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/coreconnect/backend/config"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
)

// MailSender abstracts SMTP delivery so tests can capture outgoing mail.
type MailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// EmailService delivers verification and reset mail. Delivery failures are
// reported but callers treat them as non-fatal; auth flows keep working when
// SMTP is down or disabled.
type EmailService struct {
	sender      MailSender
	frontendURL string
	enabled     bool
}

func NewEmailService(sender MailSender, cfg *config.Config) *EmailService {
	return &EmailService{
		sender:      sender,
		frontendURL: cfg.App.FrontendURL,
		enabled:     cfg.Mail.Enabled,
	}
}

// SendVerification mails the email-verification link. Returns false when the
// mail could not be handed off, so callers can fall back to echoing the token.
func (s *EmailService) SendVerification(ctx context.Context, to, token string) bool {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "SendVerification")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "email_service")

	link := fmt.Sprintf("%s/verify-email/%s", s.frontendURL, token)
	body := fmt.Sprintf(`<p>Welcome to CoreConnect!</p>
<p>Please verify your email address by clicking the link below. The link expires in 24 hours.</p>
<p><a href=%q>Verify Email</a></p>`, link)

	return s.deliver(ctx, to, "Verify your CoreConnect account", body)
}

// SendPasswordReset mails the reset link
func (s *EmailService) SendPasswordReset(ctx context.Context, to, token string) bool {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "SendPasswordReset")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "email_service")

	link := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
	body := fmt.Sprintf(`<p>A password reset was requested for your CoreConnect account.</p>
<p>Click the link below to choose a new password. The link expires in 1 hour.</p>
<p><a href=%q>Reset Password</a></p>
<p>If you did not request this, you can ignore this email.</p>`, link)

	return s.deliver(ctx, to, "Reset your CoreConnect password", body)
}

func (s *EmailService) deliver(ctx context.Context, to, subject, body string) bool {
	if !s.enabled || s.sender == nil {
		logger.DebugWithContext(ctx, "Mail delivery disabled, skipping send").
			String("to", to).
			String("subject", subject).
			Log()
		return false
	}

	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		logger.ErrorWithContext(ctx, "Mail delivery failed").
			String("to", to).
			String("subject", subject).
			Err(err).
			Log()
		return false
	}

	logger.InfoWithContext(ctx, "Mail delivered").
		String("to", to).
		String("subject", subject).
		Log()

	return true
}

// SMTPSender is the production MailSender backed by gomail.
type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	return s.dialer.DialAndSend(m)
}
