package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/smilebright/booking-api/internal/config"
	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/metrics"
)

type smtpService struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

// NewSMTPService creates an email service backed by an SMTP server.
func NewSMTPService(cfg config.SMTPConfig, frontendURL string, log *logger.Logger, m *metrics.Metrics) Service {
	return &smtpService{
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:        cfg.From,
		frontendURL: frontendURL,
		logger:      log,
		metrics:     m,
	}
}

func (s *smtpService) SendConfirmation(ctx context.Context, appt *model.Appointment) error {
	subject, body, err := confirmationEmail(appt, s.frontendURL)
	if err != nil {
		return err
	}
	return s.send(ctx, "confirmation", appt.Email, subject, body)
}

func (s *smtpService) SendCancellation(ctx context.Context, appt *model.Appointment) error {
	subject, body, err := cancellationEmail(appt, s.frontendURL)
	if err != nil {
		return err
	}
	return s.send(ctx, "cancellation", appt.Email, subject, body)
}

func (s *smtpService) SendReminder(ctx context.Context, appt *model.Appointment) error {
	subject, body, err := reminderEmail(appt, s.frontendURL)
	if err != nil {
		return err
	}
	return s.send(ctx, "reminder", appt.Email, subject, body)
}

func (s *smtpService) SendReply(ctx context.Context, appt *model.Appointment, reply *model.Reply) error {
	subject, body, err := replyEmail(appt, reply, s.frontendURL)
	if err != nil {
		return err
	}
	return s.send(ctx, "reply", appt.Email, subject, body)
}

func (s *smtpService) send(ctx context.Context, tmpl, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		s.metrics.EmailsFailed.WithLabelValues(tmpl).Inc()
		return fmt.Errorf("failed to send %s email: %w", tmpl, err)
	}

	s.metrics.EmailsSent.WithLabelValues(tmpl).Inc()
	s.logger.WithFields(map[string]interface{}{
		"to":       to,
		"template": tmpl,
	}).Info("email sent")
	return nil
}
