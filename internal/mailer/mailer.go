// Package mailer delivers reminder e-mails over SMTP.
package mailer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gestionale-crm/crm-api/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// Message is a plain text e-mail with an optional HTML alternative
type Message struct {
	To      string
	Subject string
	Body    string
	HTML    string
}

// Mailer sends e-mails
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Enabled() bool
}

// SMTPMailer sends through an SMTP relay, throttled to avoid relay limits
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewSMTPMailer creates a mailer from config. It sends at most one message
// per second with a small burst.
func NewSMTPMailer(cfg *config.MailConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:    cfg.From,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:  logger,
	}
}

func (m *SMTPMailer) Enabled() bool { return true }

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("missing recipient")
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limiter: %w", err)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		m.logger.Error("failed to send email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	m.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// NoopMailer is used when mail is disabled
type NoopMailer struct{}

func (NoopMailer) Enabled() bool { return false }

func (NoopMailer) Send(_ context.Context, _ Message) error { return nil }

// New returns an SMTP mailer when mail is enabled, a NoopMailer otherwise
func New(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	if !cfg.Enabled {
		return NoopMailer{}
	}
	return NewSMTPMailer(cfg, logger)
}

// RecordingMailer keeps sent messages in memory
type RecordingMailer struct {
	mu   sync.Mutex
	sent []Message
	Fail func(msg Message) error
}

func (r *RecordingMailer) Enabled() bool { return true }

func (r *RecordingMailer) Send(_ context.Context, msg Message) error {
	if r.Fail != nil {
		if err := r.Fail(msg); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages
func (r *RecordingMailer) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
