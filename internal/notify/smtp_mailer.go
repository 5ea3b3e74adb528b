package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"github.com/helpdesk-io/helpdesk/internal/config"
	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// SettingsSource returns the live settings document.
type SettingsSource interface {
	Current(ctx context.Context) (domain.Settings, error)
}

// ErrMailDisabled is returned when neither the settings document nor the environment enables email.
var ErrMailDisabled = errors.New("email delivery disabled")

// SMTPMailer delivers through SMTP. The SMTP block of the live settings wins
// over the environment fallback when it names a host.
type SMTPMailer struct {
	fallback config.NotificationConfig
	settings SettingsSource
	renderer *Renderer
	logger   *zap.Logger
	send     func(d *mail.Dialer, m *mail.Message) error
}

// NewSMTPMailer builds the mailer.
func NewSMTPMailer(fallback config.NotificationConfig, settings SettingsSource, logger *zap.Logger) (*SMTPMailer, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{
		fallback: fallback,
		settings: settings,
		renderer: renderer,
		logger:   logger,
		send: func(d *mail.Dialer, m *mail.Message) error {
			return d.DialAndSend(m)
		},
	}, nil
}

// smtpTarget is the resolved transport configuration for one send.
type smtpTarget struct {
	enabled  bool
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	appName  string
	baseLink string
}

func (m *SMTPMailer) resolve(ctx context.Context) smtpTarget {
	target := smtpTarget{
		enabled:  m.fallback.Enabled && m.fallback.SMTPHost != "",
		host:     m.fallback.SMTPHost,
		port:     m.fallback.SMTPPort,
		username: m.fallback.SMTPUsername,
		password: m.fallback.SMTPPassword,
		from:     m.fallback.EmailFrom,
		fromName: m.fallback.EmailName,
		appName:  m.fallback.EmailName,
	}
	if m.settings == nil {
		return target
	}
	current, err := m.settings.Current(ctx)
	if err != nil {
		m.logger.Warn("settings unavailable for mailer; using environment smtp", zap.Error(err))
		return target
	}
	if current.AppName != "" {
		target.appName = current.AppName
	}
	smtp := current.SMTP
	if smtp.Host == "" {
		return target
	}
	target.enabled = smtp.Enabled
	target.host = smtp.Host
	target.port = smtp.Port
	target.username = smtp.Username
	target.password = smtp.Password
	if smtp.FromAddress != "" {
		target.from = smtp.FromAddress
	}
	if smtp.FromName != "" {
		target.fromName = smtp.FromName
	}
	return target
}

// Send renders and delivers msg.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("email recipient missing")
	}
	target := m.resolve(ctx)
	if !target.enabled {
		m.logger.Debug("email disabled, skipping send", zap.String("to", msg.To), zap.String("template", msg.Template))
		return ErrMailDisabled
	}

	data := map[string]any{"AppName": target.appName}
	for k, v := range msg.Data {
		data[k] = v
	}
	body, err := m.renderer.Render(msg.Template, data)
	if err != nil {
		return err
	}

	message := mail.NewMessage()
	message.SetAddressHeader("From", target.from, target.fromName)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/html", body)

	port := target.port
	if port == 0 {
		port = 587
	}
	dialer := mail.NewDialer(target.host, port, target.username, target.password)
	if err := m.send(dialer, message); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}
	m.logger.Info("email sent", zap.String("to", msg.To), zap.String("template", msg.Template))
	return nil
}
