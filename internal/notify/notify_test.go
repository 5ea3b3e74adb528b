package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mail.v2"

	"github.com/helpdesk-io/helpdesk/internal/config"
	"github.com/helpdesk-io/helpdesk/internal/domain"
)

type fixedSettings struct {
	doc domain.Settings
	err error
}

func (f fixedSettings) Current(context.Context) (domain.Settings, error) { return f.doc, f.err }

func TestRendererEscapesAndWrapsLayout(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	html, err := r.Render(TemplateNewComment, map[string]any{
		"AppName": "Desk", "Author": "Ana", "Number": 7, "Title": "Printer", "Message": "<b>hi</b>",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>Desk</h2>")
	assert.Contains(t, html, "ticket #7")
	assert.Contains(t, html, "&lt;b&gt;hi&lt;/b&gt;")

	_, err = r.Render("nope", nil)
	assert.Error(t, err)
}

func TestSMTPMailerPrefersSettingsTransport(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.AppName = "IT Desk"
	settings.SMTP = domain.SMTPSettings{Enabled: true, Host: "smtp.settings.local", Port: 2525, FromAddress: "desk@school.edu", FromName: "IT"}

	mailer, err := NewSMTPMailer(config.NotificationConfig{Enabled: true, SMTPHost: "smtp.env.local", SMTPPort: 587, EmailFrom: "env@example.com"},
		fixedSettings{doc: settings}, nil)
	require.NoError(t, err)

	var gotHost string
	var gotPort int
	var raw bytes.Buffer
	mailer.send = func(d *mail.Dialer, m *mail.Message) error {
		gotHost, gotPort = d.Host, d.Port
		_, err := m.WriteTo(&raw)
		return err
	}

	err = mailer.Send(context.Background(), Message{
		To: "ana@example.com", Subject: "Ticket #1", Template: TemplateTicketCreated,
		Data: map[string]any{"Number": 1, "Title": "Wifi", "Priority": "high"},
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp.settings.local", gotHost)
	assert.Equal(t, 2525, gotPort)
	assert.Contains(t, raw.String(), "desk@school.edu")
	assert.Contains(t, raw.String(), "IT Desk")
}

func TestSMTPMailerFallsBackToEnvironment(t *testing.T) {
	mailer, err := NewSMTPMailer(config.NotificationConfig{Enabled: true, SMTPHost: "smtp.env.local", SMTPPort: 25, EmailFrom: "env@example.com"},
		fixedSettings{err: errors.New("db down")}, nil)
	require.NoError(t, err)

	var gotHost string
	mailer.send = func(d *mail.Dialer, _ *mail.Message) error {
		gotHost = d.Host
		return nil
	}
	require.NoError(t, mailer.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Template: TemplateTicketAssigned}))
	assert.Equal(t, "smtp.env.local", gotHost)
}

func TestSMTPMailerDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(config.NotificationConfig{}, nil, nil)
	require.NoError(t, err)
	mailer.send = func(*mail.Dialer, *mail.Message) error {
		t.Fatal("must not dial when disabled")
		return nil
	}
	err = mailer.Send(context.Background(), Message{To: "a@b.c", Template: TemplateSLABreach})
	assert.ErrorIs(t, err, ErrMailDisabled)
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	require.NoError(t, rec.Send(context.Background(), Message{To: "a@b.c"}))
	require.NoError(t, rec.Send(context.Background(), Message{To: "x@y.z"}))
	assert.Len(t, rec.Sent(), 2)
	assert.Len(t, rec.SentTo("a@b.c"), 1)
}
