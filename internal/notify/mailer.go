// Package notify delivers transactional email.
package notify

import (
	"context"
	"sync"
)

// Template names understood by the mailers.
const (
	TemplateTicketCreated  = "ticket_created"
	TemplateTicketAssigned = "ticket_assigned"
	TemplateStatusChanged  = "status_changed"
	TemplateNewComment     = "new_comment"
	TemplateSLABreach      = "sla_breach"
	TemplatePasswordReset  = "password_reset"
)

// Message is a single templated email.
type Message struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

// Mailer sends templated email. Implementations return delivery errors; callers decide whether they matter.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder is a Mailer that keeps messages in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

// SentTo returns messages addressed to the given recipient.
func (r *Recorder) SentTo(to string) []Message {
	var out []Message
	for _, msg := range r.Sent() {
		if msg.To == to {
			out = append(out, msg)
		}
	}
	return out
}
