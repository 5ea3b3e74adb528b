package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family: sans-serif">
<h2>{{.AppName}}</h2>
{{template "content" .}}
{{if .Link}}<p><a href="{{.Link}}">{{.Link}}</a></p>{{end}}
</body></html>{{end}}`

var bodies = map[string]string{
	TemplateTicketCreated: `{{define "content"}}<p>Your ticket #{{.Number}} "{{.Title}}" was received.</p>
<p>Priority: {{.Priority}}. We will get back to you soon.</p>{{end}}`,
	TemplateTicketAssigned: `{{define "content"}}<p>Ticket #{{.Number}} "{{.Title}}" was assigned to you.</p>{{end}}`,
	TemplateStatusChanged: `{{define "content"}}<p>Ticket #{{.Number}} "{{.Title}}" moved from {{.OldState}} to {{.NewState}}.</p>{{end}}`,
	TemplateNewComment: `{{define "content"}}<p>{{.Author}} replied on ticket #{{.Number}} "{{.Title}}":</p>
<blockquote>{{.Message}}</blockquote>{{end}}`,
	TemplateSLABreach: `{{define "content"}}<p>Ticket #{{.Number}} "{{.Title}}" ({{.Priority}}) passed its SLA due date {{.DueAt}}.</p>{{end}}`,
	TemplatePasswordReset: `{{define "content"}}<p>Hello {{.Name}}, use the link below to choose a new password. It expires in {{.ExpiresIn}}.</p>{{end}}`,
}

// Renderer turns template names plus data into HTML bodies.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every built-in template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(bodies))}
	for name, body := range bodies {
		tmpl, err := template.New(name).Option("missingkey=zero").Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := tmpl.Parse(body); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render executes the named template.
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
