// Package mail renders and delivers the transactional emails.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

type Kind string

const (
	KindReviewInvitation Kind = "review_invitation"
	KindEmailChange      Kind = "email_change"
)

// Data is what every template can reference.
type Data struct {
	Recipient  string
	Link       string
	Expiry     time.Time
	HostelName string
}

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Sender delivers one message. Implementations block until the message has
// been handed off (to the SMTP server, the queue, or the log).
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Renderer struct {
	text map[Kind]*texttemplate.Template
	html map[Kind]*htmltemplate.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		text: make(map[Kind]*texttemplate.Template),
		html: make(map[Kind]*htmltemplate.Template),
	}
	for _, kind := range []Kind{KindReviewInvitation, KindEmailChange} {
		tt, err := texttemplate.ParseFS(templateFS, "templates/"+string(kind)+".txt")
		if err != nil {
			return nil, fmt.Errorf("parsing %s text template: %w", kind, err)
		}
		ht, err := htmltemplate.ParseFS(templateFS, "templates/"+string(kind)+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s html template: %w", kind, err)
		}
		r.text[kind] = tt
		r.html[kind] = ht
	}
	return r, nil
}

// MustRenderer panics if the embedded templates do not parse.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Render(kind Kind, to string, data Data) (Message, error) {
	tt, ok := r.text[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail kind %q", kind)
	}

	var subject, text, html bytes.Buffer
	if err := tt.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Message{}, fmt.Errorf("rendering %s subject: %w", kind, err)
	}
	if err := tt.ExecuteTemplate(&text, "body", data); err != nil {
		return Message{}, fmt.Errorf("rendering %s body: %w", kind, err)
	}
	if err := r.html[kind].Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("rendering %s html: %w", kind, err)
	}

	return Message{
		To:      to,
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// Mailer renders and sends in one call.
type Mailer struct {
	renderer *Renderer
	sender   Sender
}

func NewMailer(renderer *Renderer, sender Sender) *Mailer {
	return &Mailer{renderer: renderer, sender: sender}
}

func (m *Mailer) Deliver(ctx context.Context, kind Kind, to string, data Data) error {
	msg, err := m.renderer.Render(kind, to, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}
