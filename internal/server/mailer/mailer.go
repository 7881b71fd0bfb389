// Package mailer renders templated notifications and delivers them.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	textTemplate "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Sender delivers the named template, rendered with data, to a recipient.
type Sender interface {
	Send(ctx context.Context, to string, templateName string, data any) error
}

// Message is a rendered notification.
type Message struct {
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Render executes the subject, plainBody and htmlBody blocks of
// templates/<name>.tmpl. The HTML body is escaped, the plain one is not.
func Render(name string, data any) (*Message, error) {
	file := "templates/" + name + ".tmpl"

	plain, err := textTemplate.New("").ParseFS(templateFS, file)
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}
	html, err := template.New("").ParseFS(templateFS, file)
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}

	var subject, plainBody, htmlBody bytes.Buffer
	if err := plain.ExecuteTemplate(&subject, "subject", data); err != nil {
		return nil, err
	}
	if err := plain.ExecuteTemplate(&plainBody, "plainBody", data); err != nil {
		return nil, err
	}
	if err := html.ExecuteTemplate(&htmlBody, "htmlBody", data); err != nil {
		return nil, err
	}

	return &Message{
		Subject:   strings.TrimSpace(subject.String()),
		PlainBody: strings.TrimSpace(plainBody.String()),
		HTMLBody:  strings.TrimSpace(htmlBody.String()),
	}, nil
}
