package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vitae/internal/logging"
	"gopkg.in/gomail.v2"
)

// dialer is the part of *gomail.Dialer used by SMTPSender.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends multipart (plain + HTML) messages through an SMTP relay.
type SMTPSender struct {
	dialer dialer
	from   string
	logger logging.Logger
}

func NewSMTPSender(host string, port int, username, password, from string, logger logging.Logger) *SMTPSender {
	d := gomail.NewDialer(host, port, username, password)
	if username == "" {
		d.Auth = nil
	}
	return &SMTPSender{
		dialer: d,
		from:   from,
		logger: logger.With("module", "mailer"),
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, templateName string, data any) error {
	msg, err := Render(templateName, data)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)
	m.SetDateHeader("Date", time.Now())
	m.SetBody("text/plain", msg.PlainBody)
	m.AddAlternative("text/html", msg.HTMLBody)

	// gomail has no context support; a cancelled context only skips the send.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	s.logger.Debug(ctx, "email sent", "to", to, "template", templateName)
	return nil
}
