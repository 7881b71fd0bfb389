package mailer

import (
	"context"

	"github.com/dmitrijs2005/vitae/internal/logging"
)

// LogSender renders messages and writes them to the log instead of sending
// them. Used when no SMTP host is configured.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "mailer")}
}

func (s *LogSender) Send(ctx context.Context, to, templateName string, data any) error {
	msg, err := Render(templateName, data)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "email not sent, no smtp host configured",
		"to", to, "subject", msg.Subject, "body", msg.PlainBody)
	return nil
}
