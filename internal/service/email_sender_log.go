package service

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogEmailSender writes messages to the log instead of sending them.
// Used in development when no provider is configured.
type LogEmailSender struct {
	Logger logrus.FieldLogger
}

func (s LogEmailSender) Send(_ context.Context, message EmailMessage) error {
	if s.Logger == nil {
		return ErrEmailSenderNotConfigured
	}
	s.Logger.WithFields(logrus.Fields{
		"to":      message.To,
		"subject": message.Subject,
		"tag":     message.Tag,
	}).Info(message.HTML)
	return nil
}
