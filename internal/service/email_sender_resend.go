package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

type ResendEmailSender struct {
	client *resend.Client
	from   string
}

func NewResendEmailSender(apiKey string, from string) (*ResendEmailSender, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return nil, ErrEmailSenderNotConfigured
	}
	return &ResendEmailSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}, nil
}

func (s *ResendEmailSender) Send(ctx context.Context, message EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{message.To},
		Subject: message.Subject,
		Html:    message.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
