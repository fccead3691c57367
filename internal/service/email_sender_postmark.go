package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

type PostmarkEmailSender struct {
	client  *postmark.Client
	from    string
	replyTo string
}

func NewPostmarkEmailSender(serverToken, accountToken, from, replyTo string) (*PostmarkEmailSender, error) {
	if strings.TrimSpace(serverToken) == "" || strings.TrimSpace(from) == "" {
		return nil, ErrEmailSenderNotConfigured
	}
	return &PostmarkEmailSender{
		client:  postmark.NewClient(serverToken, accountToken),
		from:    from,
		replyTo: replyTo,
	}, nil
}

func (s *PostmarkEmailSender) Send(ctx context.Context, message EmailMessage) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		ReplyTo:  s.replyTo,
		To:       message.To,
		Subject:  message.Subject,
		Tag:      message.Tag,
		HTMLBody: message.HTML,
	})
	if err != nil {
		return fmt.Errorf("postmark: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
